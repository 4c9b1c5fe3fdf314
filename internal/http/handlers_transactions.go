package http

import (
	"net/http"

	"dompet/internal/auth"
	"dompet/internal/core"
	"dompet/internal/log"
)

const (
	msgIncomeRecorded  = "Pemasukan Berhasil! 🤑"
	msgExpenseRecorded = "Pengeluaran Dicatat! 💸"
)

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFrom(r.Context())

	tx, err := ParseTransaction(NewRequestBodyParser(r), user, s.today())
	if err != nil {
		s.writeError(w, r, log.OpParse, err)
		return
	}

	ctx, cancel := s.storeContext(r)
	defer cancel()

	saved, err := s.ledger.RecordTransaction(ctx, tx)
	if err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}

	msg := msgExpenseRecorded
	if saved.Type == core.Income {
		msg = msgIncomeRecorded
	}
	NewResponse().
		Status(http.StatusCreated).
		Data(saved).
		Notify(s.hub.Success(user, msg)).
		Write(w)
}

func (s *Server) handleRecentTransactions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	typ, err := ParseType(query)
	if err != nil {
		s.writeError(w, r, log.OpParse, err)
		return
	}
	limit, err := ParseLimit(query, maxRecentLimit)
	if err != nil {
		s.writeError(w, r, log.OpParse, err)
		return
	}

	ctx, cancel := s.storeContext(r)
	defer cancel()

	txs, err := s.ledger.RecentTransactions(ctx, auth.UserFrom(ctx), typ, limit)
	if err != nil {
		s.writeError(w, r, log.OpList, err)
		return
	}
	if txs == nil {
		txs = []core.Transaction{}
	}
	NewResponse().Data(txs).Write(w)
}
