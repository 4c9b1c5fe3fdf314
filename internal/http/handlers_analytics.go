package http

import (
	"bytes"
	"fmt"
	"net/http"

	"dompet/internal/analytics"
	"dompet/internal/auth"
	"dompet/internal/core"
	"dompet/internal/export"
	"dompet/internal/fetch"
	"dompet/internal/log"
	"dompet/internal/ports"
	"dompet/internal/streak"
)

// fetchKey scopes latest-wins loading to one panel of one user.
func fetchKey(panel, user string) string {
	return panel + "|" + user
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.storeContext(r)
	defer cancel()
	user := auth.UserFrom(ctx)

	res, err := s.fetcher.Fetch(ctx, fetchKey("dashboard", user), fetch.Request{
		Query: ports.TransactionQuery{UserID: user},
	})
	if err != nil {
		s.writeError(w, r, log.OpRead, err)
		return
	}
	NewResponse().Data(analytics.Summarize(res.Transactions)).Write(w)
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	win, err := ParseWindowParams(r.URL.Query(), s.today())
	if err != nil {
		s.writeError(w, r, log.OpParse, err)
		return
	}
	user := auth.UserFrom(r.Context())

	if report, ok := s.reports.Get(user, win); ok {
		s.metrics.RecordCacheLookup(true)
		NewResponse().Data(report).Write(w)
		return
	}
	s.metrics.RecordCacheLookup(false)

	// Read before fetching so a write landing mid-fetch keeps this report
	// out of the cache.
	gen := s.reports.Generation(user)
	txs, err := s.windowTransactions(r, "analytics", win)
	if err != nil {
		s.writeError(w, r, log.OpAnalyze, err)
		return
	}

	report := analytics.Analyze(win, txs)
	cached := s.reports.Put(user, win, gen, report)

	ctx := r.Context()
	log.FromContext(ctx).DebugContext(ctx, "Analytics computed",
		log.FieldView, string(win.View),
		log.FieldYear, win.Year,
		log.FieldMonth, win.Month,
		log.FieldCount, len(txs),
		"cached", cached)
	NewResponse().Data(report).Write(w)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	_, txs, ok := s.exportRows(w, r, "export.csv")
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, txs); err != nil {
		s.writeError(w, r, log.OpExport, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, export.CSVFilename))
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleExportHTML(w http.ResponseWriter, r *http.Request) {
	win, txs, ok := s.exportRows(w, r, "export.html")
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := s.reporter.Write(&buf, win, txs); err != nil {
		s.writeError(w, r, log.OpRender, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`inline; filename="%s"`, export.ReportFilename))
	_, _ = w.Write(buf.Bytes())
}

// exportRows loads the raw rows behind an export. Rendering happens into a
// buffer so a failure can still produce a JSON error.
func (s *Server) exportRows(w http.ResponseWriter, r *http.Request, panel string) (analytics.Window, []core.Transaction, bool) {
	win, err := ParseWindowParams(r.URL.Query(), s.today())
	if err != nil {
		s.writeError(w, r, log.OpParse, err)
		return analytics.Window{}, nil, false
	}
	txs, err := s.windowTransactions(r, panel+"|"+win.Key(), win)
	if err != nil {
		s.writeError(w, r, log.OpExport, err)
		return analytics.Window{}, nil, false
	}
	return win, txs, true
}

func (s *Server) windowTransactions(r *http.Request, panel string, win analytics.Window) ([]core.Transaction, error) {
	ctx, cancel := s.storeContext(r)
	defer cancel()
	user := auth.UserFrom(ctx)

	res, err := s.fetcher.Fetch(ctx, fetchKey(panel, user), fetch.Request{
		Query: ports.TransactionQuery{UserID: user, From: win.From, To: win.To},
	})
	if err != nil {
		return nil, err
	}
	return res.Transactions, nil
}

func (s *Server) handleStreak(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.storeContext(r)
	defer cancel()
	user := auth.UserFrom(ctx)
	today := s.today()
	from, to := streak.Window(today)

	res, err := s.fetcher.Fetch(ctx, fetchKey("streak", user), fetch.Request{
		Query: ports.TransactionQuery{UserID: user, From: from, To: to, Type: core.Expense},
	})
	if err != nil {
		s.writeError(w, r, log.OpRead, err)
		return
	}
	NewResponse().Data(s.streaks.Compute(res.Transactions, today)).Write(w)
}
