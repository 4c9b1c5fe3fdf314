package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"dompet/internal/auth"
	"dompet/internal/core"
	"dompet/internal/log"
)

type goalsResponse struct {
	Goals   []goalView       `json:"goals"`
	Summary core.GoalSummary `json:"summary"`
}

type goalView struct {
	core.Goal
	Progress  float64 `json:"progress"`
	Remaining string  `json:"remaining"`
	Completed bool    `json:"completed"`
}

func viewGoal(g core.Goal) goalView {
	return goalView{
		Goal:      g,
		Progress:  g.Progress(),
		Remaining: g.Remaining().String(),
		Completed: g.Completed(),
	}
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.storeContext(r)
	defer cancel()

	goals, err := s.ledger.ListGoals(ctx, auth.UserFrom(ctx))
	if err != nil {
		s.writeError(w, r, log.OpList, err)
		return
	}

	resp := goalsResponse{Goals: make([]goalView, 0, len(goals)), Summary: core.SummarizeGoals(goals)}
	for _, g := range goals {
		resp.Goals = append(resp.Goals, viewGoal(g))
	}
	NewResponse().Data(resp).Write(w)
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFrom(r.Context())

	g, err := ParseGoal(NewRequestBodyParser(r), user)
	if err != nil {
		s.writeError(w, r, log.OpParse, err)
		return
	}

	ctx, cancel := s.storeContext(r)
	defer cancel()

	saved, err := s.ledger.AddGoal(ctx, g)
	if err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}
	NewResponse().
		Status(http.StatusCreated).
		Data(viewGoal(saved)).
		Notify(s.hub.Success(user, "Target tersimpan! 🎯")).
		Write(w)
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.storeContext(r)
	defer cancel()
	user := auth.UserFrom(ctx)

	if err := s.ledger.DeleteGoal(ctx, user, mux.Vars(r)["id"]); err != nil {
		s.writeError(w, r, log.OpDelete, err)
		return
	}
	NewResponse().Notify(s.hub.Success(user, "Target dihapus")).Write(w)
}
