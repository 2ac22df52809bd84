package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sololeveling-irl/irl/internal/app/engagement"
	"github.com/sololeveling-irl/irl/internal/domain"
)

// ─── Player ─────────────────────────────────────────────────────────────────

// handleGetPlayer loads the state after running today's recurrence, the same
// way an app launch does. Re-running on the same day adds nothing.
func (s *Server) handleGetPlayer(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if _, err := s.svc.Planner.RunDaily(r.Context(), uid); err != nil {
		s.log.Warn("daily evaluation failed", "user_id", uid, "error", err)
	}
	state, err := s.svc.Players.State(uid)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	state, err := s.svc.Players.State(userID(r))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, engagement.Summarize(state, s.today()))
}

func (s *Server) handleRename(w http.ResponseWriter, r *http.Request) {
	var req renameRequest
	if err := decode(r, &req); err != nil {
		s.writeDomainError(w, err)
		return
	}
	res, err := s.svc.Players.Rename(r.Context(), userID(r), req.Name)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res.State)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Players.Reset(r.Context(), userID(r))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res.State)
}

// ─── Tasks ──────────────────────────────────────────────────────────────────

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	state, err := s.svc.Players.State(userID(r))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"tasks": state.Tasks})
}

func (s *Server) handleCompletedTasks(w http.ResponseWriter, r *http.Request) {
	state, err := s.svc.Players.State(userID(r))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	done := state.CompletedTasks
	if limit := queryInt(r, "limit", 0); limit > 0 && len(done) > limit {
		done = done[len(done)-limit:]
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"completed_tasks": done})
}

func (s *Server) handleAddTask(w http.ResponseWriter, r *http.Request) {
	var req addTaskRequest
	if err := decode(r, &req); err != nil {
		s.writeDomainError(w, err)
		return
	}
	res, err := s.svc.Players.AddTask(r.Context(), userID(r), req.Name, domain.StatID(req.Stat), domain.TaskType(req.Type), "")
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res.Added)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	if _, err := s.svc.Players.DeleteTask(r.Context(), userID(r), chi.URLParam(r, "id")); err != nil {
		s.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// completeResponse is what a completion returns to the client.
type completeResponse struct {
	Completion *engagement.Completion   `json:"completion"`
	Summary    engagement.PlayerSummary `json:"summary"`
	Unlocked   []domain.AchievementDef  `json:"unlocked,omitempty"`
	Titles     []domain.TitleDef        `json:"titles,omitempty"`
}

func (s *Server) handleCompleteTask(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Players.CompleteTask(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, completeResponse{
		Completion: res.Completion,
		Summary:    engagement.Summarize(res.State, s.today()),
		Unlocked:   res.Unlocked,
		Titles:     res.Titles,
	})
}
