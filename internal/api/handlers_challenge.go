package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sololeveling-irl/irl/internal/app/challenge"
	"github.com/sololeveling-irl/irl/internal/domain"
)

// ─── Challenges ─────────────────────────────────────────────────────────────

func (s *Server) handleListChallenges(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Challenges.List(userID(r))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if status := r.URL.Query().Get("status"); status != "" {
		filtered := make([]domain.Challenge, 0, len(list))
		for _, c := range list {
			if string(c.Status) == status {
				filtered = append(filtered, c)
			}
		}
		list = filtered
	}
	if list == nil {
		list = []domain.Challenge{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"challenges": list})
}

func (s *Server) handleCreateChallenge(w http.ResponseWriter, r *http.Request) {
	var req createChallengeRequest
	if err := decode(r, &req); err != nil {
		s.writeDomainError(w, err)
		return
	}
	c, err := s.svc.Challenges.Create(r.Context(), userID(r), req.RecipientID, domain.ChallengeType(req.Type), domain.ChallengeParams{
		Stat:         domain.StatID(req.Stat),
		TargetLevel:  req.TargetLevel,
		TargetStreak: req.TargetStreak,
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleGetChallenge(w http.ResponseWriter, r *http.Request) {
	c, err := s.svc.Challenges.Get(userID(r), chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleAcceptChallenge(w http.ResponseWriter, r *http.Request) {
	s.writeChallenge(w)(s.svc.Challenges.Accept(r.Context(), chi.URLParam(r, "id"), userID(r)))
}

func (s *Server) handleDeclineChallenge(w http.ResponseWriter, r *http.Request) {
	s.writeChallenge(w)(s.svc.Challenges.Decline(r.Context(), chi.URLParam(r, "id"), userID(r)))
}

func (s *Server) handleCancelChallenge(w http.ResponseWriter, r *http.Request) {
	s.writeChallenge(w)(s.svc.Challenges.Cancel(r.Context(), chi.URLParam(r, "id"), userID(r)))
}

func (s *Server) handleSyncChallenge(w http.ResponseWriter, r *http.Request) {
	s.writeChallenge(w)(s.svc.Challenges.Sync(r.Context(), chi.URLParam(r, "id"), userID(r)))
}

func (s *Server) handleChallengeProgress(w http.ResponseWriter, r *http.Request) {
	var req progressRequest
	if err := decode(r, &req); err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeChallenge(w)(s.svc.Challenges.UpdateProgress(r.Context(), chi.URLParam(r, "id"), userID(r), challenge.Update{
		Streak: req.Streak,
		Level:  req.Level,
		Points: req.Points,
	}))
}

func (s *Server) writeChallenge(w http.ResponseWriter) func(domain.Challenge, error) {
	return func(c domain.Challenge, err error) {
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

// ─── Leaderboard ────────────────────────────────────────────────────────────

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	board, err := s.svc.Challenges.Leaderboard(queryInt(r, "limit", 20))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"leaderboard": board})
}
