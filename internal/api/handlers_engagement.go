package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sololeveling-irl/irl/internal/domain"
)

// ─── Achievements ───────────────────────────────────────────────────────────

func (s *Server) handleAchievements(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	state, err := s.svc.Players.State(uid)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	statuses, err := s.svc.Achievements.Statuses(uid, state, s.today())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	unlocked := 0
	for _, st := range statuses {
		if st.Unlocked {
			unlocked++
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"achievements": statuses,
		"unlocked":     unlocked,
		"total":        s.svc.Achievements.TotalCount(),
	})
}

func (s *Server) handleAchievementNotifications(w http.ResponseWriter, r *http.Request) {
	notes, err := s.svc.Achievements.Notifications(userID(r))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if notes == nil {
		notes = []domain.AchievementNotification{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"notifications": notes})
}

// handleNextAchievementNotification returns the oldest unread notification,
// or 204 when there is none.
func (s *Server) handleNextAchievementNotification(w http.ResponseWriter, r *http.Request) {
	n, err := s.svc.Achievements.NextUnread(userID(r))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if n == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (s *Server) handleAchievementNotificationRead(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Achievements.MarkRead(userID(r), chi.URLParam(r, "id")); err != nil {
		s.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAchievementNotificationClear(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Achievements.Clear(userID(r), chi.URLParam(r, "id")); err != nil {
		s.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ─── Titles ─────────────────────────────────────────────────────────────────

type titleView struct {
	domain.TitleDef
	Earned   bool `json:"earned"`
	Selected bool `json:"selected"`
}

func (s *Server) handleTitles(w http.ResponseWriter, r *http.Request) {
	rec, err := s.svc.Titles.Record(userID(r))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	defs := s.svc.Titles.Definitions()
	views := make([]titleView, 0, len(defs))
	for _, def := range defs {
		views = append(views, titleView{
			TitleDef: def,
			Earned:   rec.Has(def.ID),
			Selected: rec.Selected == def.ID,
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"titles":   views,
		"earned":   rec.Titles,
		"selected": rec.Selected,
	})
}

func (s *Server) handleSelectTitle(w http.ResponseWriter, r *http.Request) {
	var req selectTitleRequest
	if err := decode(r, &req); err != nil {
		s.writeDomainError(w, err)
		return
	}
	rec, err := s.svc.Titles.Select(userID(r), req.TitleID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDeselectTitle(w http.ResponseWriter, r *http.Request) {
	rec, err := s.svc.Titles.Deselect(userID(r))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// ─── Notification Inbox ─────────────────────────────────────────────────────

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	notes, err := s.svc.Notifications.Pending(userID(r), queryInt(r, "limit", 50))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if notes == nil {
		notes = []domain.Notification{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"notifications": notes})
}

func (s *Server) handleNotificationShown(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Notifications.MarkShown(userID(r), chi.URLParam(r, "id")); err != nil {
		s.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
