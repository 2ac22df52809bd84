package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sololeveling-irl/irl/internal/app/schedule"
	"github.com/sololeveling-irl/irl/internal/domain"
)

// ─── Recurrence ─────────────────────────────────────────────────────────────

func (s *Server) handleRunDaily(w http.ResponseWriter, r *http.Request) {
	added, err := s.svc.Planner.RunDaily(r.Context(), userID(r))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if added == nil {
		added = []domain.PendingTask{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"generated": added})
}

func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	rules, err := s.svc.Planner.Rules(userID(r))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if rules == nil {
		rules = []domain.RecurringRule{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"rules": rules})
}

func (s *Server) handleAddRule(w http.ResponseWriter, r *http.Request) {
	var req addRuleRequest
	if err := decode(r, &req); err != nil {
		s.writeDomainError(w, err)
		return
	}
	rule, err := s.svc.Planner.AddRule(userID(r), schedule.RuleInput{
		Name:       req.Name,
		Stat:       domain.StatID(req.Stat),
		Type:       domain.TaskType(req.Type),
		Frequency:  domain.Frequency(req.Frequency),
		DayOfWeek:  req.DayOfWeek,
		DaysOfWeek: req.DaysOfWeek,
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rule)
}

func (s *Server) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Planner.DeleteRule(userID(r), chi.URLParam(r, "id")); err != nil {
		s.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ─── Scheduled ──────────────────────────────────────────────────────────────

func (s *Server) handleListScheduled(w http.ResponseWriter, r *http.Request) {
	items, err := s.svc.Planner.Scheduled(userID(r))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if items == nil {
		items = []domain.ScheduledTask{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"scheduled": items})
}

func (s *Server) handleAddScheduled(w http.ResponseWriter, r *http.Request) {
	var req addScheduledRequest
	if err := decode(r, &req); err != nil {
		s.writeDomainError(w, err)
		return
	}
	item, err := s.svc.Planner.AddScheduled(userID(r), schedule.ScheduleInput{
		Name: req.Name,
		Stat: domain.StatID(req.Stat),
		Type: domain.TaskType(req.Type),
		Date: req.Date,
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (s *Server) handleDeleteScheduled(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Planner.DeleteScheduled(userID(r), chi.URLParam(r, "id")); err != nil {
		s.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ─── Calendar ───────────────────────────────────────────────────────────────

func (s *Server) handleCalendarDay(w http.ResponseWriter, r *http.Request) {
	day, err := domain.ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	entries, err := s.svc.Planner.Day(userID(r), day)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"date": day, "entries": entries})
}

func (s *Server) handleCalendarWeek(w http.ResponseWriter, r *http.Request) {
	day, err := domain.ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	week, err := s.svc.Planner.Week(userID(r), day)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"start": schedule.WeekStart(day),
		"days":  week,
	})
}

// ─── Templates ──────────────────────────────────────────────────────────────

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	all, err := s.svc.Planner.Templates(userID(r))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if cat := r.URL.Query().Get("category"); cat != "" {
		filtered := make([]domain.TaskTemplate, 0, len(all))
		for _, t := range all {
			if string(t.Category) == cat {
				filtered = append(filtered, t)
			}
		}
		all = filtered
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"templates": all})
}

func (s *Server) handleAddTemplate(w http.ResponseWriter, r *http.Request) {
	var req addTemplateRequest
	if err := decode(r, &req); err != nil {
		s.writeDomainError(w, err)
		return
	}
	t, err := s.svc.Planner.AddTemplate(userID(r), schedule.TemplateInput{
		Name:     req.Name,
		Stat:     domain.StatID(req.Stat),
		Type:     domain.TaskType(req.Type),
		Category: domain.TemplateCategory(req.Category),
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Planner.DeleteTemplate(userID(r), chi.URLParam(r, "id")); err != nil {
		s.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	count := queryInt(r, "count", s.svc.SuggestionCount)
	got, err := s.svc.Planner.Suggest(userID(r), count)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"suggestions": got})
}
