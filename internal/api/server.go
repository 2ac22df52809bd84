// Package api provides the HTTP server for the IRL progression service.
// Every /api route acts on the authenticated user's own state.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sololeveling-irl/irl/internal/app/challenge"
	"github.com/sololeveling-irl/irl/internal/app/engagement"
	"github.com/sololeveling-irl/irl/internal/app/schedule"
	"github.com/sololeveling-irl/irl/internal/domain"
	"github.com/sololeveling-irl/irl/internal/health"
	"github.com/sololeveling-irl/irl/internal/infra/metrics"
	"github.com/sololeveling-irl/irl/internal/logger"
)

// Services are the application services the API exposes.
// Health is optional.
type Services struct {
	Players         *engagement.PlayerService
	Achievements    *engagement.AchievementService
	Titles          *engagement.TitleService
	Notifications   *engagement.NotificationService
	Planner         *schedule.Planner
	Challenges      *challenge.Service
	Health          *health.Checker
	SuggestionCount int
}

// Server is the IRL HTTP API server.
type Server struct {
	svc            Services
	auth           *Authenticator
	log            *logger.Logger
	corsOrigins    []string
	metricsEnabled bool
}

// NewServer creates a new API server.
func NewServer(svc Services, auth *Authenticator, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	if svc.SuggestionCount <= 0 {
		svc.SuggestionCount = 5
	}
	return &Server{svc: svc, auth: auth, log: log, corsOrigins: []string{"*"}}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// SetCORSOrigins sets the allowed origins. "*" allows any.
func (s *Server) SetCORSOrigins(origins []string) { s.corsOrigins = origins }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(s.corsMiddleware)
	r.Use(metricsMiddleware)

	r.Get("/health", s.handleHealth)

	r.Get("/api/version", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"version": "0.1.0"})
	})

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(s.auth.Middleware)
		r.Use(s.ensurePlayer)

		r.Get("/player", s.handleGetPlayer)
		r.Get("/player/summary", s.handleSummary)
		r.Patch("/player", s.handleRename)
		r.Post("/player/reset", s.handleReset)

		r.Get("/tasks", s.handleListTasks)
		r.Post("/tasks", s.handleAddTask)
		r.Delete("/tasks/{id}", s.handleDeleteTask)
		r.Post("/tasks/{id}/complete", s.handleCompleteTask)
		r.Get("/tasks/completed", s.handleCompletedTasks)

		r.Post("/daily", s.handleRunDaily)
		r.Get("/rules", s.handleListRules)
		r.Post("/rules", s.handleAddRule)
		r.Delete("/rules/{id}", s.handleDeleteRule)
		r.Get("/scheduled", s.handleListScheduled)
		r.Post("/scheduled", s.handleAddScheduled)
		r.Delete("/scheduled/{id}", s.handleDeleteScheduled)
		r.Get("/calendar/{date}", s.handleCalendarDay)
		r.Get("/calendar/week/{date}", s.handleCalendarWeek)
		r.Get("/templates", s.handleListTemplates)
		r.Post("/templates", s.handleAddTemplate)
		r.Delete("/templates/{id}", s.handleDeleteTemplate)
		r.Get("/suggestions", s.handleSuggest)

		r.Get("/achievements", s.handleAchievements)
		r.Get("/achievements/notifications", s.handleAchievementNotifications)
		r.Get("/achievements/notifications/next", s.handleNextAchievementNotification)
		r.Post("/achievements/notifications/{id}/read", s.handleAchievementNotificationRead)
		r.Delete("/achievements/notifications/{id}", s.handleAchievementNotificationClear)

		r.Get("/titles", s.handleTitles)
		r.Put("/titles/selected", s.handleSelectTitle)
		r.Delete("/titles/selected", s.handleDeselectTitle)

		r.Get("/notifications", s.handleNotifications)
		r.Post("/notifications/{id}/shown", s.handleNotificationShown)

		r.Get("/challenges", s.handleListChallenges)
		r.Post("/challenges", s.handleCreateChallenge)
		r.Get("/challenges/{id}", s.handleGetChallenge)
		r.Post("/challenges/{id}/accept", s.handleAcceptChallenge)
		r.Post("/challenges/{id}/decline", s.handleDeclineChallenge)
		r.Post("/challenges/{id}/cancel", s.handleCancelChallenge)
		r.Post("/challenges/{id}/progress", s.handleChallengeProgress)
		r.Post("/challenges/{id}/sync", s.handleSyncChallenge)
		r.Get("/leaderboard", s.handleLeaderboard)
	})

	return r
}

// ensurePlayer creates the caller's state on first contact.
func (s *Server) ensurePlayer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, _ := UserFromContext(r.Context())
		if _, err := s.svc.Players.Ensure(u.ID, u.DisplayName); err != nil {
			s.writeDomainError(w, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.svc.Health == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	status, label := http.StatusOK, "ok"
	switch s.svc.Health.Overall() {
	case health.Unhealthy:
		status, label = http.StatusServiceUnavailable, "unhealthy"
	case health.Degraded:
		label = "degraded"
	}
	writeJSON(w, status, map[string]interface{}{
		"status": label,
		"checks": s.svc.Health.Statuses(),
	})
}

// ─── Responses ──────────────────────────────────────────────────────────────

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message": msg,
			"type":    errorType(status),
		},
	})
}

// writeDomainError maps the domain error taxonomy onto HTTP statuses.
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		s.log.Error("request failed", "error", err)
	}
	writeError(w, status, err.Error())
}

// StatusFor returns the HTTP status for an error.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNotAuthorized):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, domain.ErrNotEligible):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func errorType(status int) string {
	switch status {
	case http.StatusNotFound:
		return "not_found"
	case http.StatusForbidden:
		return "not_authorized"
	case http.StatusConflict:
		return "invalid_state"
	case http.StatusUnprocessableEntity:
		return "not_eligible"
	case http.StatusBadRequest:
		return "validation"
	case http.StatusUnauthorized:
		return "unauthenticated"
	default:
		return "error"
	}
}

// queryInt reads a non-negative integer query parameter.
func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

// ─── Middleware ─────────────────────────────────────────────────────────────

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := s.allowedOrigin(r.Header.Get("Origin")); origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-User-ID")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) allowedOrigin(origin string) string {
	for _, o := range s.corsOrigins {
		if o == "*" {
			return "*"
		}
		if origin != "" && strings.EqualFold(o, origin) {
			return origin
		}
	}
	return ""
}

// metricsMiddleware records latency per route pattern, so ids in paths do
// not explode label cardinality.
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.APIRequestDuration.WithLabelValues(route, strconv.Itoa(status)).Observe(time.Since(start).Seconds())
	})
}
