package engagement

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sololeveling-irl/irl/internal/domain"
	"github.com/sololeveling-irl/irl/internal/infra/metrics"
	"github.com/sololeveling-irl/irl/internal/infra/retry"
	"github.com/sololeveling-irl/irl/internal/infra/sqlite"
	"github.com/sololeveling-irl/irl/internal/logger"
)

// Publisher pushes a delivered notification to an external channel.
type Publisher interface {
	Publish(ctx context.Context, n domain.Notification) error
}

// QuietHours suppresses push fan-out between Start and End ("HH:MM", local
// time of the notification). The inbox always receives the notification.
type QuietHours struct {
	Start string `toml:"quiet_start"`
	End   string `toml:"quiet_end"`
}

// NotificationService is the delivery collaborator. Every notification lands
// in the recipient's inbox; publishers are told afterwards, outside quiet hours.
type NotificationService struct {
	db         *sqlite.DB
	clock      domain.Clock
	log        *logger.Logger
	quiet      QuietHours
	publishers []Publisher
	retries    *retry.Queue[publishJob]
}

// publishJob is one notification that a publisher failed to take.
type publishJob struct {
	publisher int
	n         domain.Notification
}

// NewNotificationService creates a notification service.
func NewNotificationService(db *sqlite.DB, clock domain.Clock, log *logger.Logger, quiet QuietHours, pubs ...Publisher) *NotificationService {
	if log == nil {
		log = logger.Nop()
	}
	return &NotificationService{
		db:         db,
		clock:      clock,
		log:        log,
		quiet:      quiet,
		publishers: pubs,
		retries:    retry.New[publishJob](retry.DefaultConfig()),
	}
}

// SetRetryConfig replaces the publish retry policy. Pending retries are dropped.
func (s *NotificationService) SetRetryConfig(cfg retry.Config) {
	s.retries = retry.New[publishJob](cfg)
}

var _ domain.Notifier = (*NotificationService)(nil)

// Send stores n in targetUserID's inbox and fans it out to publishers.
// Publisher failures are queued for retry; only the inbox write can fail the call.
func (s *NotificationService) Send(ctx context.Context, targetUserID string, n domain.Notification) error {
	if targetUserID == "" {
		return &domain.ValidationError{Field: "user_id", Reason: "required"}
	}
	if n.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("notification id: %w", err)
		}
		n.ID = id.String()
	}
	n.UserID = targetUserID
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.clock.Now()
	}
	n.Shown = false

	if err := s.db.InsertNotification(n); err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	metrics.NotificationsSent.WithLabelValues(string(n.Type)).Inc()

	if s.isQuietHour(n.CreatedAt) {
		return nil
	}
	for i, p := range s.publishers {
		if err := p.Publish(ctx, n); err != nil {
			s.log.Warn("publish notification failed", "user_id", targetUserID, "type", n.Type, "error", err)
			s.scheduleRetry(retry.Entry[publishJob]{Key: n.ID, Value: publishJob{publisher: i, n: n}}, err)
		}
	}
	return nil
}

// ─── Publish Retries ────────────────────────────────────────────────────────

func (s *NotificationService) scheduleRetry(e retry.Entry[publishJob], cause error) {
	if s.retries.Schedule(e, cause, s.clock.Now()) {
		metrics.NotificationRetries.WithLabelValues("scheduled").Inc()
		return
	}
	metrics.NotificationRetries.WithLabelValues("abandoned").Inc()
	s.log.Error("notification publish abandoned", "id", e.Key, "attempts", e.Attempt, "error", cause)
}

// RetryFailed republishes every failed publish whose backoff has elapsed
// and returns how many went through.
func (s *NotificationService) RetryFailed(ctx context.Context) int {
	delivered := 0
	for _, e := range s.retries.DrainReady(s.clock.Now()) {
		job := e.Value
		if err := s.publishers[job.publisher].Publish(ctx, job.n); err != nil {
			s.scheduleRetry(e, err)
			continue
		}
		metrics.NotificationRetries.WithLabelValues("delivered").Inc()
		delivered++
	}
	return delivered
}

// PendingRetries returns the retry queue counters.
func (s *NotificationService) PendingRetries() retry.Stats {
	return s.retries.Stats()
}

// RunRetries calls RetryFailed every interval until ctx is done.
func (s *NotificationService) RunRetries(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.RetryFailed(ctx); n > 0 {
				s.log.Info("notification retries delivered", "count", n)
			}
		}
	}
}

// Pending returns unshown notifications, oldest first.
func (s *NotificationService) Pending(userID string, limit int) ([]domain.Notification, error) {
	return s.db.ListPendingNotifications(userID, limit)
}

// MarkShown marks a notification as shown.
func (s *NotificationService) MarkShown(userID, id string) error {
	return s.db.MarkNotificationShown(userID, id)
}

// isQuietHour reports whether t falls inside the quiet window.
// An unset window is never quiet.
func (s *NotificationService) isQuietHour(t time.Time) bool {
	if s.quiet.Start == "" || s.quiet.End == "" {
		return false
	}
	startHour, startMin := parseHHMM(s.quiet.Start)
	endHour, endMin := parseHHMM(s.quiet.End)

	now := t.Hour()*60 + t.Minute()
	start := startHour*60 + startMin
	end := endHour*60 + endMin

	if start > end {
		// Wraps midnight: e.g., 22:00 – 08:00
		return now >= start || now < end
	}
	return now >= start && now < end
}

// parseHHMM parses "HH:MM" into hour and minute.
func parseHHMM(s string) (int, int) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0
	}
	h, _ := strconv.Atoi(parts[0])
	m, _ := strconv.Atoi(parts[1])
	return h, m
}
