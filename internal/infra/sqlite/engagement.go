package sqlite

import (
	"database/sql"
	"errors"
	"time"

	"github.com/sololeveling-irl/irl/internal/domain"
)

// ─── Achievements ───────────────────────────────────────────────────────────

// UnlockAchievement records an unlock. Returns true if newly unlocked,
// false if the user already had it.
func (d *DB) UnlockAchievement(userID, id string, at time.Time) (bool, error) {
	result, err := d.db.Exec(
		`INSERT OR IGNORE INTO achievements (user_id, id, unlocked_at) VALUES (?, ?, ?)`,
		userID, id, at.Unix(),
	)
	if err != nil {
		return false, err
	}
	n, _ := result.RowsAffected()
	return n > 0, nil
}

// ListUnlockedAchievements returns a user's unlock records, oldest first.
func (d *DB) ListUnlockedAchievements(userID string) ([]domain.UnlockedAchievement, error) {
	rows, err := d.db.Query(
		`SELECT id, unlocked_at FROM achievements WHERE user_id = ? ORDER BY unlocked_at ASC, id ASC`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.UnlockedAchievement
	for rows.Next() {
		var a domain.UnlockedAchievement
		var ts int64
		if err := rows.Scan(&a.ID, &ts); err != nil {
			return nil, err
		}
		a.UnlockedAt = time.Unix(ts, 0)
		result = append(result, a)
	}
	return result, rows.Err()
}

// ─── Achievement Notifications ──────────────────────────────────────────────

// InsertAchievementNotification stores a new unread notification.
// Duplicate ids are ignored.
func (d *DB) InsertAchievementNotification(userID string, n domain.AchievementNotification) error {
	_, err := d.db.Exec(
		`INSERT OR IGNORE INTO achievement_notifications (id, user_id, achievement_id, read, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		n.ID, userID, n.AchievementID, n.Read, n.CreatedAt.Unix(),
	)
	return err
}

// OldestUnreadAchievementNotification returns the oldest unread notification,
// or nil when the queue is empty.
func (d *DB) OldestUnreadAchievementNotification(userID string) (*domain.AchievementNotification, error) {
	row := d.db.QueryRow(
		`SELECT id, achievement_id, read, created_at FROM achievement_notifications
		 WHERE user_id = ? AND read = 0 ORDER BY created_at ASC, rowid ASC LIMIT 1`, userID,
	)
	n, err := scanAchievementNotification(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return n, err
}

// ListAchievementNotifications returns all notifications not yet cleared.
func (d *DB) ListAchievementNotifications(userID string) ([]domain.AchievementNotification, error) {
	rows, err := d.db.Query(
		`SELECT id, achievement_id, read, created_at FROM achievement_notifications
		 WHERE user_id = ? ORDER BY created_at ASC, rowid ASC`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.AchievementNotification
	for rows.Next() {
		n, err := scanAchievementNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *n)
	}
	return out, rows.Err()
}

// MarkAchievementNotificationRead flags a notification as read. It stays
// listed until cleared.
func (d *DB) MarkAchievementNotificationRead(userID, id string) error {
	result, err := d.db.Exec(
		`UPDATE achievement_notifications SET read = 1 WHERE id = ? AND user_id = ?`, id, userID,
	)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return domain.NotFound("achievement notification", id)
	}
	return nil
}

// ClearAchievementNotification removes a notification.
func (d *DB) ClearAchievementNotification(userID, id string) error {
	result, err := d.db.Exec(
		`DELETE FROM achievement_notifications WHERE id = ? AND user_id = ?`, id, userID,
	)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return domain.NotFound("achievement notification", id)
	}
	return nil
}

func scanAchievementNotification(s scanner) (*domain.AchievementNotification, error) {
	var n domain.AchievementNotification
	var ts int64
	if err := s.Scan(&n.ID, &n.AchievementID, &n.Read, &ts); err != nil {
		return nil, err
	}
	n.CreatedAt = time.Unix(ts, 0)
	return &n, nil
}

// ─── Titles ─────────────────────────────────────────────────────────────────

// AwardTitle adds a title to the user's earned set. Returns false if the
// title was already held.
func (d *DB) AwardTitle(userID, titleID string, at time.Time) (bool, error) {
	result, err := d.db.Exec(
		`INSERT OR IGNORE INTO titles (user_id, title_id, earned_at) VALUES (?, ?, ?)`,
		userID, titleID, at.Unix(),
	)
	if err != nil {
		return false, err
	}
	n, _ := result.RowsAffected()
	return n > 0, nil
}

// TitleRecord returns the earned titles (in award order) and the selection.
func (d *DB) TitleRecord(userID string) (domain.TitleRecord, error) {
	rec := domain.TitleRecord{Titles: []string{}}

	rows, err := d.db.Query(
		`SELECT title_id FROM titles WHERE user_id = ? ORDER BY earned_at ASC, rowid ASC`, userID,
	)
	if err != nil {
		return rec, err
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return rec, err
		}
		rec.Titles = append(rec.Titles, id)
	}
	if err := rows.Err(); err != nil {
		return rec, err
	}

	err = d.db.QueryRow(`SELECT title_id FROM selected_titles WHERE user_id = ?`, userID).Scan(&rec.Selected)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return rec, err
	}
	return rec, nil
}

// SelectTitle stores the displayed title. Callers check membership first.
func (d *DB) SelectTitle(userID, titleID string) error {
	_, err := d.db.Exec(
		`INSERT INTO selected_titles (user_id, title_id) VALUES (?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET title_id=excluded.title_id`,
		userID, titleID,
	)
	return err
}

// ClearSelectedTitle removes the displayed title.
func (d *DB) ClearSelectedTitle(userID string) error {
	_, err := d.db.Exec(`DELETE FROM selected_titles WHERE user_id = ?`, userID)
	return err
}

// ─── Notifications Inbox ────────────────────────────────────────────────────

// InsertNotification stores a delivered notification.
func (d *DB) InsertNotification(n domain.Notification) error {
	_, err := d.db.Exec(
		`INSERT INTO notifications (id, user_id, type, title, message, ref_id, created_at, shown)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.UserID, string(n.Type), n.Title, n.Message, nullStr(n.RefID), n.CreatedAt.Unix(), n.Shown,
	)
	return err
}

// ListPendingNotifications returns unshown notifications, oldest first.
func (d *DB) ListPendingNotifications(userID string, limit int) ([]domain.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := d.db.Query(
		`SELECT id, user_id, type, title, message, ref_id, created_at, shown
		 FROM notifications WHERE user_id = ? AND shown = 0
		 ORDER BY created_at ASC, rowid ASC LIMIT ?`, userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Notification
	for rows.Next() {
		var n domain.Notification
		var ref sql.NullString
		var ts int64
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &ref, &ts, &n.Shown); err != nil {
			return nil, err
		}
		n.RefID = ref.String
		n.CreatedAt = time.Unix(ts, 0)
		result = append(result, n)
	}
	return result, rows.Err()
}

// MarkNotificationShown marks a notification as shown.
func (d *DB) MarkNotificationShown(userID, id string) error {
	result, err := d.db.Exec(
		`UPDATE notifications SET shown = 1 WHERE id = ? AND user_id = ?`, id, userID,
	)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return domain.NotFound("notification", id)
	}
	return nil
}
