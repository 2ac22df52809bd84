package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sololeveling-irl/irl/internal/domain"
)

// ─── Recurring Rules ────────────────────────────────────────────────────────

// InsertRule stores a new recurring rule.
func (d *DB) InsertRule(userID string, r domain.RecurringRule) error {
	days, err := json.Marshal(weekdaysToInts(r.DaysOfWeek))
	if err != nil {
		return err
	}
	_, err = d.db.Exec(
		`INSERT INTO recurring_rules (id, user_id, name, stat, type, frequency, day_of_week, days_of_week, last_generated, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, userID, r.Name, string(r.Stat), string(r.Type), string(r.Frequency),
		int(r.DayOfWeek), string(days), string(r.LastGenerated), r.CreatedAt.Unix(),
	)
	return err
}

// ListRules returns a user's recurring rules in creation order.
func (d *DB) ListRules(userID string) ([]domain.RecurringRule, error) {
	rows, err := d.db.Query(
		`SELECT id, name, stat, type, frequency, day_of_week, days_of_week, last_generated, created_at
		 FROM recurring_rules WHERE user_id = ? ORDER BY created_at ASC, id ASC`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []domain.RecurringRule
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, *r)
	}
	return rules, rows.Err()
}

// CommitDaily records one day's evaluation in a single transaction: every
// rule in ruleIDs is marked generated on day and every scheduled task in
// firedIDs is removed. On error nothing is written.
func (d *DB) CommitDaily(userID string, day domain.Date, ruleIDs, firedIDs []string) (err error) {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	for _, id := range ruleIDs {
		if _, err = tx.Exec(
			`UPDATE recurring_rules SET last_generated = ? WHERE id = ? AND user_id = ?`,
			string(day), id, userID,
		); err != nil {
			return fmt.Errorf("mark rule %s: %w", id, err)
		}
	}
	for _, id := range firedIDs {
		if _, err = tx.Exec(`DELETE FROM scheduled_tasks WHERE id = ? AND user_id = ?`, id, userID); err != nil {
			return fmt.Errorf("remove scheduled %s: %w", id, err)
		}
	}
	return tx.Commit()
}

// DeleteRule removes a rule. Tasks it already generated are left alone.
func (d *DB) DeleteRule(userID, ruleID string) error {
	result, err := d.db.Exec(`DELETE FROM recurring_rules WHERE id = ? AND user_id = ?`, ruleID, userID)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return domain.NotFound("recurring rule", ruleID)
	}
	return nil
}

func scanRule(s scanner) (*domain.RecurringRule, error) {
	var r domain.RecurringRule
	var dayOfWeek int
	var days, last string
	var createdAt int64

	err := s.Scan(&r.ID, &r.Name, &r.Stat, &r.Type, &r.Frequency, &dayOfWeek, &days, &last, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan rule: %w", err)
	}

	var ints []int
	if err := json.Unmarshal([]byte(days), &ints); err != nil {
		return nil, fmt.Errorf("decode days_of_week: %w", err)
	}
	r.DayOfWeek = time.Weekday(dayOfWeek)
	r.DaysOfWeek = intsToWeekdays(ints)
	r.LastGenerated = domain.Date(last)
	r.CreatedAt = time.Unix(createdAt, 0)
	return &r, nil
}

// ─── Scheduled Tasks ────────────────────────────────────────────────────────

// InsertScheduled stores a one-shot scheduled task.
func (d *DB) InsertScheduled(userID string, s domain.ScheduledTask) error {
	_, err := d.db.Exec(
		`INSERT INTO scheduled_tasks (id, user_id, name, stat, type, scheduled_date, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.ID, userID, s.Name, string(s.Stat), string(s.Type), string(s.ScheduledDate), s.CreatedAt.Unix(),
	)
	return err
}

// ListScheduled returns a user's scheduled tasks ordered by date.
func (d *DB) ListScheduled(userID string) ([]domain.ScheduledTask, error) {
	rows, err := d.db.Query(
		`SELECT id, name, stat, type, scheduled_date, created_at
		 FROM scheduled_tasks WHERE user_id = ? ORDER BY scheduled_date ASC, created_at ASC`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ScheduledTask
	for rows.Next() {
		var s domain.ScheduledTask
		var date string
		var createdAt int64
		if err := rows.Scan(&s.ID, &s.Name, &s.Stat, &s.Type, &date, &createdAt); err != nil {
			return nil, err
		}
		s.ScheduledDate = domain.Date(date)
		s.CreatedAt = time.Unix(createdAt, 0)
		out = append(out, s)
	}
	return out, rows.Err()
}

// DeleteScheduled removes a scheduled task.
func (d *DB) DeleteScheduled(userID, id string) error {
	result, err := d.db.Exec(`DELETE FROM scheduled_tasks WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return domain.NotFound("scheduled task", id)
	}
	return nil
}

// ─── Task Templates ─────────────────────────────────────────────────────────

// InsertTemplate stores a user's favourite or personal template.
func (d *DB) InsertTemplate(userID string, t domain.TaskTemplate) error {
	_, err := d.db.Exec(
		`INSERT INTO task_templates (id, user_id, name, stat, type, category) VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID, userID, t.Name, string(t.Stat), string(t.Type), string(t.Category),
	)
	return err
}

// ListTemplates returns a user's stored templates.
func (d *DB) ListTemplates(userID string) ([]domain.TaskTemplate, error) {
	rows, err := d.db.Query(
		`SELECT id, name, stat, type, category FROM task_templates WHERE user_id = ? ORDER BY name`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.TaskTemplate
	for rows.Next() {
		var t domain.TaskTemplate
		if err := rows.Scan(&t.ID, &t.Name, &t.Stat, &t.Type, &t.Category); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// DeleteTemplate removes a stored template.
func (d *DB) DeleteTemplate(userID, id string) error {
	result, err := d.db.Exec(`DELETE FROM task_templates WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return domain.NotFound("template", id)
	}
	return nil
}

func weekdaysToInts(days []time.Weekday) []int {
	out := make([]int, len(days))
	for i, d := range days {
		out[i] = int(d)
	}
	return out
}

func intsToWeekdays(ints []int) []time.Weekday {
	if len(ints) == 0 {
		return nil
	}
	out := make([]time.Weekday, len(ints))
	for i, v := range ints {
		out[i] = time.Weekday(v)
	}
	return out
}
