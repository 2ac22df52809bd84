package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sololeveling-irl/irl/internal/domain"
)

// ─── Challenges ─────────────────────────────────────────────────────────────

const challengeColumns = `id, type, status, creator_id, recipient_id, params, progress, winner,
	title, title_id, created_at, started_at, completed_at, declined_at, canceled_at`

// InsertChallenge stores a new challenge.
func (d *DB) InsertChallenge(c domain.Challenge) error {
	params, progress, err := encodeChallenge(c)
	if err != nil {
		return err
	}
	_, err = d.db.Exec(
		`INSERT INTO challenges (`+challengeColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, string(c.Type), string(c.Status), c.CreatorID, c.RecipientID, params, progress,
		nullStr(c.Winner), c.Title, c.TitleID, c.CreatedAt.Unix(),
		nullableUnix(c.StartedAt), nullableUnix(c.CompletedAt), nullableUnix(c.DeclinedAt), nullableUnix(c.CanceledAt),
	)
	return err
}

// UpdateChallenge rewrites the mutable fields of a challenge.
func (d *DB) UpdateChallenge(c domain.Challenge) error {
	params, progress, err := encodeChallenge(c)
	if err != nil {
		return err
	}
	result, err := d.db.Exec(
		`UPDATE challenges SET status = ?, params = ?, progress = ?, winner = ?,
			started_at = ?, completed_at = ?, declined_at = ?, canceled_at = ?
		 WHERE id = ?`,
		string(c.Status), params, progress, nullStr(c.Winner),
		nullableUnix(c.StartedAt), nullableUnix(c.CompletedAt), nullableUnix(c.DeclinedAt), nullableUnix(c.CanceledAt),
		c.ID,
	)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return domain.NotFound("challenge", c.ID)
	}
	return nil
}

// GetChallenge retrieves a challenge by id.
func (d *DB) GetChallenge(id string) (*domain.Challenge, error) {
	row := d.db.QueryRow(`SELECT `+challengeColumns+` FROM challenges WHERE id = ?`, id)
	c, err := scanChallenge(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound("challenge", id)
	}
	return c, err
}

// ListChallenges returns every challenge the user takes part in, newest first.
func (d *DB) ListChallenges(userID string) ([]domain.Challenge, error) {
	rows, err := d.db.Query(
		`SELECT `+challengeColumns+` FROM challenges
		 WHERE creator_id = ? OR recipient_id = ?
		 ORDER BY created_at DESC, id DESC`, userID, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Challenge
	for rows.Next() {
		c, err := scanChallenge(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func encodeChallenge(c domain.Challenge) (string, string, error) {
	params, err := json.Marshal(c.Params)
	if err != nil {
		return "", "", fmt.Errorf("encode params: %w", err)
	}
	progress, err := json.Marshal(c.Progress)
	if err != nil {
		return "", "", fmt.Errorf("encode progress: %w", err)
	}
	return string(params), string(progress), nil
}

func scanChallenge(s scanner) (*domain.Challenge, error) {
	var c domain.Challenge
	var params, progress string
	var winner sql.NullString
	var createdAt int64
	var started, completed, declined, canceled sql.NullInt64

	err := s.Scan(&c.ID, &c.Type, &c.Status, &c.CreatorID, &c.RecipientID, &params, &progress, &winner,
		&c.Title, &c.TitleID, &createdAt, &started, &completed, &declined, &canceled)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(params), &c.Params); err != nil {
		return nil, fmt.Errorf("decode params: %w", err)
	}
	if err := json.Unmarshal([]byte(progress), &c.Progress); err != nil {
		return nil, fmt.Errorf("decode progress: %w", err)
	}
	if c.Progress == nil {
		c.Progress = map[string]domain.ParticipantProgress{}
	}
	c.Participants = []string{c.CreatorID, c.RecipientID}
	c.Winner = winner.String
	c.CreatedAt = time.Unix(createdAt, 0)
	c.StartedAt = fromNullableUnix(started)
	c.CompletedAt = fromNullableUnix(completed)
	c.DeclinedAt = fromNullableUnix(declined)
	c.CanceledAt = fromNullableUnix(canceled)
	return &c, nil
}
