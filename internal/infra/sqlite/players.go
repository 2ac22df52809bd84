package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sololeveling-irl/irl/internal/domain"
)

// ─── Player Documents ───────────────────────────────────────────────────────

// LoadPlayer returns the stored state for a user, or ErrNotFound.
func (d *DB) LoadPlayer(userID string) (domain.PlayerState, error) {
	var raw string
	err := d.db.QueryRow(`SELECT state FROM players WHERE user_id = ?`, userID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.PlayerState{}, domain.NotFound("player", userID)
	}
	if err != nil {
		return domain.PlayerState{}, fmt.Errorf("load player: %w", err)
	}

	var state domain.PlayerState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return domain.PlayerState{}, fmt.Errorf("decode player %s: %w", userID, err)
	}
	return state, nil
}

// SavePlayer inserts or replaces the state document for a user.
func (d *DB) SavePlayer(userID string, state domain.PlayerState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode player: %w", err)
	}
	_, err = d.db.Exec(
		`INSERT INTO players (user_id, player_name, state, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
			player_name=excluded.player_name,
			state=excluded.state,
			updated_at=excluded.updated_at`,
		userID, state.PlayerName, string(raw), time.Now().Unix(),
	)
	return err
}

// PlayerExists reports whether the user has a stored state.
func (d *DB) PlayerExists(userID string) (bool, error) {
	var count int
	err := d.db.QueryRow(`SELECT COUNT(*) FROM players WHERE user_id = ?`, userID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// PlayerIDs lists all user ids with stored state.
func (d *DB) PlayerIDs() ([]string, error) {
	rows, err := d.db.Query(`SELECT user_id FROM players ORDER BY user_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DeletePlayer removes a user's state document.
func (d *DB) DeletePlayer(userID string) error {
	result, err := d.db.Exec(`DELETE FROM players WHERE user_id = ?`, userID)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return domain.NotFound("player", userID)
	}
	return nil
}
