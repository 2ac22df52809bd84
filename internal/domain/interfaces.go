package domain

import "context"

// ─── Collaborator Interfaces ────────────────────────────────────────────────
// These interfaces define boundaries between layers.
// Infrastructure implements them; application layer depends on them.

// PlayerStore loads and saves the per-user PlayerState document.
type PlayerStore interface {
	// LoadPlayer returns ErrNotFound when the user has no state yet.
	LoadPlayer(userID string) (PlayerState, error)

	// SavePlayer replaces the stored document.
	SavePlayer(userID string, state PlayerState) error
}

// Notifier delivers a notification to a user.
type Notifier interface {
	Send(ctx context.Context, targetUserID string, n Notification) error
}

// User is the identity the API resolves for each request.
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}
