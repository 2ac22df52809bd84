package redisbus_test

import (
	"context"
	"testing"
	"time"

	"github.com/sololeveling-irl/irl/internal/domain"
	"github.com/sololeveling-irl/irl/internal/infra/redisbus"
)

func TestEncodeDecode(t *testing.T) {
	n := domain.Notification{
		ID:        "n1",
		UserID:    "u1",
		Type:      domain.NotifyLevelUp,
		Title:     "Level Up!",
		Message:   "Strength reached level 4",
		RefID:     "strength",
		CreatedAt: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
	}
	raw, err := redisbus.Encode(n)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := redisbus.Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.UserID != "u1" || got.Type != domain.NotifyLevelUp || !got.CreatedAt.Equal(n.CreatedAt) {
		t.Errorf("round trip mismatch: %+v", got)
	}
}

func TestDecode_RejectsMissingUser(t *testing.T) {
	if _, err := redisbus.Decode([]byte(`{"id":"n1","type":"title"}`)); err == nil {
		t.Error("expected error for payload without user_id")
	}
	if _, err := redisbus.Decode([]byte(`not json`)); err == nil {
		t.Error("expected error for malformed payload")
	}
}

func TestNew_RequiresAddr(t *testing.T) {
	if _, err := redisbus.New("  ", "", nil); err == nil {
		t.Error("expected error for empty addr")
	}
}

func TestNilBus(t *testing.T) {
	var b *redisbus.Bus
	if err := b.Publish(context.Background(), domain.Notification{UserID: "u"}); err == nil {
		t.Error("Publish on nil bus should fail")
	}
	if err := b.Close(); err != nil {
		t.Errorf("Close on nil bus: %v", err)
	}
}
