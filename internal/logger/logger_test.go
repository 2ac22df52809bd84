package logger

import (
	"strings"
	"testing"
)

func TestNew_Modes(t *testing.T) {
	for _, mode := range []string{"dev", "prod", ""} {
		l, err := New(mode, "debug")
		if err != nil {
			t.Fatalf("New(%q) error: %v", mode, err)
		}
		l.Info("ok", "k", "v")
	}
}

func TestNew_BadLevel(t *testing.T) {
	if _, err := New("dev", "loud"); err == nil {
		t.Error("New() with unknown level should fail")
	}
}

func TestSanitize(t *testing.T) {
	l := &Logger{redact: true}
	out := l.sanitize([]interface{}{"user_id", "u-123", "jwt_token", "abc", "stat", "strength", "dangling"})

	if got := out[1].(string); !strings.HasPrefix(got, "hash:") || got == "u-123" {
		t.Errorf("user_id not hashed: %v", got)
	}
	if out[3] != "[REDACTED]" {
		t.Errorf("token not redacted: %v", out[3])
	}
	if out[5] != "strength" {
		t.Errorf("plain value changed: %v", out[5])
	}
	if len(out) != 7 || out[6] != "dangling" {
		t.Errorf("odd trailing key dropped: %v", out)
	}
}

func TestHashID_Stable(t *testing.T) {
	if HashID("a") != HashID("a") {
		t.Error("HashID must be deterministic")
	}
	if HashID("a") == HashID("b") {
		t.Error("different ids should hash differently")
	}
	if HashID("") != "" {
		t.Error("empty id hashes to empty")
	}
}

func TestNop(t *testing.T) {
	l := Nop()
	l.Debug("x")
	l.With("user_id", "u").Warn("y")
}
