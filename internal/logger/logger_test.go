package logger

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSanitizeKVs(t *testing.T) {
	got := sanitizeKVs([]interface{}{
		"state", "abc",
		"access_token", "ya29.secret",
		"code", "4/0Ab",
		"client_secret", "shh",
		"chars", 120,
		"dangling",
	})
	want := []interface{}{
		"state", "[REDACTED]",
		"access_token", "[REDACTED]",
		"code", "[REDACTED]",
		"client_secret", "[REDACTED]",
		"chars", 120,
		"dangling",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("sanitizeKVs mismatch (-want +got):\n%s", diff)
	}
}

func TestNopLogger(t *testing.T) {
	log := Nop().With("service", "test")
	log.Info("hello", "token", "x")
	log.Sync()
}
