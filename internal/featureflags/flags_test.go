package featureflags

import (
	"bytes"
	"log/slog"
	"os"
	"strings"
	"testing"
)

func TestFromProcessEnv(t *testing.T) {
	for v, want := range map[string]bool{"": false, "0": false, "false": false, "TRUE": true, "yes": true, " on ": true, "1": true} {
		t.Setenv("FLAG_ENFORCE_TRAINER_ROLE", v)
		if got := FromEnv(os.LookupEnv).Enabled(EnforceTrainerRole); got != want {
			t.Errorf("%q: got %v want %v", v, got, want)
		}
	}
}

func TestFromEnv(t *testing.T) {
	env := map[string]string{"FLAG_ENFORCE_TRAINER_ROLE": "yes", "FLAG_UNKNOWN": "1"}
	set := FromEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})

	if !set.Enabled(EnforceTrainerRole) {
		t.Fatal("expected enforce_trainer_role on")
	}
	if len(set) != len(Known) {
		t.Fatalf("unknown flags leaked into set: %v", set)
	}

	off := FromEnv(func(string) (string, bool) { return "", false })
	if off.Enabled(EnforceTrainerRole) {
		t.Fatal("expected flag off when unset")
	}
}

func TestSetLogValue(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	logger.Info("flags", slog.Any("flags", Set{EnforceTrainerRole: true}))

	if !strings.Contains(buf.String(), "flags.enforce_trainer_role=true") {
		t.Fatalf("unexpected log line %q", buf.String())
	}
}
