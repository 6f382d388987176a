// Package featureflags reads FLAG_<NAME> toggles from the environment.
package featureflags

import (
	"log/slog"
	"strings"
)

// Flag names a toggle; its variable is FLAG_ followed by the upper-cased name
type Flag string

// EnforceTrainerRole rejects session teachers whose role is not trainer
const EnforceTrainerRole Flag = "enforce_trainer_role"

// Known lists the flags the server reads at startup
var Known = []Flag{EnforceTrainerRole}

func (f Flag) envKey() string {
	return "FLAG_" + strings.ToUpper(string(f))
}

// Set holds the resolved state of the known flags
type Set map[Flag]bool

// FromEnv resolves every known flag through lookup, usually os.LookupEnv.
// Unset or unrecognised values leave a flag off.
func FromEnv(lookup func(string) (string, bool)) Set {
	set := make(Set, len(Known))
	for _, f := range Known {
		v, _ := lookup(f.envKey())
		set[f] = truthy(v)
	}
	return set
}

// Enabled reports whether f is on
func (s Set) Enabled(f Flag) bool {
	return s[f]
}

// LogValue renders the set as a group of name=bool attributes
func (s Set) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(Known))
	for _, f := range Known {
		attrs = append(attrs, slog.Bool(string(f), s[f]))
	}
	return slog.GroupValue(attrs...)
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
