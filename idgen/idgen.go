// Package idgen produces the identifiers carried by placement jobs and the
// events they emit.
//
// The bot and its sinks take a Generator rather than calling uuid directly,
// so tests can pin ids and deployments can pick a shorter scheme.
package idgen

import (
	"fmt"

	"github.com/google/uuid"
)

// Generator produces unique string identifiers.
type Generator func() string

// UUIDv7 returns a Generator that produces RFC 9562 UUID v7 strings.
// They sort by creation time, which keeps journal rows in placement order.
func UUIDv7() Generator {
	return func() string {
		return uuid.Must(uuid.NewV7()).String()
	}
}

// Prefixed wraps a Generator and prepends a fixed prefix to every ID
// (e.g. "job_", "evt_").
func Prefixed(prefix string, gen Generator) Generator {
	return func() string {
		return prefix + gen()
	}
}

// Sequence returns a deterministic Generator yielding prefix-1, prefix-2, ...
// It is meant for tests and dry runs.
func Sequence(prefix string) Generator {
	var n int
	return func() string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

// Default is UUIDv7.
var Default Generator = UUIDv7()

// Parse validates a UUID string, optionally carrying a "job_" or "evt_"
// prefix, and returns it unchanged.
func Parse(s string) (string, error) {
	raw := s
	for _, p := range []string{"job_", "evt_"} {
		if len(raw) > len(p) && raw[:len(p)] == p {
			raw = raw[len(p):]
			break
		}
	}
	if _, err := uuid.Parse(raw); err != nil {
		return "", fmt.Errorf("idgen: invalid id %q: %w", s, err)
	}
	return s, nil
}
