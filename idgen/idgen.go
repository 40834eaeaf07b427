// Package idgen provides pluggable ID generation. Constructors accept
// a Generator, making the ID strategy a startup-time decision.
package idgen

import "github.com/google/uuid"

// Generator produces unique string identifiers.
type Generator func() string

// UUIDv7 returns a Generator producing RFC 9562 UUID v7 strings:
// time-sortable and globally unique.
func UUIDv7() Generator {
	return func() string {
		id, err := uuid.NewV7()
		if err != nil {
			// NewV7 fails only when the entropy source does; fall back
			// to v4 via the same source rather than returning "".
			return uuid.NewString()
		}
		return id.String()
	}
}

// Prefixed wraps a Generator, prepending a fixed prefix (e.g. "rev_").
func Prefixed(prefix string, gen Generator) Generator {
	return func() string { return prefix + gen() }
}

// Default is the ecosystem-wide default strategy.
var Default Generator = UUIDv7()

// New generates one ID with the default strategy.
func New() string { return Default() }
