// Package idgen generates short, URL-safe correlation ids backed by nanoid.
// Database rows use server-assigned UUIDs; these ids only tag requests and
// snapshot runs in logs and response headers.
package idgen

import (
	"fmt"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// Prefixes for the kinds of ids the service hands out.
const (
	RequestPrefix  = "req-"
	SnapshotPrefix = "snap-"
)

const (
	alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	length   = 12
)

// RequestID returns a new id for an inbound HTTP request.
func RequestID() string {
	return mustGenerate(RequestPrefix)
}

// SnapshotID returns a new id for one snapshot export run.
func SnapshotID() string {
	return mustGenerate(SnapshotPrefix)
}

// Generate returns prefix followed by random characters from the id alphabet.
func Generate(prefix string) (string, error) {
	id, err := nanoid.Generate(alphabet, length)
	if err != nil {
		return "", fmt.Errorf("idgen: %w", err)
	}
	return prefix + id, nil
}

// mustGenerate falls back to an all-zero suffix if the random source fails,
// so logging never blocks a request.
func mustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		return prefix + "000000000000"
	}
	return id
}
