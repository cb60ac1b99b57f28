// Package cache stores JSON:API payloads fetched from catalogue providers
// under composite keys, and decides when a stored payload has gone stale
// relative to its provider's index.
package cache

import (
	"context"
	"encoding/json"
	"time"
)

// Entry represents a stored payload with its last write time
type Entry struct {
	Body    json.RawMessage
	Updated time.Time
}

// Reader defines the interface for reading stored entries
type Reader interface {
	// Read returns the entry for key and true, or false if the key was never written
	Read(ctx context.Context, key string) (*Entry, bool, error)
}

// Writer defines the interface for writing entries
type Writer interface {
	// Write stores entry under key, replacing any previous entry.
	// A zero Updated is stamped with the current time.
	Write(ctx context.Context, key string, entry *Entry) error
}

// Store combines both operations. Implementations are namespaced: one Store
// holds the entries of one logical collection.
type Store interface {
	Reader
	Writer
}

// Fetcher retrieves the raw body behind an endpoint. It never fails: on
// transport errors it returns the error response body, or nothing.
type Fetcher interface {
	Fetch(ctx context.Context, endpoint string) []byte
}
