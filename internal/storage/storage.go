package storage

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Package storage keeps the latest fetched collection per endpoint for later inspection.
// It is an archive of fetch outcomes; nothing reads it to answer a fetch.

// Snapshot is one successful fetch of an endpoint's collection.
type Snapshot struct {
	EndpointID string          `json:"endpoint_id"`
	Kind       string          `json:"kind"`
	Count      int             `json:"count"`
	Revision   uint64          `json:"revision"`
	Items      json.RawMessage `json:"items"`
	FetchedAt  time.Time       `json:"fetched_at"`
}

// Store persists snapshots keyed by endpoint id.
type Store interface {
	Close() error
	SaveSnapshot(snap Snapshot) error
	LatestSnapshot(endpointID string) (Snapshot, bool, error)
}

// Options controls retention characteristics for concrete store implementations.
type Options struct {
	SnapshotTTL     time.Duration
	CleanupInterval time.Duration
}

const (
	defaultSnapshotTTL     = 7 * 24 * time.Hour
	defaultCleanupInterval = 6 * time.Hour
)

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return noopStore{}, nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(path, opts)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.SnapshotTTL <= 0 {
		opts.SnapshotTTL = defaultSnapshotTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

type noopStore struct{}

func (noopStore) Close() error                                  { return nil }
func (noopStore) SaveSnapshot(Snapshot) error                   { return nil }
func (noopStore) LatestSnapshot(string) (Snapshot, bool, error) { return Snapshot{}, false, nil }
