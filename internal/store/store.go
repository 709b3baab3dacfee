// Package store provides the optional persistence layer: a durable
// seen-journeys set and an audit trail of outgoing notifications.
//
// The monitor runs fine without it (in-memory dedup only); a configured
// store survives restarts and gives per-key-atomic seen semantics.
package store

import (
	"context"
	"errors"
	"strings"
	"time"

	logx "github.com/AndreaCasaluci/train-scraper/pkg/logx"
)

var ErrDisabled = errors.New("storage disabled")

// Config configures storage.
//
// Driver values:
//   - "" or "none": disabled
//   - "sqlite": SQLite database file (build with -tags sqlite)
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// NotificationEntry is one audit row. Keep it compact and schema-stable.
type NotificationEntry struct {
	RunID      string
	Recipient  string
	Dates      []string
	TrainNames []string
	SentAt     time.Time
	Delivered  bool
	Error      string
}

// Store is the persistence API used by the monitor.
type Store interface {
	// WasSeen reports whether name was recorded under key.
	WasSeen(ctx context.Context, key, name string) (bool, error)

	// MarkSeen records names under key. date is kept alongside for pruning.
	MarkSeen(ctx context.Context, key, date string, names []string) error

	// PruneSeenBefore removes seen rows whose date is before the cutoff
	// day. Rows with non-ISO dates are kept.
	PruneSeenBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// AppendNotification appends one audit row.
	AppendNotification(ctx context.Context, e NotificationEntry) error

	Close() error
}

// Open initializes the configured store.
// It returns (nil, nil) if storage is disabled.
func Open(cfg Config, log logx.Logger) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" || driver == "none" {
		return nil, nil
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	switch driver {
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	default:
		return nil, errors.New("unknown storage driver: " + driver)
	}
}
