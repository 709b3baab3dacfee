package monitor

import (
	"sync"
	"time"

	"github.com/AndreaCasaluci/train-scraper/internal/trenitalia"
)

// SeenStore remembers which journeys were already reported to a recipient
// for a date. The identity of a journey is its lead segment name; the key
// is the recipient and date joined with "-", exactly as configured (no
// case or whitespace normalization beyond the trimming done at config
// load).
//
// NewFor and Record are split on purpose: content is composed from NewFor
// output, Record runs once the content is included in an outgoing
// notification, and a later delivery failure does not roll the entries
// back (at-most-once "marked as notified").
type SeenStore interface {
	// NewFor returns the subset of solutions not yet recorded for
	// (recipient, date). It does not mutate the store.
	NewFor(recipient, date string, solutions []trenitalia.TicketSolution) []trenitalia.TicketSolution

	// Record adds the lead segment name of every solution to the entry for
	// (recipient, date), creating the entry if absent.
	Record(recipient, date string, solutions []trenitalia.TicketSolution)

	// PrunePast drops entries whose date is strictly before the cutoff
	// day. Entries with unparsable dates are never pruned. Returns the
	// number of entries removed.
	PrunePast(cutoff time.Time) int
}

func cacheKey(recipient, date string) string { return recipient + "-" + date }

type memoryEntry struct {
	date  string
	names map[string]struct{}
}

// MemorySeen is the default in-process SeenStore: a mutex-guarded
// map-of-sets. Entries live until pruned or process restart.
type MemorySeen struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
}

func NewMemorySeen() *MemorySeen {
	return &MemorySeen{entries: make(map[string]*memoryEntry)}
}

func (s *MemorySeen) NewFor(recipient, date string, solutions []trenitalia.TicketSolution) []trenitalia.TicketSolution {
	s.mu.Lock()
	defer s.mu.Unlock()

	ent := s.entries[cacheKey(recipient, date)]
	out := make([]trenitalia.TicketSolution, 0, len(solutions))
	for _, sol := range solutions {
		if ent != nil {
			if _, seen := ent.names[sol.LeadTrainName()]; seen {
				continue
			}
		}
		out = append(out, sol)
	}
	return out
}

func (s *MemorySeen) Record(recipient, date string, solutions []trenitalia.TicketSolution) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := cacheKey(recipient, date)
	ent := s.entries[key]
	if ent == nil {
		ent = &memoryEntry{date: date, names: make(map[string]struct{})}
		s.entries[key] = ent
	}
	for _, sol := range solutions {
		ent.names[sol.LeadTrainName()] = struct{}{}
	}
}

func (s *MemorySeen) PrunePast(cutoff time.Time) int {
	// Entry dates are calendar days with no zone, so the boundary must be
	// the cutoff's own calendar day. Truncating to UTC midnight would drop
	// the current day's entries during the evening in zones behind UTC and
	// re-notify journeys already reported.
	day := cutoff.Format("2006-01-02")

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, ent := range s.entries {
		d, ok := parseDay(ent.date)
		if !ok {
			continue
		}
		if d < day {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}

// Len reports the number of (recipient, date) entries. Used by /api/status.
func (s *MemorySeen) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

var dayFormats = []string{"2006-01-02", time.RFC3339, "02/01/2006"}

// parseDay normalizes an entry date to its ISO calendar day. Lexicographic
// compare on the result matches chronological order, the same trick the
// sqlite backend uses.
func parseDay(raw string) (string, bool) {
	for _, f := range dayFormats {
		if t, err := time.Parse(f, raw); err == nil {
			return t.Format("2006-01-02"), true
		}
	}
	return "", false
}
