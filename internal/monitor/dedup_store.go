package monitor

import (
	"context"
	"time"

	"github.com/AndreaCasaluci/train-scraper/internal/trenitalia"
	logx "github.com/AndreaCasaluci/train-scraper/pkg/logx"
)

// SeenBackend is the slice of the persistence layer the deduplicator
// needs. Satisfied by store.Store.
type SeenBackend interface {
	WasSeen(ctx context.Context, key, name string) (bool, error)
	MarkSeen(ctx context.Context, key, date string, names []string) error
	PruneSeenBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

const backendOpTimeout = 5 * time.Second

// PersistentSeen is a SeenStore over a durable backend. A read failure
// suppresses the journey (treated as already seen) rather than risking a
// duplicate notification: the system promises at-most-once "marked as
// notified", never at-least-once delivery.
type PersistentSeen struct {
	backend SeenBackend
	log     logx.Logger
}

func NewPersistentSeen(backend SeenBackend, log logx.Logger) *PersistentSeen {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &PersistentSeen{backend: backend, log: log}
}

func (s *PersistentSeen) NewFor(recipient, date string, solutions []trenitalia.TicketSolution) []trenitalia.TicketSolution {
	ctx, cancel := context.WithTimeout(context.Background(), backendOpTimeout)
	defer cancel()

	key := cacheKey(recipient, date)
	out := make([]trenitalia.TicketSolution, 0, len(solutions))
	for _, sol := range solutions {
		seen, err := s.backend.WasSeen(ctx, key, sol.LeadTrainName())
		if err != nil {
			s.log.Warn("seen lookup failed; suppressing journey",
				logx.String("key", key),
				logx.String("train", sol.LeadTrainName()),
				logx.Err(err),
			)
			continue
		}
		if !seen {
			out = append(out, sol)
		}
	}
	return out
}

func (s *PersistentSeen) Record(recipient, date string, solutions []trenitalia.TicketSolution) {
	if len(solutions) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), backendOpTimeout)
	defer cancel()

	names := make([]string, 0, len(solutions))
	for _, sol := range solutions {
		names = append(names, sol.LeadTrainName())
	}
	if err := s.backend.MarkSeen(ctx, cacheKey(recipient, date), date, names); err != nil {
		s.log.Error("seen record failed", logx.String("recipient", recipient), logx.String("date", date), logx.Err(err))
	}
}

func (s *PersistentSeen) PrunePast(cutoff time.Time) int {
	ctx, cancel := context.WithTimeout(context.Background(), backendOpTimeout)
	defer cancel()

	n, err := s.backend.PruneSeenBefore(ctx, cutoff)
	if err != nil {
		s.log.Warn("seen prune failed", logx.Err(err))
		return 0
	}
	return int(n)
}
