// Package scheduler triggers named jobs on a recurring schedule.
//
// A schedule is either a standard five-field cron spec or a Go duration
// ("10s" becomes "@every 10s"). Jobs run with a skip-if-running overlap
// policy: a trigger that fires while the previous invocation of the same
// job is still executing is dropped, not queued.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	logx "github.com/AndreaCasaluci/train-scraper/pkg/logx"
)

type jobDef struct {
	name    string
	spec    string
	run     func(ctx context.Context) error
	entryID cron.EntryID
	state   *runState
}

type runState struct {
	mu      sync.Mutex
	running bool
}

type Service struct {
	mu sync.Mutex

	log    logx.Logger
	parser cron.Parser
	c      *cron.Cron
	defs   map[string]*jobDef

	runCtx    context.Context
	runCancel context.CancelFunc
}

func New(log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{
		log:    log,
		parser: cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
		defs:   map[string]*jobDef{},
	}
}

// NormalizeSpec accepts a cron spec or a Go duration and returns a spec
// the cron parser understands.
func NormalizeSpec(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", errors.New("scheduler: empty schedule")
	}
	if d, err := time.ParseDuration(s); err == nil {
		if d <= 0 {
			return "", fmt.Errorf("scheduler: interval must be > 0, got %q", raw)
		}
		return "@every " + d.String(), nil
	}
	return s, nil
}

// ValidateSpec reports whether raw is an acceptable schedule.
func ValidateSpec(raw string) error {
	norm, err := NormalizeSpec(raw)
	if err != nil {
		return err
	}
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(norm); err != nil {
		return fmt.Errorf("scheduler: invalid spec %q: %w", raw, err)
	}
	return nil
}

func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c != nil {
		return
	}
	s.runCtx, s.runCancel = context.WithCancel(ctx)
	s.c = cron.New(cron.WithParser(s.parser))
	for _, d := range s.defs {
		_ = s.addLocked(d)
	}
	s.c.Start()
	s.log.Info("scheduler started", logx.Int("jobs", len(s.defs)))
}

func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c == nil {
		return
	}
	<-s.c.Stop().Done()
	s.c = nil
	if s.runCancel != nil {
		s.runCancel()
		s.runCancel = nil
	}
	s.log.Info("scheduler stopped")
}

// Add registers a named job. The spec may be a cron spec or a duration.
// Adding before Start is allowed; the job is registered on Start.
func (s *Service) Add(name, spec string, run func(ctx context.Context) error) error {
	norm, err := NormalizeSpec(spec)
	if err != nil {
		return err
	}
	if _, err := s.parser.Parse(norm); err != nil {
		return fmt.Errorf("scheduler: invalid spec %q: %w", spec, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	d := &jobDef{name: name, spec: norm, run: run, state: &runState{}}
	s.defs[name] = d
	if s.c != nil {
		return s.addLocked(d)
	}
	return nil
}

// Reschedule swaps the spec of a registered job. No-op when the spec is
// unchanged. Used by the config hot-reload path.
func (s *Service) Reschedule(name, spec string) error {
	norm, err := NormalizeSpec(spec)
	if err != nil {
		return err
	}
	if _, err := s.parser.Parse(norm); err != nil {
		return fmt.Errorf("scheduler: invalid spec %q: %w", spec, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.defs[name]
	if !ok {
		return fmt.Errorf("scheduler: unknown job %q", name)
	}
	if d.spec == norm {
		return nil
	}
	d.spec = norm
	if s.c != nil {
		s.c.Remove(d.entryID)
		if err := s.addLocked(d); err != nil {
			return err
		}
	}
	s.log.Info("job rescheduled", logx.String("job", name), logx.String("spec", norm))
	return nil
}

func (s *Service) addLocked(d *jobDef) error {
	id, err := s.c.AddFunc(d.spec, func() { s.execOne(d) })
	if err != nil {
		return err
	}
	d.entryID = id
	return nil
}

func (s *Service) execOne(d *jobDef) {
	d.state.mu.Lock()
	if d.state.running {
		d.state.mu.Unlock()
		s.log.Debug("job still running, skipping trigger", logx.String("job", d.name))
		return
	}
	d.state.running = true
	d.state.mu.Unlock()

	defer func() {
		d.state.mu.Lock()
		d.state.running = false
		d.state.mu.Unlock()
	}()

	s.mu.Lock()
	ctx := s.runCtx
	s.mu.Unlock()
	if ctx == nil {
		return
	}

	start := time.Now()
	if err := d.run(ctx); err != nil {
		s.log.Warn("job failed",
			logx.String("job", d.name),
			logx.Duration("took", time.Since(start)),
			logx.Err(err),
		)
		return
	}
	s.log.Debug("job ok", logx.String("job", d.name), logx.Duration("took", time.Since(start)))
}
