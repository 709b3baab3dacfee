// Package supervisor manages named goroutines tied to a shared context,
// with panic recovery and timeout-aware graceful stop.
package supervisor

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	logx "github.com/AndreaCasaluci/train-scraper/pkg/logx"
)

type Supervisor struct {
	ctx    context.Context
	cancel context.CancelFunc
	log    logx.Logger
	wg     sync.WaitGroup
}

func New(parent context.Context, log logx.Logger) *Supervisor {
	if log.IsZero() {
		log = logx.Nop()
	}
	ctx, cancel := context.WithCancel(parent)
	return &Supervisor{ctx: ctx, cancel: cancel, log: log}
}

func (s *Supervisor) Context() context.Context { return s.ctx }

// Go starts a named goroutine. Panics are recovered and logged with a
// stack; a returned error is logged unless the context was canceled.
func (s *Supervisor) Go(name string, fn func(ctx context.Context) error) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				s.log.Error("goroutine panicked",
					logx.String("goroutine", name),
					logx.Any("panic", r),
					logx.String("stack", string(debug.Stack())),
				)
			}
		}()

		start := time.Now()
		err := fn(s.ctx)
		if err != nil && s.ctx.Err() == nil {
			s.log.Warn("goroutine exited with error",
				logx.String("goroutine", name),
				logx.Duration("ran", time.Since(start)),
				logx.Err(err),
			)
			return
		}
		s.log.Debug("goroutine exited", logx.String("goroutine", name), logx.Duration("ran", time.Since(start)))
	}()
}

// Stop cancels the shared context and waits for all goroutines, up to the
// timeout (0 waits forever).
func (s *Supervisor) Stop(timeout time.Duration) error {
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	if timeout <= 0 {
		<-done
		return nil
	}
	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("supervisor: goroutines still running after %s", timeout)
	}
}
