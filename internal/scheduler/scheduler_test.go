package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	logx "github.com/AndreaCasaluci/train-scraper/pkg/logx"
)

func testLogger() logx.Logger { return logx.Nop() }

func TestNormalizeSpec(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "duration", in: "10s", want: "@every 10s"},
		{name: "duration with space", in: " 1m30s ", want: "@every 1m30s"},
		{name: "cron passthrough", in: "*/5 * * * *", want: "*/5 * * * *"},
		{name: "descriptor passthrough", in: "@hourly", want: "@hourly"},
		{name: "empty", in: "", wantErr: true},
		{name: "blank", in: "   ", wantErr: true},
		{name: "zero duration", in: "0s", wantErr: true},
		{name: "negative duration", in: "-5s", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := NormalizeSpec(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("NormalizeSpec(%q) = %q, want error", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("NormalizeSpec(%q): %v", tt.in, err)
			}
			if got != tt.want {
				t.Fatalf("NormalizeSpec(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestValidateSpec(t *testing.T) {
	t.Parallel()

	for _, ok := range []string{"10s", "*/2 * * * *", "@every 30s", "@daily"} {
		if err := ValidateSpec(ok); err != nil {
			t.Errorf("ValidateSpec(%q): %v", ok, err)
		}
	}
	for _, bad := range []string{"", "not-a-spec", "* * *", "61 * * * *"} {
		if err := ValidateSpec(bad); err == nil {
			t.Errorf("ValidateSpec(%q) accepted invalid spec", bad)
		}
	}
}

func TestAddRejectsInvalidSpec(t *testing.T) {
	t.Parallel()

	s := New(testLogger())
	err := s.Add("job", "nope", func(ctx context.Context) error { return nil })
	if err == nil {
		t.Fatal("invalid spec must be rejected")
	}
}

func TestRescheduleUnknownJob(t *testing.T) {
	t.Parallel()

	s := New(testLogger())
	if err := s.Reschedule("missing", "10s"); err == nil {
		t.Fatal("rescheduling an unregistered job must fail")
	}
}

func TestJobRunsAndOverlapIsSkipped(t *testing.T) {
	t.Parallel()

	s := New(testLogger())

	var (
		mu     sync.Mutex
		active int
		peak   int
		runs   int
	)
	release := make(chan struct{})
	started := make(chan struct{}, 1)

	err := s.Add("slow", "1s", func(ctx context.Context) error {
		mu.Lock()
		active++
		runs++
		if active > peak {
			peak = active
		}
		mu.Unlock()
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
		mu.Lock()
		active--
		mu.Unlock()
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	s.Start(context.Background())
	defer s.Stop()

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("job never started")
	}

	// the first run is still blocked, so subsequent triggers must be dropped
	time.Sleep(2500 * time.Millisecond)
	close(release)

	mu.Lock()
	defer mu.Unlock()
	if peak != 1 {
		t.Fatalf("peak concurrent runs = %d, want 1", peak)
	}
	if runs != 1 {
		t.Fatalf("runs = %d, want 1 while trigger was blocked", runs)
	}
}
