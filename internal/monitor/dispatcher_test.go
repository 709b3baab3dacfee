package monitor

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/AndreaCasaluci/train-scraper/internal/config"
	"github.com/AndreaCasaluci/train-scraper/internal/trenitalia"
)

type fakeSearch struct {
	mu    sync.Mutex
	calls int
	fn    func(req trenitalia.SearchRequest) (*trenitalia.SearchResponse, error)
}

func (f *fakeSearch) Search(ctx context.Context, req trenitalia.SearchRequest) (*trenitalia.SearchResponse, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.fn(req)
}

type sentMail struct {
	to, subject, text, html string
}

type fakeMail struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (f *fakeMail) Send(ctx context.Context, to, subject, text, html string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{to: to, subject: subject, text: text, html: html})
	return nil
}

func (f *fakeMail) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func jobConfig(dates, categories, denominations, recipients []string) func() *config.Config {
	cfg := &config.Config{
		Job: config.JobConfig{
			Dates:         dates,
			Categories:    categories,
			Denominations: denominations,
			Recipients:    recipients,
		},
	}
	return func() *config.Config { return cfg }
}

func frecciaResponse() *trenitalia.SearchResponse {
	return &trenitalia.SearchResponse{
		Solutions: []trenitalia.TicketSolution{
			solution("a", train("Frecciarossa 100", "FR", "Frecciarossa")),
			solution("b", train("Regionale 4021", "REG", "Regionale")),
		},
	}
}

func TestRunSendsOnceThenStaysQuiet(t *testing.T) {
	t.Parallel()

	search := &fakeSearch{fn: func(req trenitalia.SearchRequest) (*trenitalia.SearchResponse, error) {
		return frecciaResponse(), nil
	}}
	mail := &fakeMail{}
	d := NewDispatcher(Options{
		Config: jobConfig([]string{"2024-06-01"}, []string{"FR"}, []string{"x"}, []string{"a@x.com"}),
		Search: search,
		Mail:   mail,
		Seen:   NewMemorySeen(),
	})

	report, err := d.Run(context.Background())
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if report.Sent != 1 {
		t.Fatalf("first run sent %d mails, want 1", report.Sent)
	}
	if mail.count() != 1 {
		t.Fatalf("mail sends = %d, want 1", mail.count())
	}
	if got := mail.sent[0]; got.to != "a@x.com" ||
		got.subject != MailSubject ||
		!strings.Contains(got.html, "Frecciarossa 100") ||
		strings.Contains(got.html, "Regionale 4021") {
		t.Fatalf("unexpected mail: %+v", got)
	}

	// Identical second run: nothing new, no mail.
	report, err = d.Run(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if report.Sent != 0 || mail.count() != 1 {
		t.Fatalf("second run sent %d mails (total %d), want no new mail", report.Sent, mail.count())
	}
}

func TestRunIsolatesDateFailures(t *testing.T) {
	t.Parallel()

	search := &fakeSearch{fn: func(req trenitalia.SearchRequest) (*trenitalia.SearchResponse, error) {
		if req.DepartureTime == "2024-06-02" {
			return nil, errors.New("upstream 500")
		}
		return frecciaResponse(), nil
	}}
	mail := &fakeMail{}
	d := NewDispatcher(Options{
		Config: jobConfig([]string{"2024-06-02", "2024-06-03"}, []string{"FR"}, []string{"x"}, []string{"a@x.com"}),
		Search: search,
		Mail:   mail,
		Seen:   NewMemorySeen(),
	})

	report, err := d.Run(context.Background())
	if err != nil {
		t.Fatalf("run must not fail on a per-date fetch error: %v", err)
	}
	if report.FetchFails != 1 {
		t.Fatalf("fetch fails = %d, want 1", report.FetchFails)
	}
	if mail.count() != 1 {
		t.Fatalf("mail sends = %d, want 1", mail.count())
	}
	if !strings.Contains(mail.sent[0].html, "2024-06-03") {
		t.Fatal("mail must contain content for the date that succeeded")
	}
	if strings.Contains(mail.sent[0].html, "For Date: 2024-06-02") {
		t.Fatal("mail must not contain content for the failed date")
	}
}

func TestDeliveryFailureKeepsEntriesRecorded(t *testing.T) {
	t.Parallel()

	search := &fakeSearch{fn: func(req trenitalia.SearchRequest) (*trenitalia.SearchResponse, error) {
		return frecciaResponse(), nil
	}}
	mail := &fakeMail{err: errors.New("smtp unavailable")}
	seen := NewMemorySeen()
	d := NewDispatcher(Options{
		Config: jobConfig([]string{"2024-06-01"}, []string{"FR"}, []string{"x"}, []string{"a@x.com"}),
		Search: search,
		Mail:   mail,
		Seen:   seen,
	})

	report, err := d.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.SendFails != 1 || report.Sent != 0 {
		t.Fatalf("report = %+v, want one send failure", report)
	}

	// The failed send does not roll back the cache: the next run with the
	// same data must not retry.
	mail.err = nil
	report, err = d.Run(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if report.Sent != 0 || mail.count() != 0 {
		t.Fatal("journeys marked as notified must not be re-sent after a delivery failure")
	}
}

func TestRunIncompleteConfig(t *testing.T) {
	t.Parallel()

	search := &fakeSearch{fn: func(req trenitalia.SearchRequest) (*trenitalia.SearchResponse, error) {
		return frecciaResponse(), nil
	}}
	mail := &fakeMail{}
	d := NewDispatcher(Options{
		Config: jobConfig([]string{"2024-06-01"}, nil, []string{"x"}, []string{"a@x.com"}),
		Search: search,
		Mail:   mail,
		Seen:   NewMemorySeen(),
	})

	_, err := d.Run(context.Background())
	if !errors.Is(err, ErrConfigIncomplete) {
		t.Fatalf("err = %v, want ErrConfigIncomplete", err)
	}
	if search.calls != 0 || mail.count() != 0 {
		t.Fatal("incomplete config must abort before any fetch or send")
	}
}

func TestRunOverlapGuard(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	entered := make(chan struct{})
	var once sync.Once
	search := &fakeSearch{fn: func(req trenitalia.SearchRequest) (*trenitalia.SearchResponse, error) {
		once.Do(func() { close(entered) })
		<-release
		return frecciaResponse(), nil
	}}
	mail := &fakeMail{}
	d := NewDispatcher(Options{
		Config: jobConfig([]string{"2024-06-01"}, []string{"FR"}, []string{"x"}, []string{"a@x.com"}),
		Search: search,
		Mail:   mail,
		Seen:   NewMemorySeen(),
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = d.Run(context.Background())
	}()

	<-entered
	if !d.Running() {
		t.Fatal("Running() = false during an in-flight run")
	}
	if _, err := d.Run(context.Background()); !errors.Is(err, ErrRunInProgress) {
		t.Fatalf("overlapping run: err = %v, want ErrRunInProgress", err)
	}

	close(release)
	<-done
	if d.Running() {
		t.Fatal("Running() = true after the run finished")
	}
}

type fakeAudit struct {
	mu   sync.Mutex
	recs []AuditRecord
}

func (f *fakeAudit) RecordNotification(ctx context.Context, rec AuditRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recs = append(f.recs, rec)
	return nil
}

func TestRunWritesAuditTrail(t *testing.T) {
	t.Parallel()

	search := &fakeSearch{fn: func(req trenitalia.SearchRequest) (*trenitalia.SearchResponse, error) {
		return frecciaResponse(), nil
	}}
	audit := &fakeAudit{}
	d := NewDispatcher(Options{
		Config: jobConfig([]string{"2024-06-01"}, []string{"FR"}, []string{"x"}, []string{"a@x.com"}),
		Search: search,
		Mail:   &fakeMail{},
		Seen:   NewMemorySeen(),
		Audit:  audit,
	})

	if _, err := d.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	audit.mu.Lock()
	defer audit.mu.Unlock()
	if len(audit.recs) != 1 {
		t.Fatalf("audit records = %d, want 1", len(audit.recs))
	}
	rec := audit.recs[0]
	if rec.Recipient != "a@x.com" || !rec.Delivered ||
		len(rec.TrainNames) != 1 || rec.TrainNames[0] != "Frecciarossa 100" {
		t.Fatalf("unexpected audit record: %+v", rec)
	}
}
