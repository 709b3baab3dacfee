package monitor

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/AndreaCasaluci/train-scraper/internal/config"
	"github.com/AndreaCasaluci/train-scraper/internal/trenitalia"
	logx "github.com/AndreaCasaluci/train-scraper/pkg/logx"
)

// MailSubject is the subject line of every availability notification.
const MailSubject = "Available Trains Found"

var (
	// ErrRunInProgress is returned when a trigger fires while a previous
	// run is still executing. Runs are serialized: the new trigger is
	// skipped, never queued.
	ErrRunInProgress = errors.New("monitor: run already in progress")

	// ErrConfigIncomplete is returned when any of the four required lists
	// (dates, categories, denominations, recipients) is empty. The run
	// does no work and contacts nobody.
	ErrConfigIncomplete = errors.New("monitor: missing configuration data")
)

// Searcher is the external journey source.
type Searcher interface {
	Search(ctx context.Context, req trenitalia.SearchRequest) (*trenitalia.SearchResponse, error)
}

// MailSender delivers one composed message. Failures are logged and
// swallowed by the dispatcher; there is no retry and no cache rollback.
type MailSender interface {
	Send(ctx context.Context, to, subject, text, html string) error
}

// Announcer is an optional secondary channel that receives a short run
// summary whenever at least one notification went out.
type Announcer interface {
	Announce(ctx context.Context, text string) error
}

// AuditRecord describes one outgoing notification for the audit trail.
type AuditRecord struct {
	RunID      string
	Recipient  string
	Dates      []string
	TrainNames []string
	SentAt     time.Time
	Delivered  bool
	Error      string
}

// Auditor persists audit records. Best-effort: failures are logged only.
type Auditor interface {
	RecordNotification(ctx context.Context, rec AuditRecord) error
}

// RunReport summarizes one completed (or skipped) run.
type RunReport struct {
	RunID      string        `json:"run_id"`
	Started    time.Time     `json:"started"`
	Duration   time.Duration `json:"duration"`
	Recipients int           `json:"recipients"`
	Dates      int           `json:"dates"`
	Sent       int           `json:"sent"`
	FetchFails int           `json:"fetch_fails"`
	SendFails  int           `json:"send_fails"`
	Pruned     int           `json:"pruned"`
}

// Options wires a Dispatcher. Config, Search, Mail, Seen and Log are
// required; Announce and Audit may be nil.
type Options struct {
	Config      func() *config.Config
	Search      Searcher
	Mail        MailSender
	Announce    Announcer
	Seen        SeenStore
	Audit       Auditor
	Log         logx.Logger
	HistorySize int
}

// Dispatcher runs the recipients × dates check. One run at a time: the
// shared seen-store is only ever touched by a single run, which closes the
// read/record race an overlapping trigger would otherwise open.
type Dispatcher struct {
	opts    Options
	running atomic.Bool

	hmu     sync.Mutex
	history []RunReport
}

func NewDispatcher(opts Options) *Dispatcher {
	if opts.Log.IsZero() {
		opts.Log = logx.Nop()
	}
	if opts.HistorySize <= 0 {
		opts.HistorySize = 50
	}
	return &Dispatcher{opts: opts}
}

// Run executes one full check cycle. It returns ErrRunInProgress when
// another run holds the guard and ErrConfigIncomplete when the config
// snapshot is unusable; neither is fatal to the process.
func (d *Dispatcher) Run(ctx context.Context) (*RunReport, error) {
	if !d.running.CompareAndSwap(false, true) {
		return nil, ErrRunInProgress
	}
	defer d.running.Store(false)

	report := &RunReport{RunID: uuid.NewString(), Started: time.Now()}
	log := d.opts.Log.With(logx.String("run_id", report.RunID))
	log.Info("train job started")

	cfg := d.opts.Config()
	if cfg == nil {
		log.Warn("no configuration loaded")
		return report, ErrConfigIncomplete
	}
	job := cfg.Job
	if len(job.Dates) == 0 || len(job.Categories) == 0 || len(job.Denominations) == 0 || len(job.Recipients) == 0 {
		log.Warn("missing configuration data",
			logx.Int("dates", len(job.Dates)),
			logx.Int("categories", len(job.Categories)),
			logx.Int("denominations", len(job.Denominations)),
			logx.Int("recipients", len(job.Recipients)),
		)
		return report, ErrConfigIncomplete
	}
	report.Recipients = len(job.Recipients)
	report.Dates = len(job.Dates)

	route := trenitalia.RouteConfig{
		DepartureLocationID: job.DepartureLocationID,
		ArrivalLocationID:   job.ArrivalLocationID,
	}

	for _, recipient := range job.Recipients {
		d.checkRecipient(ctx, log, report, recipient, job, route)
	}

	if report.Sent > 0 && d.opts.Announce != nil {
		d.announce(ctx, log, report)
	}

	// Entries for past dates can never match again; drop them so the
	// cache does not grow for the lifetime of the process.
	report.Pruned = d.opts.Seen.PrunePast(time.Now())

	report.Duration = time.Since(report.Started)
	d.appendHistory(*report)
	log.Info("train job completed",
		logx.Int("sent", report.Sent),
		logx.Int("fetch_fails", report.FetchFails),
		logx.Int("send_fails", report.SendFails),
		logx.Duration("took", report.Duration),
	)
	return report, nil
}

func (d *Dispatcher) checkRecipient(ctx context.Context, log logx.Logger, report *RunReport, recipient string, job config.JobConfig, route trenitalia.RouteConfig) {
	content := Header()
	hasNew := false

	audit := AuditRecord{RunID: report.RunID, Recipient: recipient}

	for _, date := range job.Dates {
		req := trenitalia.BuildSearchRequest(date, route)
		resp, err := d.opts.Search.Search(ctx, req)
		if err != nil {
			// One bad date never aborts the remaining dates or recipients.
			log.Error("fetch failed for date",
				logx.String("date", date),
				logx.String("recipient", recipient),
				logx.Err(err),
			)
			report.FetchFails++
			continue
		}

		matching := Filter(resp.Solutions, job.Categories, job.Denominations)
		fresh := d.opts.Seen.NewFor(recipient, date, matching)
		if len(fresh) == 0 {
			continue
		}

		content = content.Append(Body(fresh, date))
		d.opts.Seen.Record(recipient, date, fresh)
		hasNew = true

		audit.Dates = append(audit.Dates, date)
		for _, sol := range fresh {
			audit.TrainNames = append(audit.TrainNames, sol.LeadTrainName())
		}
	}

	if !hasNew {
		log.Debug("no new trains found", logx.String("recipient", recipient))
		return
	}

	content = content.Append(Footer())
	audit.SentAt = time.Now()

	if err := d.opts.Mail.Send(ctx, recipient, MailSubject, content.Text, content.HTML); err != nil {
		// No retry, no rollback: the journeys stay marked as notified.
		log.Error("failed to send email",
			logx.String("recipient", recipient),
			logx.Err(err),
		)
		report.SendFails++
		audit.Error = err.Error()
	} else {
		log.Info("email sent",
			logx.String("recipient", recipient),
			logx.Int("trains", len(audit.TrainNames)),
		)
		report.Sent++
		audit.Delivered = true
	}

	if d.opts.Audit != nil {
		if err := d.opts.Audit.RecordNotification(ctx, audit); err != nil {
			log.Warn("audit write failed", logx.Err(err))
		}
	}
}

func (d *Dispatcher) announce(ctx context.Context, log logx.Logger, report *RunReport) {
	text := "Train watch: notified " + strconv.Itoa(report.Sent) + " recipient(s) of new journeys"
	if err := d.opts.Announce.Announce(ctx, text); err != nil {
		log.Warn("announce failed", logx.Err(err))
	}
}

// Running reports whether a run currently holds the guard.
func (d *Dispatcher) Running() bool { return d.running.Load() }

// History returns the most recent run reports, newest last.
func (d *Dispatcher) History() []RunReport {
	d.hmu.Lock()
	defer d.hmu.Unlock()
	out := make([]RunReport, len(d.history))
	copy(out, d.history)
	return out
}

func (d *Dispatcher) appendHistory(r RunReport) {
	d.hmu.Lock()
	defer d.hmu.Unlock()
	d.history = append(d.history, r)
	if len(d.history) > d.opts.HistorySize {
		d.history = d.history[len(d.history)-d.opts.HistorySize:]
	}
}
