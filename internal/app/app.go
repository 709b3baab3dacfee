// Package app wires configuration, logging, the Trenitalia client, the
// delivery channels, the monitor and the admin API into one process.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/AndreaCasaluci/train-scraper/internal/api"
	"github.com/AndreaCasaluci/train-scraper/internal/config"
	"github.com/AndreaCasaluci/train-scraper/internal/delivery"
	"github.com/AndreaCasaluci/train-scraper/internal/monitor"
	"github.com/AndreaCasaluci/train-scraper/internal/runtime/supervisor"
	"github.com/AndreaCasaluci/train-scraper/internal/scheduler"
	"github.com/AndreaCasaluci/train-scraper/internal/store"
	"github.com/AndreaCasaluci/train-scraper/internal/trenitalia"
	logx "github.com/AndreaCasaluci/train-scraper/pkg/logx"
)

const (
	trainJobName    = "train-check"
	defaultSchedule = "10s"
)

type App struct {
	cfgm *config.Manager
	logs *logx.Service
	log  logx.Logger

	sup    *supervisor.Supervisor
	sched  *scheduler.Service
	disp   *monitor.Dispatcher
	apiSrv *api.Server
	st     store.Store

	memSeen *monitor.MemorySeen // nil when the persistent store backs dedup
}

func New(cfgPath string) (*App, error) {
	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logs, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	log = log.With(logx.String("comp", "app"))
	cfgm.SetLogger(log.With(logx.String("comp", "config")))
	cfgm.SetValidator(validateConfig)

	fetchTimeout, err := config.ParseDurationOrDefault("trenitalia.timeout", cfg.Trenitalia.Timeout, 30*time.Second)
	if err != nil {
		return nil, err
	}
	client, err := trenitalia.NewClient(trenitalia.Config{
		APIURL:  cfg.Trenitalia.APIURL,
		Timeout: fetchTimeout,
	}, log.With(logx.String("comp", "trenitalia")))
	if err != nil {
		return nil, err
	}

	mailer, err := delivery.NewMailer(delivery.MailConfig{
		Host:       cfg.Mail.Host,
		Port:       cfg.Mail.Port,
		Username:   cfg.Mail.Username,
		Password:   cfg.Mail.Password,
		FromName:   cfg.Mail.FromName,
		RatePerSec: cfg.Mail.RatePerSec,
	}, log.With(logx.String("comp", "mail")))
	if err != nil {
		return nil, err
	}

	var announce monitor.Announcer
	if cfg.Telegram != nil && cfg.Telegram.Enabled {
		tg, err := delivery.NewTelegram(delivery.TelegramConfig{
			Token:  cfg.Telegram.Token,
			ChatID: cfg.Telegram.ChatID,
		}, log.With(logx.String("comp", "telegram")))
		if err != nil {
			return nil, err
		}
		announce = tg
	}

	a := &App{cfgm: cfgm, logs: logs, log: log}

	if cfg.Storage != nil {
		busy, err := config.ParseDurationField("storage.busy_timeout", cfg.Storage.BusyTimeout)
		if err != nil {
			return nil, err
		}
		st, err := store.Open(store.Config{
			Driver:      cfg.Storage.Driver,
			Path:        cfg.Storage.Path,
			BusyTimeout: busy,
		}, log.With(logx.String("comp", "store")))
		if err != nil {
			return nil, err
		}
		a.st = st
	}

	var seen monitor.SeenStore
	var audit monitor.Auditor
	if a.st != nil {
		seen = monitor.NewPersistentSeen(a.st, log.With(logx.String("comp", "dedup")))
		audit = &storeAuditor{st: a.st}
	} else {
		a.memSeen = monitor.NewMemorySeen()
		seen = a.memSeen
	}

	a.disp = monitor.NewDispatcher(monitor.Options{
		Config:   cfgm.Get,
		Search:   client,
		Mail:     mailer,
		Announce: announce,
		Seen:     seen,
		Audit:    audit,
		Log:      log.With(logx.String("comp", "monitor")),
	})

	a.sched = scheduler.New(log.With(logx.String("comp", "scheduler")))

	if cfg.API != nil && cfg.API.Enabled {
		a.apiSrv = api.New(api.Config{Enabled: true, Addr: cfg.API.Addr}, api.Deps{
			Dispatcher: a.disp,
			Search:     client,
			Mail:       mailer,
			SeenLen:    a.seenLen(),
		}, log.With(logx.String("comp", "api")))
	}

	return a, nil
}

func (a *App) Start(ctx context.Context) error {
	a.sup = supervisor.New(ctx, a.log)

	cfg := a.cfgm.Get()
	schedule := defaultSchedule
	if cfg != nil && cfg.Job.Schedule != "" {
		schedule = cfg.Job.Schedule
	}
	if err := a.sched.Add(trainJobName, schedule, a.runJob); err != nil {
		return err
	}
	a.sched.Start(a.sup.Context())

	a.sup.Go("config.watch", a.cfgm.Watch)
	a.sup.Go("config.apply", a.applyLoop)
	if a.apiSrv != nil {
		a.sup.Go("api.serve", a.apiSrv.Start)
	}

	a.log.Info("started", logx.String("schedule", schedule))
	return nil
}

func (a *App) Stop(ctx context.Context) error {
	a.sched.Stop()
	var err error
	if a.sup != nil {
		err = a.sup.Stop(10 * time.Second)
	}
	if a.st != nil {
		_ = a.st.Close()
	}
	_ = a.logs.Close()
	return err
}

// runJob is the scheduled entry point. Expected per-run conditions
// (overlap skip, incomplete config) are already logged by the dispatcher
// and must not surface as job failures every few seconds.
func (a *App) runJob(ctx context.Context) error {
	_, err := a.disp.Run(ctx)
	switch err {
	case nil, monitor.ErrRunInProgress, monitor.ErrConfigIncomplete:
		return nil
	default:
		return err
	}
}

// applyLoop reacts to committed config reloads: logging sinks and the job
// schedule follow immediately; the four job lists are picked up by the
// next run via Manager.Get. Transport settings (SMTP, API URL) require a
// restart.
func (a *App) applyLoop(ctx context.Context) error {
	sub := a.cfgm.Subscribe(4)
	defer a.cfgm.Unsubscribe(sub)

	for {
		select {
		case <-ctx.Done():
			return nil
		case cfg, ok := <-sub:
			if !ok {
				return nil
			}
			if cfg == nil {
				continue
			}
			a.logs.Apply(logx.Config{
				Level:   cfg.Logging.Level,
				Console: cfg.Logging.Console,
				File: logx.FileConfig{
					Enabled: cfg.Logging.File.Enabled,
					Path:    cfg.Logging.File.Path,
				},
			})
			if cfg.Job.Schedule != "" {
				if err := a.sched.Reschedule(trainJobName, cfg.Job.Schedule); err != nil {
					a.log.Warn("reschedule failed", logx.Err(err))
				}
			}
		}
	}
}

func (a *App) seenLen() func() int {
	if a.memSeen == nil {
		return nil
	}
	return a.memSeen.Len
}

func validateConfig(ctx context.Context, cfg *config.Config) error {
	_ = ctx
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if cfg.Job.Schedule != "" {
		if err := scheduler.ValidateSpec(cfg.Job.Schedule); err != nil {
			return err
		}
	}
	return nil
}

type storeAuditor struct {
	st store.Store
}

func (s *storeAuditor) RecordNotification(ctx context.Context, rec monitor.AuditRecord) error {
	return s.st.AppendNotification(ctx, store.NotificationEntry{
		RunID:      rec.RunID,
		Recipient:  rec.Recipient,
		Dates:      rec.Dates,
		TrainNames: rec.TrainNames,
		SentAt:     rec.SentAt,
		Delivered:  rec.Delivered,
		Error:      rec.Error,
	})
}
