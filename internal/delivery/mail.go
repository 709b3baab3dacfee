// Package delivery holds the outbound notification channels: SMTP mail
// (the primary channel) and an optional send-only Telegram announcer.
package delivery

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/wneessen/go-mail"
	"golang.org/x/time/rate"

	logx "github.com/AndreaCasaluci/train-scraper/pkg/logx"
)

// DefaultFromName is used when no from_name is configured.
const DefaultFromName = "Train Scraper"

type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	FromName string
	// RatePerSec limits outbound sends across all recipients. 0 means 1/s.
	RatePerSec int
}

// Mailer sends composed notifications over SMTP. Sends are rate limited so
// a burst of recipients cannot trip provider limits.
type Mailer struct {
	client   *mail.Client
	from     string
	fromName string
	limiter  *rate.Limiter
	log      logx.Logger
}

func NewMailer(cfg MailConfig, log logx.Logger) (*Mailer, error) {
	if strings.TrimSpace(cfg.Host) == "" {
		return nil, errors.New("mail: host is required")
	}
	if strings.TrimSpace(cfg.Username) == "" {
		return nil, errors.New("mail: username is required")
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	port := cfg.Port
	if port == 0 {
		port = 587
	}
	rps := cfg.RatePerSec
	if rps <= 0 {
		rps = 1
	}
	fromName := strings.TrimSpace(cfg.FromName)
	if fromName == "" {
		fromName = DefaultFromName
	}

	client, err := mail.NewClient(cfg.Host,
		mail.WithPort(port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.Username),
		mail.WithPassword(cfg.Password),
		mail.WithTLSPortPolicy(mail.TLSMandatory),
		mail.WithTimeout(30*time.Second),
	)
	if err != nil {
		return nil, err
	}

	return &Mailer{
		client:   client,
		from:     cfg.Username,
		fromName: fromName,
		limiter:  rate.NewLimiter(rate.Limit(rps), rps),
		log:      log,
	}, nil
}

// Send delivers one message. The plain-text body may be empty; the HTML
// body is attached as the alternative part when present.
func (m *Mailer) Send(ctx context.Context, to, subject, text, html string) error {
	if err := m.limiter.Wait(ctx); err != nil {
		return err
	}

	msg := mail.NewMsg()
	if err := msg.FromFormat(m.fromName, m.from); err != nil {
		return err
	}
	if err := msg.To(to); err != nil {
		return err
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, text)
	if html != "" {
		msg.AddAlternativeString(mail.TypeTextHTML, html)
	}

	start := time.Now()
	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return err
	}
	m.log.Debug("mail delivered",
		logx.String("to", to),
		logx.Duration("took", time.Since(start)),
	)
	return nil
}
