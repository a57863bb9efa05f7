// Package notify announces finished sitemap runs on NATS.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/sitepress/internal/config"
	"git.home.luguber.info/inful/sitepress/internal/errors"
	"git.home.luguber.info/inful/sitepress/internal/logfields"
	"git.home.luguber.info/inful/sitepress/internal/sitemap"
)

// SitemapEvent is the JSON payload published after each run.
type SitemapEvent struct {
	RunID     string    `json:"run_id"`
	Outcome   string    `json:"outcome"`
	Reason    string    `json:"reason"`
	Routes    int       `json:"routes"`
	Written   []string  `json:"written"`
	Timestamp time.Time `json:"timestamp"`
}

// EventFromResult builds the event for a finished run.
func EventFromResult(res *sitemap.Result) SitemapEvent {
	return SitemapEvent{
		RunID:     res.RunID,
		Outcome:   res.Outcome.Label(),
		Reason:    string(res.Outcome.Reason()),
		Routes:    res.RouteCount,
		Written:   res.Written,
		Timestamp: res.StartedAt.Add(res.Duration),
	}
}

// Publisher sends run events somewhere.
type Publisher interface {
	Publish(ctx context.Context, event SitemapEvent) error
	Close()
}

// NoopPublisher drops events; it is used when no NATS URL is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, SitemapEvent) error { return nil }
func (NoopPublisher) Close()                                      {}

// New returns a NATS publisher, or a NoopPublisher when cfg has no URL.
func New(cfg config.NotifyConfig, logger *slog.Logger) (Publisher, error) {
	if cfg.NATSURL == "" {
		return NoopPublisher{}, nil
	}
	return NewNATSPublisher(cfg, logger)
}

// NATSPublisher publishes events on a core NATS subject.
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
	timeout time.Duration
	logger  *slog.Logger
}

// NewNATSPublisher connects to cfg.NATSURL.
func NewNATSPublisher(cfg config.NotifyConfig, logger *slog.Logger) (*NATSPublisher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = config.DefaultNotifyTimeout
	}
	subject := cfg.Subject
	if subject == "" {
		subject = config.DefaultSubject
	}

	conn, err := nats.Connect(cfg.NATSURL,
		nats.Name("sitepress"),
		nats.Timeout(timeout),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", logfields.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("NATS reconnected", logfields.URL(c.ConnectedUrlRedacted()))
		}),
	)
	if err != nil {
		return nil, errors.NetworkError("failed to connect to NATS").
			WithCause(err).
			WithContext("url", cfg.NATSURL).
			Build()
	}

	logger.Info("NATS notifications enabled", logfields.URL(conn.ConnectedUrlRedacted()), slog.String("subject", subject))
	return &NATSPublisher{conn: conn, subject: subject, timeout: timeout, logger: logger}, nil
}

// Publish sends the event and waits for the server to acknowledge the flush.
func (p *NATSPublisher) Publish(ctx context.Context, event SitemapEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return errors.InternalError("failed to marshal sitemap event").WithCause(err).Build()
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		return errors.NetworkError("failed to publish sitemap event").
			WithCause(err).
			WithContext("subject", p.subject).
			Build()
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	if err := p.conn.FlushWithContext(ctx); err != nil {
		return errors.TimeoutError("NATS flush did not complete").
			WithCause(err).
			WithContext("subject", p.subject).
			Build()
	}

	p.logger.DebugContext(ctx, "Published sitemap event",
		logfields.RunID(event.RunID), logfields.Outcome(event.Outcome), slog.String("subject", p.subject))
	return nil
}

// Close drains pending messages and closes the connection.
func (p *NATSPublisher) Close() {
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
	}
}
