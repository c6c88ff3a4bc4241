// Package messaging publishes sync run summaries on NATS.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"stock_sync/internal/feature/marketsync/domain/entity"
	"stock_sync/internal/feature/marketsync/usecase"
)

// SubjectPrefix is followed by the data kind, e.g. "marketsync.summary.series".
const SubjectPrefix = "marketsync.summary"

// Config is read under the NATS_ prefix. An empty URL disables publishing.
type Config struct {
	URL           string        `env:"URL"`
	Name          string        `env:"CLIENT_NAME, default=marketsync"`
	MaxReconnect  int           `env:"MAX_RECONNECT, default=10"`
	ReconnectWait time.Duration `env:"RECONNECT_WAIT, default=2s"`
	FlushTimeout  time.Duration `env:"FLUSH_TIMEOUT, default=5s"`
}

// Enabled reports whether a NATS server is configured.
func (c Config) Enabled() bool { return c.URL != "" }

// Publisher is the part of *nats.Conn the summary publisher needs.
type Publisher interface {
	Publish(subj string, data []byte) error
	FlushTimeout(timeout time.Duration) error
}

// Connect opens a NATS connection with reconnect handling.
func Connect(cfg Config, logger *slog.Logger) (*nats.Conn, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "nats")

	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.MaxReconnects(cfg.MaxReconnect),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Warn("NATS disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", "url", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info("NATS connection closed")
		}),
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return conn, nil
}

// SummaryPublisher sends every finished SyncSummary as JSON.
type SummaryPublisher struct {
	pub          Publisher
	flushTimeout time.Duration
}

var _ usecase.SummaryPublisher = (*SummaryPublisher)(nil)

// NewSummaryPublisher wraps a connection. A zero flushTimeout skips the flush.
func NewSummaryPublisher(pub Publisher, flushTimeout time.Duration) *SummaryPublisher {
	return &SummaryPublisher{pub: pub, flushTimeout: flushTimeout}
}

// Subject returns the subject summaries of kind are published on.
func Subject(kind entity.DataKind) string {
	return SubjectPrefix + "." + kind.String()
}

// PublishSummary publishes summary and waits for the server to receive it.
func (p *SummaryPublisher) PublishSummary(ctx context.Context, summary entity.SyncSummary) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}
	if err := p.pub.Publish(Subject(summary.Kind), data); err != nil {
		return fmt.Errorf("failed to publish summary: %w", err)
	}
	if p.flushTimeout > 0 {
		if err := p.pub.FlushTimeout(p.flushTimeout); err != nil {
			return fmt.Errorf("failed to flush summary: %w", err)
		}
	}
	return nil
}
