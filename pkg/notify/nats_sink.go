package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/NissanArmada/GazooRazoo/log"
)

const DefaultSubject = "gazoo.telemetry"

type (
	NatsOption func(*natsConfig)
	natsConfig struct {
		subject string
		token   string
		l       *log.Logger
	}

	// NatsSink publishes events as JSON to <subject>.<driver>.<kind>
	NatsSink struct {
		conn    *nats.Conn
		subject string
		l       *log.Logger
	}
)

func WithSubject(subject string) NatsOption {
	return func(c *natsConfig) {
		c.subject = subject
	}
}

func WithToken(token string) NatsOption {
	return func(c *natsConfig) {
		c.token = token
	}
}

func WithNatsLogger(l *log.Logger) NatsOption {
	return func(c *natsConfig) {
		c.l = l
	}
}

func NewNatsSink(url string, opts ...NatsOption) (*NatsSink, error) {
	cfg := &natsConfig{
		subject: DefaultSubject,
		l:       log.Default().Named("notify.nats"),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	l := cfg.l
	natsOpts := []nats.Option{
		nats.Name("gazoo"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				l.Warn("nats disconnected", log.ErrorField(err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			l.Info("nats reconnected", log.String("url", nc.ConnectedUrl()))
		}),
	}
	if cfg.token != "" {
		natsOpts = append(natsOpts, nats.Token(cfg.token))
	}
	nc, err := nats.Connect(url, natsOpts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &NatsSink{conn: nc, subject: cfg.subject, l: l}, nil
}

func (s *NatsSink) Name() string { return "nats" }

func (s *NatsSink) Send(_ context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return s.conn.Publish(Subject(s.subject, ev), payload)
}

// Close flushes pending messages and closes the connection
func (s *NatsSink) Close() error {
	defer s.conn.Close()
	if !s.conn.IsConnected() {
		return nil
	}
	return s.conn.FlushTimeout(5 * time.Second)
}

// Subject returns the subject an event is published on
func Subject(base string, ev Event) string {
	driver := ev.Driver
	if driver == "" {
		driver = "unknown"
	}
	return fmt.Sprintf("%s.%s.%s", base, driver, ev.Kind)
}
