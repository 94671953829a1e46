package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"

	"github.com/Qiyd81/flightsurety-2/internal/surety"
)

// NATSConfig holds the event feed connection settings.
type NATSConfig struct {
	URL            string
	Name           string
	SubjectPrefix  string
	ReconnectWait  time.Duration
	MaxReconnects  int
	ConnectTimeout time.Duration
}

// NATSSink publishes every engine event on <prefix>.<event type>, e.g.
// flightsurety.events.flight.finalized.
type NATSSink struct {
	conn   *nats.Conn
	prefix string
}

func NewNATSSink(cfg NATSConfig, log logrus.FieldLogger) (*NATSSink, error) {
	conn, err := nats.Connect(cfg.URL,
		nats.Name(cfg.Name),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.Timeout(cfg.ConnectTimeout),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.WithError(err).Warn("nats: disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.WithField("url", nc.ConnectedUrl()).Info("nats: reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats: connect: %w", err)
	}
	return &NATSSink{conn: conn, prefix: cfg.SubjectPrefix}, nil
}

// Emit implements surety.EventSink.
func (s *NATSSink) Emit(_ context.Context, ev surety.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("nats: marshal event: %w", err)
	}
	return s.conn.Publish(Subject(s.prefix, ev.Type), payload)
}

// Close flushes pending messages and closes the connection.
func (s *NATSSink) Close() error {
	if err := s.conn.Drain(); err != nil {
		s.conn.Close()
		return err
	}
	return nil
}

// Subject returns the NATS subject for an event type.
func Subject(prefix string, t surety.EventType) string {
	prefix = strings.TrimSuffix(prefix, ".")
	if prefix == "" {
		return string(t)
	}
	return prefix + "." + string(t)
}
