// Package service holds the outbound event sinks: RabbitMQ for oracle
// requests, NATS for the full event feed and InfluxDB for metrics.  Every
// sink implements surety.EventSink and runs after the engine commits.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/Qiyd81/flightsurety-2/internal/queue"
	"github.com/Qiyd81/flightsurety-2/internal/surety"
)

// Publisher forwards oracle.requested events to the RabbitMQ queue the
// relay consumes.  Other events are ignored.  The connection is opened on
// first use and reopened after any failure.
type Publisher struct {
	url string
	log logrus.FieldLogger

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewPublisher(url string, log logrus.FieldLogger) *Publisher {
	return &Publisher{url: url, log: log}
}

// Emit implements surety.EventSink.
func (p *Publisher) Emit(ctx context.Context, ev surety.Event) error {
	msg, ok := queue.FromEvent(ev)
	if !ok {
		return nil
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("rabbitmq: marshal event: %w", err)
	}
	return p.publish(ctx, body)
}

func (p *Publisher) publish(ctx context.Context, body []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channel()
	if err != nil {
		return err
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx,
		"",                         // default exchange
		queue.OracleRequestedQueue, // routing key = queue name
		false,                      // mandatory
		false,                      // immediate
		pub,
	); err != nil {
		p.resetLocked()
		return fmt.Errorf("rabbitmq: publish: %w", err)
	}
	return nil
}

// channel returns an open channel with the queue declared.  p.mu is held.
func (p *Publisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	p.resetLocked()

	conn, err := amqp.Dial(p.url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq: dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq: channel open: %w", err)
	}
	if _, err := ch.QueueDeclare(queue.OracleRequestedQueue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq: queue declare: %w", err)
	}
	p.conn, p.ch = conn, ch
	p.log.WithField("queue", queue.OracleRequestedQueue).Info("rabbitmq: publisher connected")
	return ch, nil
}

func (p *Publisher) resetLocked() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.ch, p.conn = nil, nil
}

// Close shuts the broker connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resetLocked()
	return nil
}
