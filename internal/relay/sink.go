package relay

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/Qiyd81/flightsurety-2/internal/queue"
	"github.com/Qiyd81/flightsurety-2/internal/surety"
)

// ChannelSink hands oracle requests straight to an in-process relay when
// no broker is configured.
type ChannelSink struct {
	ch  chan queue.OracleRequestedEvent
	log logrus.FieldLogger
}

func NewChannelSink(buffer int, log logrus.FieldLogger) *ChannelSink {
	return &ChannelSink{ch: make(chan queue.OracleRequestedEvent, buffer), log: log}
}

// Requests is the channel Relay.Run reads from.
func (s *ChannelSink) Requests() <-chan queue.OracleRequestedEvent { return s.ch }

// Emit implements surety.EventSink.  A full buffer drops the request; the
// passenger can ask again while the request stays open.
func (s *ChannelSink) Emit(_ context.Context, ev surety.Event) error {
	req, ok := queue.FromEvent(ev)
	if !ok {
		return nil
	}
	select {
	case s.ch <- req:
	default:
		s.log.WithField("flight", req.Key().String()).Warn("relay: request buffer full, dropping")
	}
	return nil
}
