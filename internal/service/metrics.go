package service

import (
	"context"
	"fmt"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/Qiyd81/flightsurety-2/internal/model"
	"github.com/Qiyd81/flightsurety-2/internal/surety"
)

// MetricsMeasurement is the InfluxDB measurement events are written to.
const MetricsMeasurement = "surety_event"

// InfluxConfig locates the metrics bucket.
type InfluxConfig struct {
	URL    string
	Token  string
	Org    string
	Bucket string
}

type pointWriter interface {
	WritePoint(ctx context.Context, point ...*write.Point) error
}

// MetricsSink writes one point per engine event, tagged by type and, where
// present, status code.  Value movements carry an ether field.
type MetricsSink struct {
	client influxdb2.Client
	writer pointWriter
}

func NewMetricsSink(cfg InfluxConfig) *MetricsSink {
	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	return &MetricsSink{client: client, writer: client.WriteAPIBlocking(cfg.Org, cfg.Bucket)}
}

// Emit implements surety.EventSink.
func (m *MetricsSink) Emit(ctx context.Context, ev surety.Event) error {
	if err := m.writer.WritePoint(ctx, eventPoint(ev)); err != nil {
		return fmt.Errorf("influx: write point: %w", err)
	}
	return nil
}

// Close releases the HTTP client.
func (m *MetricsSink) Close() {
	if m.client != nil {
		m.client.Close()
	}
}

func eventPoint(ev surety.Event) *write.Point {
	tags := map[string]string{"type": string(ev.Type)}
	if ev.Status != model.StatusUnknown {
		tags["status"] = ev.Status.String()
	}
	fields := map[string]interface{}{"seq": int64(ev.Seq)}
	if ev.Amount != nil {
		ether, _ := ev.Amount.Shift(-18).Float64()
		fields["ether"] = ether
	}
	if ev.Index != nil {
		fields["index"] = int64(*ev.Index)
	}
	return influxdb2.NewPoint(MetricsMeasurement, tags, fields, ev.At)
}
