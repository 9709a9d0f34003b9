// Package kafka mirrors dispatch records to a Kafka topic for audit.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/alert-mesh-relay/internal/config"
	"github.com/couchcryptid/alert-mesh-relay/internal/domain"
)

// Recorder publishes dispatch records to the configured topic.
// It implements poller.Recorder.
type Recorder struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewRecorder creates a Kafka producer for the dispatch audit topic.
func NewRecorder(cfg *config.Config, logger *slog.Logger) *Recorder {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Recorder{writer: w, logger: logger}
}

// Record serializes and publishes one dispatch record. The mirror is
// best effort: the poller logs failures and moves on, so a Kafka outage
// never delays an alert.
func (r *Recorder) Record(ctx context.Context, rec domain.DispatchRecord) error {
	msg, err := serializeToMessage(rec)
	if err != nil {
		return err
	}
	return r.writer.WriteMessages(ctx, msg)
}

func (r *Recorder) Close() error {
	return r.writer.Close()
}

// serializeToMessage marshals a DispatchRecord into a Kafka message.
// Keying by alert type groups consecutive dispatches of the same alert
// into one partition.
func serializeToMessage(rec domain.DispatchRecord) (kafkago.Message, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize dispatch record: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(rec.AlertType),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "alert_type", Value: []byte(rec.AlertType)},
			{Key: "dispatched_at", Value: []byte(rec.DispatchedAt.Format(time.RFC3339))},
		},
	}, nil
}
