package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/couchcryptid/flood-alert-dashboard/internal/config"
	"github.com/couchcryptid/flood-alert-dashboard/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer publishes dispatch audit records to the audit topic.
// It implements console.DispatchRecorder.
type Writer struct {
	writer *kafkago.Writer
}

// NewWriter creates a Kafka producer for the configured audit topic.
func NewWriter(cfg *config.Config) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaAuditTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w}
}

// RecordDispatch publishes one audit record.
func (w *Writer) RecordDispatch(ctx context.Context, rec domain.DispatchRecord) error {
	msg, err := serializeToMessage(rec)
	if err != nil {
		return err
	}
	return w.writer.WriteMessages(ctx, msg)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a DispatchRecord into a Kafka message keyed by
// operator, so one operator's records stay ordered on a partition.
func serializeToMessage(rec domain.DispatchRecord) (kafkago.Message, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize dispatch record: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(rec.Operator),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "dispatch_id", Value: []byte(rec.DispatchID.String())},
			{Key: "outcome", Value: []byte(rec.Outcome)},
			{Key: "dispatched_at", Value: []byte(rec.DispatchedAt.Format(time.RFC3339))},
		},
	}, nil
}
