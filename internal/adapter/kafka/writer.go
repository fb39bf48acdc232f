package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/peakline/corridor-vibes/internal/config"
	"github.com/peakline/corridor-vibes/internal/domain"
)

// Writer publishes live segment statuses to a Kafka topic.
// It implements pipeline.LivePublisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured live-status topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaLiveTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// PublishLive serializes and publishes one run's live statuses in a single
// WriteMessages call. Keying by segment id keeps each segment's updates
// ordered within a partition.
func (w *Writer) PublishLive(ctx context.Context, statuses []domain.LiveStatus) error {
	if len(statuses) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(statuses))
	for i := range statuses {
		msg, err := serializeToMessage(statuses[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	return w.writer.WriteMessages(ctx, msgs...)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a LiveStatus into a Kafka message.
func serializeToMessage(status domain.LiveStatus) (kafkago.Message, error) {
	data, err := json.Marshal(status)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize live status: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(status.SegmentID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "trend", Value: []byte(status.Trend)},
			{Key: "updated_at", Value: []byte(status.UpdatedAt.Format(time.RFC3339))},
		},
	}, nil
}
