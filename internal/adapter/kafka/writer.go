package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/marine-watch/internal/config"
	"github.com/couchcryptid/marine-watch/internal/domain"
)

// messageKey keeps every update on one partition so consumers see them in order.
const messageKey = "hazards"

// Writer produces hazard updates to a Kafka topic.
// It implements pipeline.BatchLoader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured hazard topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaHazardTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, logger: logger}
}

// LoadBatch serializes and publishes hazard updates in a single
// WriteMessages call.
func (w *Writer) LoadBatch(ctx context.Context, updates []domain.HazardUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(updates))
	for i := range updates {
		msg, err := serializeToMessage(updates[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write hazard updates: %w", err)
	}
	w.logger.Debug("hazard updates written",
		"topic", w.writer.Topic,
		"count", len(msgs),
		"last_seq", updates[len(updates)-1].Seq,
	)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a HazardUpdate into a Kafka message.
func serializeToMessage(update domain.HazardUpdate) (kafkago.Message, error) {
	if update.Hazards == nil {
		update.Hazards = []domain.Hazard{}
	}
	data, err := json.Marshal(update)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize hazard update: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(messageKey),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "update_seq", Value: []byte(strconv.FormatUint(update.Seq, 10))},
			{Key: "hazard_count", Value: []byte(strconv.Itoa(len(update.Hazards)))},
			{Key: "emitted_at", Value: []byte(update.EmittedAt.Format(time.RFC3339))},
		},
		Time: update.EmittedAt,
	}, nil
}
