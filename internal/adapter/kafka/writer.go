package kafka

import (
	"context"
	"log/slog"
	"sort"

	"github.com/couchcryptid/quake-agent/internal/config"
	"github.com/couchcryptid/quake-agent/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer produces report messages to a Kafka topic.
// It implements pipeline.BatchLoader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// LoadBatch publishes the reports in a single WriteMessages call.
func (w *Writer) LoadBatch(ctx context.Context, reports []domain.OutputReport) error {
	if len(reports) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(reports))
	for i := range reports {
		msgs[i] = mapOutputReportToMessage(reports[i])
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return err
	}
	w.logger.Debug("reports published", "count", len(msgs), "topic", w.writer.Topic)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// mapOutputReportToMessage converts a report into a Kafka message with
// headers in key order.
func mapOutputReportToMessage(r domain.OutputReport) kafkago.Message {
	keys := make([]string, 0, len(r.Headers))
	for k := range r.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	headers := make([]kafkago.Header, 0, len(keys))
	for _, k := range keys {
		headers = append(headers, kafkago.Header{Key: k, Value: []byte(r.Headers[k])})
	}
	return kafkago.Message{
		Key:     r.Key,
		Value:   r.Value,
		Headers: headers,
	}
}
