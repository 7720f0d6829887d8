package kafka

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/couchcryptid/quake-agent/internal/config"
	"github.com/couchcryptid/quake-agent/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Reader consumes query messages from a Kafka topic.
// It implements pipeline.BatchExtractor.
type Reader struct {
	reader        *kafkago.Reader
	flushInterval time.Duration
	logger        *slog.Logger
}

// NewReader creates a Kafka consumer for the configured source topic and group.
func NewReader(cfg *config.Config, logger *slog.Logger) *Reader {
	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:  cfg.KafkaBrokers,
		Topic:    cfg.KafkaSourceTopic,
		GroupID:  cfg.KafkaGroupID,
		MinBytes: 1,
		MaxBytes: 10e6, // 10 MB
	})
	return &Reader{reader: r, flushInterval: cfg.BatchFlushInterval, logger: logger}
}

// ExtractBatch blocks until the first message arrives, then keeps fetching
// until batchSize messages are collected or the flush interval elapses.
// Offsets are not committed; each RawQuery carries a Commit callback the
// caller invokes after the report has been published.
func (r *Reader) ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawQuery, error) {
	first, err := r.reader.FetchMessage(ctx)
	if err != nil {
		return nil, err
	}
	batch := make([]domain.RawQuery, 0, batchSize)
	batch = append(batch, r.toRawQuery(first))

	flushCtx, cancel := context.WithTimeout(ctx, r.flushInterval)
	defer cancel()

	for len(batch) < batchSize {
		msg, err := r.reader.FetchMessage(flushCtx)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
				break
			}
			// Hand back what we have; the next call surfaces a persistent error.
			r.logger.Warn("fetch message failed, flushing partial batch", "error", err, "batch_size", len(batch))
			break
		}
		batch = append(batch, r.toRawQuery(msg))
	}
	return batch, nil
}

func (r *Reader) toRawQuery(msg kafkago.Message) domain.RawQuery {
	raw := mapMessageToRawQuery(msg)
	raw.Commit = func(commitCtx context.Context) error {
		return r.reader.CommitMessages(commitCtx, msg)
	}
	return raw
}

func (r *Reader) Close() error {
	return r.reader.Close()
}

func mapMessageToRawQuery(msg kafkago.Message) domain.RawQuery {
	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	return domain.RawQuery{
		Key:       msg.Key,
		Value:     msg.Value,
		Headers:   headers,
		Topic:     msg.Topic,
		Partition: msg.Partition,
		Offset:    msg.Offset,
		Timestamp: msg.Time,
	}
}
