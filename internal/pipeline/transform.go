package pipeline

import (
	"context"
	"log/slog"
	"strings"

	"github.com/couchcryptid/quake-agent/internal/domain"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// Responder answers a single free-text question.
type Responder interface {
	Respond(ctx context.Context, text string) domain.Report
}

// QueryTransformer implements Transformer by routing each query message
// through a Responder.
type QueryTransformer struct {
	responder Responder
	clock     clockwork.Clock
	logger    *slog.Logger
}

// NewTransformer creates a QueryTransformer. A nil clock uses the real clock.
func NewTransformer(responder Responder, clock clockwork.Clock, logger *slog.Logger) *QueryTransformer {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &QueryTransformer{
		responder: responder,
		clock:     clock,
		logger:    logger,
	}
}

func (t *QueryTransformer) Transform(ctx context.Context, raw domain.RawQuery) (domain.OutputReport, error) {
	text := queryText(raw.Value)
	t.logger.Debug("answering query", "partition", raw.Partition, "offset", raw.Offset, "text", text)

	key := raw.Key
	if len(key) == 0 {
		key = []byte(uuid.NewString())
	}

	report := t.responder.Respond(ctx, text)
	return domain.SerializeReport(key, text, report, t.clock.Now())
}

// queryText pulls the question out of a message value. Values that are not
// JSON objects are taken as the question itself.
func queryText(value []byte) string {
	trimmed := strings.TrimSpace(string(value))
	if trimmed == "" {
		return domain.DefaultQuery
	}
	if !strings.HasPrefix(trimmed, "{") {
		return trimmed
	}
	msg, err := domain.ParseQueryMessage(value)
	if err != nil {
		return trimmed
	}
	return msg.Text
}
