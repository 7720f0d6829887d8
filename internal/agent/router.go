// Package agent answers conversational earthquake questions.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/couchcryptid/quake-agent/internal/domain"
	"github.com/couchcryptid/quake-agent/internal/observability"
)

const greetingText = "Hello! I monitor earthquakes worldwide.\n\n" +
	"Try:\n" +
	"• show 5 earthquakes above magnitude 5 in the last 24 hours\n" +
	"• earthquakes in Japan in the last 7 days\n" +
	"• magnitude 6+ today near Indonesia"

const helpText = "I can filter by:\n" +
	"• Magnitude (e.g., '>=5', 'm5+', 'above 4.5', 'below 7')\n" +
	"• Time (e.g., 'last 24 hours', 'past 7 days', 'today', 'this week')\n" +
	"• Location (e.g., 'in Japan', 'near California')\n" +
	"• Limit (e.g., 'show 10')"

var (
	greetingRe = regexp.MustCompile(`\b(?:hello|hi|hey)\b`)
	helpRe     = regexp.MustCompile(`\bhelp\b`)
)

// Router classifies a message as greeting, help, or query and answers it.
type Router struct {
	source  domain.EventSource
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewRouter creates a Router that answers queries from source.
func NewRouter(source domain.EventSource, logger *slog.Logger, metrics *observability.Metrics) *Router {
	return &Router{
		source:  source,
		logger:  logger,
		metrics: metrics,
	}
}

// Respond answers one message. It never fails: query-path errors and panics
// become an apology report.
func (r *Router) Respond(ctx context.Context, text string) domain.Report {
	report := r.respond(ctx, text)
	r.metrics.Requests.WithLabelValues(string(report.Intent)).Inc()
	return report
}

func (r *Router) respond(ctx context.Context, text string) domain.Report {
	low := strings.ToLower(text)

	switch {
	case greetingRe.MatchString(low):
		return domain.Report{Text: greetingText, Intent: domain.IntentGreeting}
	case helpRe.MatchString(low):
		return domain.Report{Text: helpText, Intent: domain.IntentHelp}
	}

	report, err := r.query(ctx, text)
	if err != nil {
		r.metrics.RespondErrors.Inc()
		r.logger.Error("query failed", "error", err, "text", text)
		return domain.Report{
			Text:   fmt.Sprintf("Sorry, something went wrong: %s. Please try again or type 'help'.", err),
			Intent: domain.IntentError,
		}
	}
	return report
}

// query runs extract, fetch, render. A panic anywhere below is returned as an error.
func (r *Router) query(ctx context.Context, text string) (report domain.Report, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%v", rec)
		}
	}()

	f := domain.ExtractFilter(text)
	r.logger.Debug("extracted filter",
		"min_magnitude", f.MinMagnitude,
		"hours_back", f.HoursBack,
		"location", f.Location,
		"limit", f.Limit,
	)

	events, err := r.source.Fetch(ctx, f)
	if err != nil {
		return domain.Report{}, err
	}
	r.metrics.EventsReturned.Observe(float64(len(events)))

	return domain.Report{
		Text:   domain.RenderReport(events, f),
		Events: events,
		Intent: domain.IntentQuery,
	}, nil
}

// CheckReadiness reports whether the router can answer queries.
func (r *Router) CheckReadiness(_ context.Context) error {
	if r.source == nil {
		return errors.New("no event source configured")
	}
	return nil
}
