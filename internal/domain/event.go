package domain

import (
	"context"
	"time"
)

// Filter is the structured query derived from free text.
type Filter struct {
	MinMagnitude float64  `json:"min_magnitude"`
	MaxMagnitude *float64 `json:"max_magnitude,omitempty"`
	HoursBack    int      `json:"hours_back"`
	Location     string   `json:"location,omitempty"` // lower-cased place substring, "" when unset
	Limit        int      `json:"limit"`
}

const (
	DefaultMinMagnitude = 4.5
	DefaultHoursBack    = 24
	DefaultLimit        = 10

	// MaxHoursBack is the widest lookback window (50 years). Extracted windows
	// saturate here so the rendered window matches the one queried.
	MaxHoursBack = 50 * 365 * 24
)

// DefaultFilter returns the filter used when the text carries no signals.
func DefaultFilter() Filter {
	return Filter{
		MinMagnitude: DefaultMinMagnitude,
		HoursBack:    DefaultHoursBack,
		Limit:        DefaultLimit,
	}
}

// Event is one seismic occurrence as reported by the provider.
type Event struct {
	ID         string    `json:"id"`
	Magnitude  float64   `json:"magnitude"`
	Place      string    `json:"place"`
	Time       time.Time `json:"time"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Depth      float64   `json:"depth"` // km
	URL        string    `json:"url"`
	AlertLevel string    `json:"alert_level,omitempty"`
	Tsunami    bool      `json:"tsunami"`
}

// EventSource fetches events matching a filter.
type EventSource interface {
	Fetch(ctx context.Context, f Filter) ([]Event, error)
}

// Intent classifies how a message was answered.
type Intent string

const (
	IntentGreeting Intent = "greeting"
	IntentHelp     Intent = "help"
	IntentQuery    Intent = "query"
	IntentError    Intent = "error"
)

// Report is the answer to one message.
type Report struct {
	Text   string
	Events []Event
	Intent Intent
}

// RawQuery represents an unprocessed query message from the source topic.
type RawQuery struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// OutputReport is the serialized form destined for the sink topic.
type OutputReport struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}
