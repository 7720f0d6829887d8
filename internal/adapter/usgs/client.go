package usgs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/couchcryptid/quake-agent/internal/domain"
	"github.com/couchcryptid/quake-agent/internal/observability"
	"github.com/jonboulle/clockwork"
)

const (
	// MinLimit and MaxLimit bound the result cap the client will request.
	MinLimit = 1
	MaxLimit = 200

	maxBodyBytes = 10 << 20

	timeLayout = "2006-01-02T15:04:05"

	unknownPlace = "Unknown location"
)

// ProviderError reports a non-2xx response from the event service.
type ProviderError struct {
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("usgs API error: status %d: %s", e.StatusCode, e.Body)
}

// Client implements domain.EventSource using the USGS FDSN event service.
// It holds no per-call state and is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	clock      clockwork.Clock
	metrics    *observability.Metrics
	logger     *slog.Logger
	closeOnce  sync.Once
}

// NewClient creates a USGS client. The underlying connection pool lives until Close.
func NewClient(baseURL string, timeout time.Duration, clock clockwork.Clock, metrics *observability.Metrics, logger *slog.Logger) *Client {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 60 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: tr,
		},
		clock:   clock,
		metrics: metrics,
		logger:  logger,
	}
}

// Fetch returns events matching f in provider order (most recent first).
// Provider failures are logged and yield an empty result, never an error.
func (c *Client) Fetch(ctx context.Context, f domain.Filter) ([]domain.Event, error) {
	start := c.clock.Now()
	features, err := c.query(ctx, f)
	c.metrics.ProviderDuration.Observe(c.clock.Since(start).Seconds())
	if err != nil {
		attrs := []any{"error", err, "min_magnitude", f.MinMagnitude, "hours_back", f.HoursBack}
		var perr *ProviderError
		if errors.As(err, &perr) {
			attrs = append(attrs, "status", perr.StatusCode)
		}
		c.logger.Warn("usgs query failed, returning no events", attrs...)
		c.metrics.ProviderRequests.WithLabelValues("error").Inc()
		return []domain.Event{}, nil
	}

	events := c.mapFeatures(features, f.Location)
	if len(events) == 0 {
		c.metrics.ProviderRequests.WithLabelValues("empty").Inc()
	} else {
		c.metrics.ProviderRequests.WithLabelValues("success").Inc()
	}
	return events, nil
}

// Close releases pooled connections. Safe to call more than once.
func (c *Client) Close() error {
	c.closeOnce.Do(c.httpClient.CloseIdleConnections)
	return nil
}

func (c *Client) query(ctx context.Context, f domain.Filter) ([]json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+c.queryParams(f).Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("usgs request: %w", err)
	}
	defer resp.Body.Close()

	// FDSN services answer 204 when nothing matches.
	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &ProviderError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var collection response
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&collection); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return collection.Features, nil
}

// queryParams translates a filter into FDSN query parameters.
func (c *Client) queryParams(f domain.Filter) url.Values {
	hours := min(max(f.HoursBack, 0), domain.MaxHoursBack)
	end := c.clock.Now().UTC()
	start := end.Add(-time.Duration(hours) * time.Hour)

	params := url.Values{
		"format":       {"geojson"},
		"starttime":    {start.Format(timeLayout)},
		"endtime":      {end.Format(timeLayout)},
		"minmagnitude": {formatMagnitude(f.MinMagnitude)},
		"orderby":      {"time"},
		"limit":        {strconv.Itoa(ClampLimit(f.Limit))},
	}
	if f.MaxMagnitude != nil {
		params.Set("maxmagnitude", formatMagnitude(*f.MaxMagnitude))
	}
	return params
}

// ClampLimit bounds a requested result cap to what the provider accepts.
func ClampLimit(n int) int {
	return min(max(n, MinLimit), MaxLimit)
}

func formatMagnitude(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// mapFeatures filters raw features by place substring and maps the survivors
// to events. Malformed features are skipped.
func (c *Client) mapFeatures(features []json.RawMessage, location string) []domain.Event {
	location = strings.ToLower(location)
	events := make([]domain.Event, 0, len(features))

	for i, raw := range features {
		var feat feature
		if err := json.Unmarshal(raw, &feat); err != nil {
			c.skip(i, "", err)
			continue
		}
		if location != "" && !strings.Contains(strings.ToLower(deref(feat.Properties.Place)), location) {
			continue
		}
		ev, err := feat.toEvent()
		if err != nil {
			c.skip(i, feat.ID, err)
			continue
		}
		events = append(events, ev)
	}
	return events
}

func (c *Client) skip(index int, id string, err error) {
	c.metrics.RecordsSkipped.Inc()
	c.logger.Debug("skipping malformed usgs feature", "index", index, "event_id", id, "error", err)
}

// USGS GeoJSON response types.

type response struct {
	Features []json.RawMessage `json:"features"`
}

type feature struct {
	ID         string     `json:"id"`
	Properties properties `json:"properties"`
	Geometry   geometry   `json:"geometry"`
}

type properties struct {
	Mag     *float64 `json:"mag"`
	Place   *string  `json:"place"`
	Time    *int64   `json:"time"` // epoch milliseconds
	URL     *string  `json:"url"`
	Alert   *string  `json:"alert"`
	Tsunami int      `json:"tsunami"` // 1 = bulletin issued
}

type geometry struct {
	Coordinates []float64 `json:"coordinates"` // [lon, lat, depth_km]
}

func (f feature) toEvent() (domain.Event, error) {
	if f.ID == "" {
		return domain.Event{}, errors.New("missing id")
	}
	if f.Properties.Time == nil {
		return domain.Event{}, errors.New("missing time")
	}
	if len(f.Geometry.Coordinates) < 3 {
		return domain.Event{}, fmt.Errorf("expected 3 coordinates, got %d", len(f.Geometry.Coordinates))
	}

	place := deref(f.Properties.Place)
	if place == "" {
		place = unknownPlace
	}

	var mag float64
	if f.Properties.Mag != nil {
		mag = *f.Properties.Mag
	}

	return domain.Event{
		ID:         f.ID,
		Magnitude:  mag,
		Place:      place,
		Time:       time.UnixMilli(*f.Properties.Time).UTC(),
		Latitude:   f.Geometry.Coordinates[1],
		Longitude:  f.Geometry.Coordinates[0],
		Depth:      f.Geometry.Coordinates[2],
		URL:        deref(f.Properties.URL),
		AlertLevel: deref(f.Properties.Alert),
		Tsunami:    f.Properties.Tsunami == 1,
	}, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
