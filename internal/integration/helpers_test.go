//go:build integration

package integration_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	tcKafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

// startKafka spins up a Kafka container and returns the broker address.
// The container is terminated via t.Cleanup.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	kc, err := tcKafka.Run(ctx, "confluentinc/confluent-local:7.6.0")
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = kc.Terminate(ctx) })

	brokers, err := kc.Brokers(ctx)
	require.NoError(t, err, "get kafka brokers")
	return brokers[0]
}

// createTopic creates a single-partition topic on the given broker.
func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err, "dial kafka for topic creation")
	defer func() { _ = conn.Close() }()

	err = conn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	})
	require.NoError(t, err, "create topic %s", topic)
}

// fakeUSGS serves a fixed GeoJSON feed with two events.
func fakeUSGS(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/geo+json")
		_, _ = io.WriteString(w, usgsFeed)
	}))
	t.Cleanup(srv.Close)
	return srv
}

const usgsFeed = `{
  "type": "FeatureCollection",
  "features": [
    {
      "id": "us7000m9g4",
      "properties": {"mag": 6.31, "place": "south of the Fiji Islands", "time": 1714144200000,
                     "url": "https://earthquake.usgs.gov/earthquakes/eventpage/us7000m9g4",
                     "alert": "green", "tsunami": 1},
      "geometry": {"type": "Point", "coordinates": [-178.1, -25.4, 560.2]}
    },
    {
      "id": "us7000m9a1",
      "properties": {"mag": 4.9, "place": "near the coast of Honshu, Japan", "time": 1714140000000,
                     "url": "", "alert": null, "tsunami": 0},
      "geometry": {"type": "Point", "coordinates": [141.2, 38.1, 35.0]}
    }
  ]
}`

// discardLogger returns a logger that discards all output.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
