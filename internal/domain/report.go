package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// reportPayload is the JSON body published for each answered query.
type reportPayload struct {
	Query       string    `json:"query"`
	Response    string    `json:"response"`
	Intent      Intent    `json:"intent"`
	Events      []Event   `json:"events,omitempty"`
	ProcessedAt time.Time `json:"processed_at"`
}

// SerializeReport marshals a report for the sink topic, keyed like its query.
func SerializeReport(key []byte, query string, r Report, processedAt time.Time) (OutputReport, error) {
	data, err := json.Marshal(reportPayload{
		Query:       query,
		Response:    r.Text,
		Intent:      r.Intent,
		Events:      r.Events,
		ProcessedAt: processedAt.UTC(),
	})
	if err != nil {
		return OutputReport{}, fmt.Errorf("serialize report: %w", err)
	}
	return OutputReport{
		Key:   key,
		Value: data,
		Headers: map[string]string{
			"intent":       string(r.Intent),
			"event_count":  strconv.Itoa(len(r.Events)),
			"processed_at": processedAt.UTC().Format(time.RFC3339),
		},
	}, nil
}
