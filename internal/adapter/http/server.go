package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/quake-agent/internal/domain"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	agentName    = "Earthquake Monitoring Agent"
	agentVersion = "1.0.0"
	agentType    = "earthquake_monitor"

	maxRequestBytes = 1 << 20
)

// Responder answers a single conversational message.
type Responder interface {
	Respond(ctx context.Context, text string) domain.Report
}

// Server exposes the chat endpoints plus health, readiness, and metrics.
type Server struct {
	httpServer *http.Server
	responder  Responder
	clock      clockwork.Clock
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /chat, /a2a/agent/earthquake, /,
// /healthz, /readyz, and /metrics routes.
func NewServer(addr string, responder Responder, ready sharedobs.ReadinessChecker, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:    addr,
			Handler: mux,
			// Queries wait on the USGS timeout, so writes get more room than reads.
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 45 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		responder: responder,
		clock:     clockwork.NewRealClock(),
		logger:    logger,
	}

	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("POST /chat", s.handleChat)
	mux.HandleFunc("POST /a2a/agent/earthquake", s.handleA2A)
	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

type chatResponse struct {
	Response string         `json:"response"`
	Events   []domain.Event `json:"events,omitempty"`
}

type a2aResponse struct {
	Response       string         `json:"response"`
	Events         []domain.Event `json:"events,omitempty"`
	ConversationID string         `json:"conversationId"`
	Metadata       a2aMetadata    `json:"metadata"`
}

type a2aMetadata struct {
	EventCount int    `json:"event_count"`
	AgentType  string `json:"agent_type"`
	Intent     string `json:"intent"`
	Timestamp  string `json:"timestamp"`
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"name":        agentName,
		"version":     agentVersion,
		"status":      "active",
		"description": "Real-time global earthquake monitoring",
	})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	msg, err := readQueryMessage(w, r)
	if err != nil {
		s.logger.Warn("rejecting chat request", "error", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "request body must be JSON with a message"})
		return
	}

	report := s.responder.Respond(r.Context(), msg.Text)
	writeJSON(w, http.StatusOK, chatResponse{Response: report.Text, Events: report.Events})
}

func (s *Server) handleA2A(w http.ResponseWriter, r *http.Request) {
	msg, err := readQueryMessage(w, r)
	if err != nil {
		// The agent protocol never rejects a message; answer the default query instead.
		s.logger.Warn("unreadable a2a request, using default query", "error", err)
	}

	conversationID := msg.ConversationID
	if conversationID == "" {
		conversationID = uuid.NewString()
	}

	report := s.responder.Respond(r.Context(), msg.Text)
	writeJSON(w, http.StatusOK, a2aResponse{
		Response:       report.Text,
		Events:         report.Events,
		ConversationID: conversationID,
		Metadata: a2aMetadata{
			EventCount: len(report.Events),
			AgentType:  agentType,
			Intent:     string(report.Intent),
			Timestamp:  s.clock.Now().UTC().Format(time.RFC3339),
		},
	})
}

// readQueryMessage reads a bounded request body and extracts its query text.
func readQueryMessage(w http.ResponseWriter, r *http.Request) (domain.QueryMessage, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err != nil {
		return domain.QueryMessage{Text: domain.DefaultQuery}, fmt.Errorf("read body: %w", err)
	}
	return domain.ParseQueryMessage(body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
