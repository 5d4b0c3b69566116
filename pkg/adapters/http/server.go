package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/aretw0/coach/internal/logging"
	"github.com/aretw0/coach/pkg/conversation"
	"github.com/aretw0/coach/pkg/domain"
	"github.com/aretw0/coach/pkg/runner"
	"github.com/go-chi/chi/v5"
)

// maxBodySize bounds request bodies; utterances are limited further by the conversation.
const maxBodySize = 64 << 10

// Server exposes a runner.Service over HTTP.
type Server struct {
	Service *runner.Service
	Streams *StreamManager

	logger  *slog.Logger
	metrics http.Handler
	version string

	inputBody *bodySchema
	cardsBody *bodySchema
	apiInfo   string
}

// Option configures the HTTP handler.
type Option func(*Server)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetricsHandler mounts h at GET /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithVersion sets the version reported by GET /info.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = v
	}
}

// NewHandler creates the HTTP handler for the service. Turns are pushed to SSE
// subscribers through streams, which must also be registered as the service
// observer (runner.WithObserver(streams.Observe)).
func NewHandler(service *runner.Service, streams *StreamManager, opts ...Option) (http.Handler, error) {
	doc, err := Document()
	if err != nil {
		return nil, err
	}
	if streams == nil {
		streams = NewStreamManager()
	}

	server := &Server{
		Service: service,
		Streams: streams,
		logger:  logging.NewNop(),
		version: "dev",
		apiInfo: doc.Info.Version,
	}
	for _, opt := range opts {
		opt(server)
	}
	if server.inputBody, err = requestSchema(doc, "/sessions/{id}/input", http.MethodPost); err != nil {
		return nil, err
	}
	if server.cardsBody, err = requestSchema(doc, "/sessions/{id}/cards", http.MethodPost); err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Get("/health", server.GetHealth)
	r.Get("/info", server.GetInfo)
	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(rawSpec)
	})
	if server.metrics != nil {
		r.Method(http.MethodGet, "/metrics", server.metrics)
	}
	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", server.StartSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", server.GetSession)
			r.Delete("/", server.EndSession)
			r.Post("/input", server.SubmitInput)
			r.Post("/cards", server.SelectCard)
			r.Get("/events", server.SubscribeEvents)
		})
	})

	return enableCORS(r), nil
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":         "coach-http",
		"version":     s.version,
		"api_version": s.apiInfo,
	})
}

// StartSession handles POST /sessions.
func (s *Server) StartSession(w http.ResponseWriter, r *http.Request) {
	turn, err := s.Service.Start(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, turn)
}

// GetSession handles GET /sessions/{id}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.Service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, sess)
}

// EndSession handles DELETE /sessions/{id}.
func (s *Server) EndSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Service.End(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type inputRequest struct {
	Text string `json:"text"`
}

// SubmitInput handles POST /sessions/{id}/input.
func (s *Server) SubmitInput(w http.ResponseWriter, r *http.Request) {
	var body inputRequest
	if !s.readBody(w, r, s.inputBody, &body) {
		return
	}
	turn, err := s.Service.Input(r.Context(), chi.URLParam(r, "id"), body.Text)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, turn)
}

type cardsRequest struct {
	Index int `json:"index"`
}

// SelectCard handles POST /sessions/{id}/cards.
func (s *Server) SelectCard(w http.ResponseWriter, r *http.Request) {
	var body cardsRequest
	if !s.readBody(w, r, s.cardsBody, &body) {
		return
	}
	turn, err := s.Service.SelectCard(r.Context(), chi.URLParam(r, "id"), body.Index)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, turn)
}

// SubscribeEvents handles GET /sessions/{id}/events (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	if _, err := s.Service.Get(r.Context(), sessionID); err != nil {
		s.writeError(w, r, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SSE: streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.Streams.Subscribe(sessionID)
	defer cancel()

	s.logger.Info("SSE: client subscribed", "session_id", sessionID)
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE: client disconnected", "session_id", sessionID)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if msg.ended {
				fmt.Fprintf(w, "event: end\ndata: %s\n\n", msg.data)
				flusher.Flush()
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg.data)
			flusher.Flush()
		}
	}
}

func (s *Server) readBody(w http.ResponseWriter, r *http.Request, schema *bodySchema, dst any) bool {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		s.writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{Error: err.Error()})
		return false
	}
	if err := schema.decode(data, dst); err != nil {
		s.logger.Warn("invalid request body", "path", r.URL.Path, "err", err)
		s.writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return false
	}
	return true
}

type errorBody struct {
	Error string `json:"error"`
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrNoSelection),
		errors.Is(err, conversation.ErrInputTooLarge),
		errors.Is(err, conversation.ErrInvalidUTF8):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrConversationClosed):
		return http.StatusConflict
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "err", err)
	} else {
		s.logger.Debug("request rejected", "path", r.URL.Path, "status", status, "err", err)
	}
	s.writeJSON(w, status, errorBody{Error: err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}

type streamMessage struct {
	data  string
	ended bool
}

// StreamManager fans turns out to the SSE connections of each session.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- streamMessage]struct{}
	logger      *slog.Logger
}

// NewStreamManager creates an empty StreamManager.
func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan<- streamMessage]struct{}),
		logger:      logging.NewNop(),
	}
}

// SetLogger replaces the logger used to report dropped messages.
func (sm *StreamManager) SetLogger(logger *slog.Logger) {
	if logger != nil {
		sm.logger = logger
	}
}

// Subscribe registers a buffered channel for sessionID.
// The returned func unregisters and closes it.
func (sm *StreamManager) Subscribe(sessionID string) (<-chan streamMessage, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan streamMessage, 10)
	if _, ok := sm.subscribers[sessionID]; !ok {
		sm.subscribers[sessionID] = make(map[chan<- streamMessage]struct{})
	}
	sm.subscribers[sessionID][ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			sm.mu.Lock()
			defer sm.mu.Unlock()
			if subs, ok := sm.subscribers[sessionID]; ok {
				delete(subs, ch)
				close(ch)
				if len(subs) == 0 {
					delete(sm.subscribers, sessionID)
				}
			}
		})
	}
}

// Subscribers reports how many connections listen to sessionID.
func (sm *StreamManager) Subscribers(sessionID string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[sessionID])
}

// Broadcast sends data to every subscriber of sessionID. Slow clients drop messages.
func (sm *StreamManager) Broadcast(sessionID string, data string) {
	sm.broadcast(sessionID, streamMessage{data: data})
}

func (sm *StreamManager) broadcast(sessionID string, msg streamMessage) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[sessionID] {
		select {
		case ch <- msg:
		default:
			sm.logger.Warn("SSE: client buffer full, dropping message", "session_id", sessionID)
		}
	}
}

// Observe is a runner.Observer that streams each turn as JSON.
func (sm *StreamManager) Observe(ctx context.Context, sessionID string, turn *runner.Turn) {
	data, err := json.Marshal(turn)
	if err != nil {
		sm.logger.Error("SSE: turn encode failed", "session_id", sessionID, "err", err)
		return
	}
	sm.broadcast(sessionID, streamMessage{data: string(data), ended: turn.Ended})
}
