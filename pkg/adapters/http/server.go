package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/majbot/internal/logging"
	"github.com/aretw0/majbot/internal/presentation/graph"
	"github.com/aretw0/majbot/pkg/domain"
	"github.com/aretw0/majbot/pkg/ports"
	"github.com/aretw0/majbot/pkg/runner"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

// Conversations is the multi-session surface the server exposes.
// *session.Manager satisfies it.
type Conversations interface {
	Start(ctx context.Context, sessionID string) (*domain.Session, string, error)
	Message(ctx context.Context, sessionID string) (string, error)
	Send(ctx context.Context, sessionID, text string) (string, error)
	Load(ctx context.Context, sessionID string) (*domain.Session, error)
	Delete(ctx context.Context, sessionID string) error
	List(ctx context.Context) ([]string, error)
}

// Server serves conversations over HTTP, SSE and websockets.
type Server struct {
	Conversations Conversations
	Streams       *StreamManager
	Graph         ports.Inspectable
	Metrics       http.Handler
	Logger        *slog.Logger
	MaxInputSize  int
	Version       string

	upgrader websocket.Upgrader
}

// Option configures the Server.
type Option func(*Server)

// WithGraph enables GET /graph over the given definition.
func WithGraph(g ports.Inspectable) Option {
	return func(s *Server) {
		s.Graph = g
	}
}

// WithMetrics mounts h (typically promhttp.Handler()) on GET /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.Metrics = h
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.Logger = logger
		}
	}
}

// WithMaxInputSize overrides runner.DefaultMaxInputSize for utterances.
func WithMaxInputSize(n int) Option {
	return func(s *Server) {
		s.MaxInputSize = n
	}
}

// WithVersion sets the version reported by GET /info.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.Version = strings.TrimSpace(v)
	}
}

// NewServer creates a Server over conv.
func NewServer(conv Conversations, opts ...Option) *Server {
	s := &Server{
		Conversations: conv,
		Logger:        logging.NewNop(),
		MaxInputSize:  runner.DefaultMaxInputSize,
		Version:       "unknown",
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.MaxInputSize <= 0 {
		s.MaxInputSize = runner.DefaultMaxInputSize
	}
	s.Streams = NewStreamManager(s.Logger)
	return s
}

// NewHandler creates the HTTP handler for conv.
func NewHandler(conv Conversations, opts ...Option) http.Handler {
	return NewServer(conv, opts...).Routes()
}

// Routes builds the chi router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/graph", s.GetGraph)
	if s.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.Metrics)
	}

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", s.ListSessions)
		r.Post("/", s.StartSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.GetSession)
			r.Delete("/", s.DeleteSession)
			r.Get("/message", s.GetMessage)
			r.Post("/messages", s.SendMessage)
			r.Get("/events", s.SubscribeEvents)
			r.Get("/ws", s.Chat)
		})
	})

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SessionResponse is a session snapshot plus the prompt it currently shows.
type SessionResponse struct {
	*domain.Session
	Reply string `json:"reply,omitempty"`
}

// MessageRequest is the body of POST /sessions/{id}/messages.
type MessageRequest struct {
	Text string `json:"text"`
}

// Turn is broadcast to SSE subscribers after every processed message.
type Turn struct {
	SessionID string       `json:"session_id"`
	Input     string       `json:"input"`
	Reply     runner.Reply `json:"reply"`
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "majbot-http",
		"version": s.Version,
	})
}

// GetGraph handles the GET /graph request, rendering the definition as Mermaid.
// With ?session_id= the session's current state is highlighted.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	if s.Graph == nil {
		http.Error(w, "graph not available", http.StatusNotFound)
		return
	}

	var overlay *graph.GraphOverlay
	if id := r.URL.Query().Get("session_id"); id != "" {
		sess, err := s.Conversations.Load(r.Context(), id)
		if err != nil {
			s.writeError(w, err)
			return
		}
		overlay = &graph.GraphOverlay{CurrentState: sess.Level}
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, graph.GenerateMermaid(s.Graph.States(), overlay))
}

// ListSessions handles the GET /sessions request.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Conversations.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"sessions": ids})
}

// StartSession handles the POST /sessions request. The body may carry {"id": "..."};
// without it a new id is generated.
func (s *Server) StartSession(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ID string `json:"id"`
	}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			s.Logger.Warn("StartSession: invalid request body", "err", err)
			return
		}
	}

	sess, reply, err := s.Conversations.Start(r.Context(), body.ID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, SessionResponse{Session: sess, Reply: reply})
}

// GetSession handles the GET /sessions/{id} request.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.Conversations.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, SessionResponse{Session: sess})
}

// DeleteSession handles the DELETE /sessions/{id} request.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Conversations.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetMessage handles the GET /sessions/{id}/message request.
func (s *Server) GetMessage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	msg, err := s.Conversations.Message(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, runner.Reply{Text: msg, Level: s.level(r.Context(), id)})
}

// SendMessage handles the POST /sessions/{id}/messages request.
// Turn failures are answered with a Reply carrying the error, since captures made before
// the failure are kept.
func (s *Server) SendMessage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var body MessageRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, int64(s.MaxInputSize)*4+512)).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.Logger.Warn("SendMessage: invalid request body", "err", err, "session_id", id)
		return
	}

	reply, status := s.turn(r.Context(), id, body.Text)
	s.writeJSON(w, status, reply)
}

// turn sanitizes text, runs it through the session and broadcasts the outcome.
func (s *Server) turn(ctx context.Context, id, text string) (runner.Reply, int) {
	clean, err := runner.SanitizeInput(text, s.MaxInputSize)
	if err != nil {
		s.Logger.Warn("input rejected", "err", err, "size", len(text), "session_id", id)
		return runner.Reply{Error: err.Error()}, statusFor(err)
	}

	out, err := s.Conversations.Send(ctx, id, clean)
	reply := runner.Reply{Text: out, Level: s.level(ctx, id)}
	status := http.StatusOK
	if err != nil {
		s.Logger.Error("turn failed", "session_id", id, "err", err)
		reply.Error = err.Error()
		status = statusFor(err)
		if status == http.StatusNotFound {
			return reply, status
		}
	}

	s.Streams.Broadcast(Turn{SessionID: id, Input: clean, Reply: reply})
	return reply, status
}

func (s *Server) level(ctx context.Context, id string) string {
	sess, err := s.Conversations.Load(ctx, id)
	if err != nil {
		return ""
	}
	return sess.Level
}

func statusFor(err error) int {
	var handlerErr *domain.HandlerError
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, runner.ErrInputTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, runner.ErrInvalidUTF8):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnknownHandler):
		return http.StatusInternalServerError
	case errors.As(err, &handlerErr):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.Logger.Error("request failed", "err", err)
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Error("response encode failed", "err", err)
	}
}
