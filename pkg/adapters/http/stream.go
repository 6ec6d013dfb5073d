package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/aretw0/majbot/internal/logging"
	"github.com/go-chi/chi/v5"
)

// streamBuffer is how many turns a slow subscriber may lag behind before turns are dropped.
const streamBuffer = 10

// StreamManager fans session turns out to SSE subscribers.
type StreamManager struct {
	mu     sync.RWMutex
	topics map[string]map[chan Turn]struct{}
	logger *slog.Logger
}

func NewStreamManager(logger *slog.Logger) *StreamManager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &StreamManager{
		topics: make(map[string]map[chan Turn]struct{}),
		logger: logger,
	}
}

// Subscribe registers a buffered channel for sessionID. The returned func
// unsubscribes and closes the channel.
func (sm *StreamManager) Subscribe(sessionID string) (<-chan Turn, func()) {
	ch := make(chan Turn, streamBuffer)

	sm.mu.Lock()
	subs, ok := sm.topics[sessionID]
	if !ok {
		subs = make(map[chan Turn]struct{})
		sm.topics[sessionID] = subs
	}
	subs[ch] = struct{}{}
	sm.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			sm.mu.Lock()
			defer sm.mu.Unlock()
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.topics, sessionID)
			}
		})
	}
}

// Subscribers reports how many streams follow sessionID.
func (sm *StreamManager) Subscribers(sessionID string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.topics[sessionID])
}

// Broadcast delivers turn to every subscriber of its session without blocking.
func (sm *StreamManager) Broadcast(turn Turn) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.topics[turn.SessionID] {
		select {
		case ch <- turn:
		default:
			sm.logger.Warn("SSE: subscriber lagging, turn dropped", "session_id", turn.SessionID)
		}
	}
}

// SubscribeEvents handles the GET /sessions/{id}/events request (SSE).
// Each turn is sent as an "event: turn" frame whose id counts turns on this stream.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	sessionID := chi.URLParam(r, "id")
	turns, cancel := s.Streams.Subscribe(sessionID)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	s.Logger.Info("SSE: subscribed", "session_id", sessionID)
	fmt.Fprint(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	var seq int
	for {
		select {
		case <-r.Context().Done():
			s.Logger.Info("SSE: client disconnected", "session_id", sessionID)
			return
		case turn, ok := <-turns:
			if !ok {
				return
			}
			payload, err := json.Marshal(turn)
			if err != nil {
				s.Logger.Error("SSE: encode turn", "session_id", sessionID, "err", err)
				continue
			}
			seq++
			fmt.Fprintf(w, "id: %d\nevent: turn\ndata: %s\n\n", seq, payload)
			flusher.Flush()
		}
	}
}
