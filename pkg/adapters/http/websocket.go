package http

import (
	"net/http"

	"github.com/aretw0/majbot/pkg/runner"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

// Chat handles GET /sessions/{id}/ws. The session is started (or resumed) on connect and
// its prompt sent; every inbound {"text": ...} frame is answered with a Reply frame.
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	c, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.Logger.Warn("websocket upgrade failed", "err", err, "session_id", id)
		return
	}
	defer c.Close()

	ctx := r.Context()
	sess, prompt, err := s.Conversations.Start(ctx, id)
	if err != nil {
		_ = c.WriteJSON(runner.Reply{Error: err.Error()})
		return
	}
	if err := c.WriteJSON(runner.Reply{Text: prompt, Level: sess.Level}); err != nil {
		return
	}

	for {
		var msg MessageRequest
		if err := c.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.Logger.Debug("websocket read ended", "err", err, "session_id", id)
			}
			return
		}

		reply, _ := s.turn(ctx, id, msg.Text)
		if err := c.WriteJSON(reply); err != nil {
			s.Logger.Warn("websocket write failed", "err", err, "session_id", id)
			return
		}
	}
}
