package domain

import "time"

// Session is the serializable snapshot of a conversation.
// Learned states are not part of it: they live only as long as the engine's source.
type Session struct {
	ID         string            `json:"id"`
	Level      string            `json:"level"`
	Dictionary map[string]string `json:"dictionary"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// NewSession creates a clean session starting at the given level.
func NewSession(id, level string) *Session {
	if level == "" {
		level = EntryStateID
	}
	return &Session{
		ID:         id,
		Level:      level,
		Dictionary: make(map[string]string),
	}
}

// Clone returns a copy with its own dictionary.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.Dictionary = make(map[string]string, len(s.Dictionary))
	for k, v := range s.Dictionary {
		out.Dictionary[k] = v
	}
	return &out
}
