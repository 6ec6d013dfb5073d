package domain

// Well-known state identifiers.
const (
	// EntryStateID is the state a new conversation starts at.
	EntryStateID = "0"
	// TopStateID is the top-level menu the engine returns to after a leaf reply or a handler dispatch.
	TopStateID = "1"
)

// State is a node of the conversation graph.
type State struct {
	ID string `json:"id" yaml:"id"`

	// Messages holds the prompt variants. Only the first one is rendered.
	Messages []string `json:"messages" yaml:"messages"`

	// Keywords are the outgoing rules, evaluated in declaration order.
	// An empty list marks a terminal state.
	Keywords []Keyword `json:"keywords" yaml:"keywords"`
}

// IsTerminal reports whether the state has no outgoing rules.
func (s State) IsTerminal() bool {
	return len(s.Keywords) == 0
}

// Prompt returns the first message, or an empty string.
func (s State) Prompt() string {
	if len(s.Messages) == 0 {
		return ""
	}
	return s.Messages[0]
}

// Clone returns a deep copy so callers can mutate the result freely.
func (s State) Clone() State {
	out := State{ID: s.ID}
	if s.Messages != nil {
		out.Messages = append([]string(nil), s.Messages...)
	}
	if s.Keywords != nil {
		out.Keywords = append([]Keyword(nil), s.Keywords...)
	}
	return out
}
