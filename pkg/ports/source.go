package ports

import "github.com/aretw0/majbot/pkg/domain"

// StateSource is the repository of states an engine walks.
// It is single-writer: only the owning engine mutates it, and only while handling a turn.
type StateSource interface {
	// State returns a copy of the state with the given id.
	// It returns an error wrapping domain.ErrUnknownState if the id is absent.
	State(id string) (domain.State, error)

	// InvalidAnswer returns one of the configured "I didn't understand" replies.
	InvalidAnswer() string

	// AddState appends a state under the next counter id and returns that id.
	// Any ID set on the argument is ignored.
	AddState(state domain.State) string

	// AppendKeyword adds a rule to the end of an existing state's keyword list.
	AppendKeyword(stateID string, kw domain.Keyword) error
}

// Inspectable is implemented by sources that can enumerate their states,
// used by graph export and validation.
type Inspectable interface {
	States() []domain.State
}
