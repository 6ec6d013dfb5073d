package memory

import (
	"fmt"
	"math/rand/v2"
	"sort"
	"strconv"
	"sync"

	"github.com/aretw0/majbot/pkg/domain"
)

// Source implements ports.StateSource over an in-memory map.
// Reads are safe for concurrent use; learning still assumes a single owning engine.
type Source struct {
	mu      sync.RWMutex
	states  map[string]*domain.State
	order   []string
	invalid []string
	counter int
}

// NewSource builds a source from the given states and invalid-answer pool.
// The entry ("0") and top-level ("1") states must be present and ids must be unique.
func NewSource(states []domain.State, invalid []string) (*Source, error) {
	if len(invalid) == 0 {
		return nil, domain.ErrNoInvalidAnswers
	}

	s := &Source{
		states:  make(map[string]*domain.State, len(states)),
		invalid: append([]string(nil), invalid...),
	}

	maxID := -1
	for _, st := range states {
		if st.ID == "" {
			return nil, fmt.Errorf("state missing id")
		}
		if _, dup := s.states[st.ID]; dup {
			return nil, fmt.Errorf("duplicate state id %q", st.ID)
		}
		if len(st.Messages) == 0 {
			return nil, fmt.Errorf("state %q has no messages", st.ID)
		}
		clone := st.Clone()
		s.states[st.ID] = &clone
		s.order = append(s.order, st.ID)

		if n, err := strconv.Atoi(st.ID); err == nil && n > maxID {
			maxID = n
		}
	}

	for _, id := range []string{domain.EntryStateID, domain.TopStateID} {
		if _, ok := s.states[id]; !ok {
			return nil, fmt.Errorf("%w: %q", domain.ErrMissingState, id)
		}
	}

	s.counter = maxID + 1
	return s, nil
}

// MustSource is like NewSource but panics on error. Intended for tests and examples.
func MustSource(states []domain.State, invalid []string) *Source {
	s, err := NewSource(states, invalid)
	if err != nil {
		panic(err)
	}
	return s
}

// State returns a copy of the state with the given id.
func (s *Source) State(id string) (domain.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.states[id]
	if !ok {
		return domain.State{}, &domain.UnknownStateError{ID: id}
	}
	return st.Clone(), nil
}

// InvalidAnswer returns a random reply from the pool.
func (s *Source) InvalidAnswer() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.invalid[rand.IntN(len(s.invalid))]
}

// InvalidAnswers returns a copy of the configured pool.
func (s *Source) InvalidAnswers() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.invalid...)
}

// AddState stores a copy of state under the next counter id.
func (s *Source) AddState(state domain.State) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := strconv.Itoa(s.counter)
	for s.states[id] != nil {
		s.counter++
		id = strconv.Itoa(s.counter)
	}
	s.counter++

	clone := state.Clone()
	clone.ID = id
	s.states[id] = &clone
	s.order = append(s.order, id)
	return id
}

// AppendKeyword adds a rule to the end of an existing state's keyword list.
func (s *Source) AppendKeyword(stateID string, kw domain.Keyword) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.states[stateID]
	if !ok {
		return &domain.UnknownStateError{ID: stateID}
	}
	st.Keywords = append(st.Keywords, kw)
	return nil
}

// States returns copies of all states in definition order, learned states last.
func (s *Source) States() []domain.State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.State, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.states[id].Clone())
	}
	return out
}

// IDs returns all state ids in sorted order.
func (s *Source) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := append([]string(nil), s.order...)
	sort.Strings(ids)
	return ids
}

// Clone returns an independent deep copy, including learned states and the id counter.
// Hosts serving several sessions give each engine its own clone.
func (s *Source) Clone() *Source {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := &Source{
		states:  make(map[string]*domain.State, len(s.states)),
		order:   append([]string(nil), s.order...),
		invalid: append([]string(nil), s.invalid...),
		counter: s.counter,
	}
	for id, st := range s.states {
		clone := st.Clone()
		out.states[id] = &clone
	}
	return out
}
