package compiler

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/majbot/pkg/domain"
	"github.com/aretw0/majbot/pkg/regex"
)

// HandlerSet reports whether a response handler is registered. *registry.Registry satisfies it.
type HandlerSet interface {
	Has(name string) bool
}

// ValidationError lists every problem found in a definition.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("found %d errors:\n- %s", len(e.Problems), strings.Join(e.Problems, "\n- "))
}

// Validate checks the structural integrity of states: the entry and top-level states exist,
// every transition and learn target resolves, regex patterns compile and, when handlers is
// non-nil, every dispatch names a registered handler.
func Validate(states []domain.State, handlers HandlerSet) error {
	ids := make(map[string]bool, len(states))
	for _, st := range states {
		ids[st.ID] = true
	}

	var problems []string
	for _, id := range []string{domain.EntryStateID, domain.TopStateID} {
		if !ids[id] {
			problems = append(problems, fmt.Sprintf("missing required state '%s'", id))
		}
	}

	for _, st := range states {
		for _, k := range st.Keywords {
			where := fmt.Sprintf("state '%s' keyword %q", st.ID, k.Pattern)

			if k.IsRegex() {
				if _, err := regex.Compile(k.Pattern); err != nil {
					problems = append(problems, fmt.Sprintf("%s: %v", where, err))
				}
			}

			switch a := k.Action.(type) {
			case domain.Dispatch:
				if handlers != nil && !handlers.Has(a.Handler) {
					problems = append(problems, fmt.Sprintf("%s: unknown handler '%s'", where, a.Handler))
				}
			case domain.Learn:
				if k.Variable == "" {
					problems = append(problems, fmt.Sprintf("%s: learn rule without variable", where))
				}
			}

			if target := k.Target(); target != "" && !ids[target] {
				problems = append(problems, fmt.Sprintf("%s: target '%s' not found", where, target))
			} else if _, ok := k.Action.(domain.Transition); ok && target == "" {
				problems = append(problems, fmt.Sprintf("%s: missing target", where))
			}
		}
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// Unreachable returns the ids of states that no rule chain from the entry state reaches.
// The top-level state counts as reachable since the engine returns to it on its own.
func Unreachable(states []domain.State) []string {
	byID := make(map[string]domain.State, len(states))
	for _, st := range states {
		byID[st.ID] = st
	}

	visited := make(map[string]bool)
	queue := []string{domain.EntryStateID, domain.TopStateID}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if visited[current] {
			continue
		}
		visited[current] = true

		for _, k := range byID[current].Keywords {
			if target := k.Target(); target != "" && !visited[target] {
				queue = append(queue, target)
			}
		}
	}

	var out []string
	for id := range byID {
		if !visited[id] {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}
