// Package compiler turns bot definition documents into a state source.
package compiler

import (
	"fmt"
	"strings"

	"github.com/aretw0/majbot/pkg/adapters/memory"
	"github.com/aretw0/majbot/pkg/domain"
)

// Definition is the decoded, format-independent form of a bot definition document.
// It uses "mapstructure" tags so YAML and JSON documents share one schema.
type Definition struct {
	States         []StateSpec `json:"states" mapstructure:"states"`
	Invalid        []string    `json:"invalid" mapstructure:"invalid"`
	InvalidAnswers []string    `json:"invalid_answers,omitempty" mapstructure:"invalid_answers"`
}

// StateSpec is a state record as written in a document.
type StateSpec struct {
	ID       string        `json:"id" mapstructure:"id"`
	Messages []string      `json:"messages" mapstructure:"messages"`
	Message  string        `json:"message,omitempty" mapstructure:"message"`
	Keywords []KeywordSpec `json:"keywords" mapstructure:"keywords"`
}

// KeywordSpec is the flat rule record shared by every document format.
// The action is derived with precedence ClassName, then Learn, then Target.
type KeywordSpec struct {
	Keyword   string `json:"keyword" mapstructure:"keyword"`
	Target    string `json:"target,omitempty" mapstructure:"target"`
	ClassName string `json:"className,omitempty" mapstructure:"className"`
	Arg       string `json:"arg,omitempty" mapstructure:"arg"`
	Variable  string `json:"variable,omitempty" mapstructure:"variable"`
	Points    int    `json:"points,omitempty" mapstructure:"points"`
	Learn     string `json:"learn,omitempty" mapstructure:"learn"`
}

// Action maps the flat record onto the domain action it describes.
func (k KeywordSpec) Action() domain.Action {
	switch {
	case k.ClassName != "":
		return domain.Dispatch{Handler: k.ClassName, Arg: k.Arg}
	case k.Learn != "":
		return domain.Learn{Subject: k.Learn, Target: k.Target}
	default:
		return domain.Transition{Target: k.Target}
	}
}

// Answers returns the invalid-answer pool, accepting both spellings of the key.
func (d *Definition) Answers() []string {
	if len(d.Invalid) > 0 {
		return d.Invalid
	}
	return d.InvalidAnswers
}

// Domain converts the definition into domain states, in document order.
func (d *Definition) Domain() ([]domain.State, error) {
	states := make([]domain.State, 0, len(d.States))
	for i, s := range d.States {
		id := strings.TrimSpace(s.ID)
		if id == "" {
			return nil, fmt.Errorf("state #%d: missing id", i)
		}

		msgs := s.Messages
		if len(msgs) == 0 && s.Message != "" {
			msgs = []string{s.Message}
		}

		st := domain.State{ID: id, Messages: msgs}
		for j, k := range s.Keywords {
			if k.Keyword == "" {
				return nil, fmt.Errorf("state %s keyword #%d: empty pattern", id, j)
			}
			if k.Points < 0 {
				return nil, fmt.Errorf("state %s keyword %q: negative points", id, k.Keyword)
			}
			st.Keywords = append(st.Keywords, domain.Keyword{
				Pattern:  k.Keyword,
				Variable: k.Variable,
				Points:   k.Points,
				Action:   k.Action(),
			})
		}
		states = append(states, st)
	}
	return states, nil
}

// Source builds an in-memory state source from the definition.
func (d *Definition) Source() (*memory.Source, error) {
	states, err := d.Domain()
	if err != nil {
		return nil, err
	}
	return memory.NewSource(states, d.Answers())
}
