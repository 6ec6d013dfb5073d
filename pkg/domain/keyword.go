package domain

// Wildcard is the pattern that matches any utterance with a fixed score.
const Wildcard = "*"

// Keyword is a single outgoing rule of a State.
// The pattern fields are shared; what happens on a match is described by Action.
// Keywords are values and are never mutated while matching.
type Keyword struct {
	// Pattern is "*", a space separated list of literal tokens, or a regular expression
	// when Variable is set.
	Pattern string

	// Variable names the session variable that receives the captured text.
	Variable string

	// Points is the score baseline used for tie-breaking. Higher wins.
	Points int

	Action Action
}

// Action is the effect of a matched Keyword. It is one of Transition, Dispatch or Learn.
type Action interface {
	isAction()
}

// Transition moves the conversation to Target.
type Transition struct {
	Target string
}

// Dispatch calls the named response handler with Arg and the captured text.
// The handler output replaces the normal reply and the engine resets to TopStateID.
type Dispatch struct {
	Handler string
	Arg     string
}

// Learn synthesizes a new leaf state holding the captured text, reachable from TopStateID
// through a rule keyed by the value previously captured under Subject.
// The conversation then proceeds to Target (TopStateID when empty).
type Learn struct {
	Subject string
	Target  string
}

func (Transition) isAction() {}
func (Dispatch) isAction()   {}
func (Learn) isAction()      {}

// IsRegex reports whether the pattern is evaluated as a regular expression.
func (k Keyword) IsRegex() bool {
	return k.Variable != "" && k.Pattern != Wildcard
}

// Target returns the successor state id for transition-like actions.
func (k Keyword) Target() string {
	switch a := k.Action.(type) {
	case Transition:
		return a.Target
	case Learn:
		if a.Target == "" {
			return TopStateID
		}
		return a.Target
	}
	return ""
}
