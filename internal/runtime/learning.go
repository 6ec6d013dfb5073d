package runtime

import (
	"context"

	"github.com/aretw0/majbot/pkg/domain"
)

// apply commits the side effects of a winning rule: learning or variable capture.
// It runs after the matching pass, so rules appended here never join the pass that
// produced them.
func (e *Engine) apply(ctx context.Context, stateID string, m Match) {
	if l, ok := m.Keyword.Action.(domain.Learn); ok {
		e.learn(ctx, l, m.Captured)
		return
	}

	if m.Captured != "" {
		e.dict[m.Keyword.Variable] = m.Captured
		e.emitCapture(ctx, stateID, m.Keyword.Variable, m.Captured)
	}
}

// learn synthesizes a leaf state holding value, reachable from the top-level state by a
// rule keyed on the previously captured subject. A missing subject is a silent no-op.
func (e *Engine) learn(ctx context.Context, l domain.Learn, value string) {
	subject, ok := e.dict[l.Subject]
	if !ok {
		e.logger.Debug("learning skipped, subject not captured yet", "subject", l.Subject)
		return
	}

	id := e.source.AddState(domain.State{Messages: []string{value}})
	kw := domain.Keyword{
		Pattern: subject,
		Points:  1,
		Action:  domain.Transition{Target: id},
	}
	if err := e.source.AppendKeyword(domain.TopStateID, kw); err != nil {
		e.logger.Warn("learned rule not attached", "state_id", id, "err", err)
		return
	}

	e.logger.Info("learned new state", "subject", subject, "state_id", id)
	e.emitLearn(ctx, subject, id)
}
