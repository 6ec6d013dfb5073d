package runtime_test

import (
	"context"
	"testing"

	"github.com/aretw0/majbot/internal/runtime"
	"github.com/aretw0/majbot/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rememberRule() domain.Keyword {
	return domain.Keyword{
		Pattern:  `remember (.+)`,
		Variable: "fact",
		Points:   1,
		Action:   domain.Learn{Subject: "name"},
	}
}

func TestEngine_Learning(t *testing.T) {
	src := greetingSource(t, rememberRule())
	engine := runtime.NewEngine("0", src, nil)

	assert.Equal(t, "Hello Bob!", send(t, engine, "I am Bob"))
	assert.Equal(t, "1", engine.Level())

	before := len(src.States())
	assert.Equal(t, "Hello Bob!", send(t, engine, "remember loves tea"))
	assert.Equal(t, "1", engine.Level())
	require.Len(t, src.States(), before+1, "one learned state per turn")

	learned, err := src.State("2")
	require.NoError(t, err)
	assert.Equal(t, []string{"loves tea"}, learned.Messages)
	assert.True(t, learned.IsTerminal())

	top, err := src.State("1")
	require.NoError(t, err)
	last := top.Keywords[len(top.Keywords)-1]
	assert.Equal(t, domain.Keyword{Pattern: "Bob", Points: 1, Action: domain.Transition{Target: "2"}}, last)

	assert.Equal(t, "loves tea", send(t, engine, "Bob"))
	assert.Equal(t, "1", engine.Level())

	t.Run("Learn Does Not Touch Dictionary", func(t *testing.T) {
		assert.Equal(t, map[string]string{"name": "Bob"}, engine.Dictionary())
	})
}

func TestEngine_LearningWithoutSubject(t *testing.T) {
	src := greetingSource(t, rememberRule())
	engine := runtime.NewEngine("1", src, nil)
	before := len(src.States())

	assert.Equal(t, "Hello !", send(t, engine, "remember the milk"))
	assert.Equal(t, "1", engine.Level())
	assert.Len(t, src.States(), before, "nothing learned without a subject")
}

func TestEngine_LearningCustomTarget(t *testing.T) {
	rule := rememberRule()
	rule.Action = domain.Learn{Subject: "name", Target: "0"}
	src := greetingSource(t, rule)
	engine := runtime.NewEngine("1", src, nil, runtime.WithDictionary(map[string]string{"name": "Ann"}))

	assert.Equal(t, "Hi, what's your name?", send(t, engine, "remember plays chess"))
	assert.Equal(t, "0", engine.Level())
}

func TestEngine_LearnedRuleJoinsNextPassOnly(t *testing.T) {
	// The subject equals the utterance that triggers learning: the new rule must not
	// compete in the pass that created it.
	rule := domain.Keyword{Pattern: `(remember)`, Variable: "fact", Points: 0, Action: domain.Learn{Subject: "name"}}
	src := greetingSource(t, rule)
	engine := runtime.NewEngine("1", src, nil, runtime.WithDictionary(map[string]string{"name": "remember"}))

	reply, err := engine.Send(context.Background(), "remember")
	require.NoError(t, err)
	assert.Equal(t, "Hello remember!", reply)

	// Next turn the learned rule (one token, points 1: score 1) beats the regex rule (score 0).
	assert.Equal(t, "remember", send(t, engine, "remember"))
}
