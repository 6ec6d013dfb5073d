package majbot_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aretw0/majbot"
	"github.com/aretw0/majbot/internal/compiler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubForecaster struct{}

func (stubForecaster) Forecast(ctx context.Context, city, when string) (string, error) {
	return "", nil
}

func TestExampleDefinitions_Equivalent(t *testing.T) {
	yamlSrc, err := compiler.Load(filepath.Join("examples", "bots", "majbot.yaml"))
	require.NoError(t, err)
	xmlSrc, err := compiler.Load(filepath.Join("examples", "bots", "majbot.xml"))
	require.NoError(t, err)

	assert.Equal(t, yamlSrc.States(), xmlSrc.States())
	assert.Equal(t, yamlSrc.InvalidAnswers(), xmlSrc.InvalidAnswers())
	assert.Empty(t, compiler.Unreachable(yamlSrc.States()))
}

func TestExampleDefinition_Learning(t *testing.T) {
	bot, err := majbot.New(filepath.Join("examples", "bots", "majbot.yaml"), majbot.WithForecaster(stubForecaster{}))
	require.NoError(t, err)
	engine := bot.NewEngine()
	ctx := context.Background()

	for _, step := range []struct{ in, want string }{
		{"I'm Ana", "Nice to meet you, Ana! Ask me about music or the weather, or say 'tell me about' something."},
		{"tell me about Lisbon", "What should I remember about Lisbon?"},
		{"it has seven hills", "Nice to meet you, Ana! Ask me about music or the weather, or say 'tell me about' something."},
		{"Lisbon", "it has seven hills"},
		{"music", "What kind of music do you like?"},
		{"I like jazz", "Jazz! Miles Davis is my favourite."},
		{"bye", "Goodbye, Ana!"},
	} {
		reply, err := engine.Send(ctx, step.in)
		require.NoError(t, err, step.in)
		assert.Equal(t, step.want, reply, step.in)
	}
}
