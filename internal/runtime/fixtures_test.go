package runtime_test

import (
	"context"
	"testing"

	"github.com/aretw0/majbot/internal/runtime"
	"github.com/aretw0/majbot/pkg/adapters/memory"
	"github.com/aretw0/majbot/pkg/domain"
	"github.com/aretw0/majbot/pkg/registry"
	"github.com/stretchr/testify/require"
)

var invalidPool = []string{"Sorry, I didn't understand.", "Could you rephrase that?"}

func nameCapture(target string) domain.Keyword {
	return domain.Keyword{Pattern: `(\w+)`, Variable: "name", Points: 1, Action: domain.Transition{Target: target}}
}

// greetingSource is the minimal two-state graph: ask for a name, then greet.
func greetingSource(t *testing.T, top ...domain.Keyword) *memory.Source {
	t.Helper()
	src, err := memory.NewSource([]domain.State{
		{ID: "0", Messages: []string{"Hi, what's your name?"}, Keywords: []domain.Keyword{nameCapture("1")}},
		{ID: "1", Messages: []string{"Hello [name]!"}, Keywords: top},
	}, invalidPool)
	require.NoError(t, err)
	return src
}

type call struct {
	arg, captured string
}

// recordingRegistry registers a handler that records its calls and replies with reply.
func recordingRegistry(name, reply string) (*registry.Registry, *[]call) {
	calls := &[]call{}
	reg := registry.NewRegistry()
	reg.Register(name, func(ctx context.Context, arg, captured string) (string, error) {
		*calls = append(*calls, call{arg, captured})
		return reply, nil
	})
	return reg, calls
}

func send(t *testing.T, e *runtime.Engine, text string) string {
	t.Helper()
	reply, err := e.Send(context.Background(), text)
	require.NoError(t, err, "send %q", text)
	return reply
}
