package observability_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/aretw0/majbot/internal/logging"
	"github.com/aretw0/majbot/internal/runtime"
	"github.com/aretw0/majbot/pkg/adapters/memory"
	"github.com/aretw0/majbot/pkg/domain"
	"github.com/aretw0/majbot/pkg/observability"
	"github.com/aretw0/majbot/pkg/registry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(t *testing.T, hooks domain.LifecycleHooks) *runtime.Engine {
	t.Helper()
	src := memory.MustSource([]domain.State{
		{ID: "0", Messages: []string{"name?"}, Keywords: []domain.Keyword{
			{Pattern: `(\w+)`, Variable: "name", Points: 1, Action: domain.Transition{Target: "1"}},
		}},
		{ID: "1", Messages: []string{"hi [name]"}, Keywords: []domain.Keyword{
			{Pattern: "forecast", Action: domain.Dispatch{Handler: "Weather"}},
			{Pattern: `remember (.+)`, Variable: "fact", Points: 1, Action: domain.Learn{Subject: "name"}},
		}},
	}, []string{"?"})

	reg := registry.NewRegistry()
	reg.Register("Weather", func(context.Context, string, string) (string, error) { return "sunny", nil })
	return runtime.NewEngine("", src, reg, runtime.WithLifecycleHooks(hooks))
}

func TestMetrics_Hooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)
	engine := newEngine(t, m.Hooks())
	ctx := context.Background()

	for _, input := range []string{"I am Jo", "forecast", "remember owns a cat", "xyzzy"} {
		_, err := engine.Send(ctx, input)
		require.NoError(t, err)
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.StateVisits.WithLabelValues("1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Captures.WithLabelValues("name")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Learned))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Invalid.WithLabelValues("1")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.HandlerDuration))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestLoggingHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWithWriter(&buf, slog.LevelDebug, true)

	hooks := observability.LoggingHooks(logger).Merge(observability.NewMetrics(nil).Hooks())
	engine := newEngine(t, hooks)

	_, err := engine.Send(context.Background(), "I am Jo")
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `"msg":"capture"`)
	assert.Contains(t, out, `"msg":"state_enter"`)
	assert.NotContains(t, out, "Jo", "captured values are not logged")
}
