package registry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/majbot/pkg/domain"
	"github.com/aretw0/majbot/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Execute(t *testing.T) {
	reg := registry.NewRegistry()
	reg.Register("Echo", func(ctx context.Context, arg, captured string) (string, error) {
		return arg + ":" + captured, nil
	})

	got, err := reg.Execute(context.Background(), "Echo", "today", "Paris")
	require.NoError(t, err)
	assert.Equal(t, "today:Paris", got)
	assert.True(t, reg.Has("Echo"))
}

func TestRegistry_UnknownHandler(t *testing.T) {
	reg := registry.NewRegistry()

	_, err := reg.Execute(context.Background(), "Weather", "", "")
	assert.ErrorIs(t, err, domain.ErrUnknownHandler)
	assert.False(t, reg.Has("Weather"))
}

func TestRegistry_OverwriteAndNames(t *testing.T) {
	reg := registry.NewRegistry()
	reg.Register("b", func(context.Context, string, string) (string, error) { return "first", nil })
	reg.Register("a", func(context.Context, string, string) (string, error) { return "", errors.New("boom") })
	reg.Register("b", func(context.Context, string, string) (string, error) { return "second", nil })

	assert.Equal(t, []string{"a", "b"}, reg.Names())

	got, err := reg.Execute(context.Background(), "b", "", "")
	require.NoError(t, err)
	assert.Equal(t, "second", got)

	_, err = reg.Execute(context.Background(), "a", "", "")
	assert.EqualError(t, err, "boom")
}
