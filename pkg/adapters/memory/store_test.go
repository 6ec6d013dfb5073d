package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/majbot/pkg/adapters/memory"
	"github.com/aretw0/majbot/pkg/domain"
	"github.com/aretw0/majbot/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunSessionStoreContract(t, store)
}

func TestMemoryStore_Isolation(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	sess := domain.NewSession("iso", "1")
	sess.Dictionary["name"] = "Alice"
	require.NoError(t, store.Save(ctx, sess))

	// Mutating the caller's copy must not leak into the store.
	sess.Dictionary["name"] = "Mallory"

	loaded, err := store.Load(ctx, "iso")
	require.NoError(t, err)
	assert.Equal(t, "Alice", loaded.Dictionary["name"])
	assert.False(t, loaded.UpdatedAt.IsZero())
}
