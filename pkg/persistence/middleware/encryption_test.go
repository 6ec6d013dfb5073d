package middleware_test

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"io"
	"strings"
	"testing"

	"github.com/aretw0/majbot/pkg/adapters/memory"
	"github.com/aretw0/majbot/pkg/domain"
	"github.com/aretw0/majbot/pkg/persistence/middleware"
	"github.com/aretw0/majbot/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, 32)
	_, err := io.ReadFull(rand.Reader, k)
	require.NoError(t, err)
	return k
}

func secure(t *testing.T, next ports.SessionStore, cfg middleware.EncryptionConfig) ports.SessionStore {
	mw, err := middleware.NewEncryptionMiddleware(cfg)
	require.NoError(t, err)
	return middleware.Chain(next, mw)
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	store := secure(t, memory.NewStore(), middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	ports.RunSessionStoreContract(t, store)
}

func TestEncryptionMiddleware_SealsDictionary(t *testing.T) {
	ctx := context.Background()
	underlying := memory.NewStore()
	store := secure(t, underlying, middleware.EncryptionConfig{ActiveKey: generateKey(t)})

	sess := domain.NewSession("s1", "3")
	sess.Dictionary["name"] = "Alice"
	require.NoError(t, store.Save(ctx, sess))

	raw, err := underlying.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "3", raw.Level, "level stays readable")
	require.Len(t, raw.Dictionary, 1)
	sealed := raw.Dictionary[middleware.EnvelopeKey]
	assert.NotEmpty(t, sealed)
	assert.False(t, strings.Contains(sealed, "Alice"))

	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"name": "Alice"}, loaded.Dictionary)
	assert.Equal(t, "Alice", sess.Dictionary["name"], "caller's session is untouched")
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	ctx := context.Background()
	underlying := memory.NewStore()
	oldKey, newKey := generateKey(t), generateKey(t)

	sess := domain.NewSession("rotate", "1")
	sess.Dictionary["city"] = "Paris"
	require.NoError(t, secure(t, underlying, middleware.EncryptionConfig{ActiveKey: oldKey}).Save(ctx, sess))

	t.Run("Fallback Opens Old Snapshot", func(t *testing.T) {
		store := secure(t, underlying, middleware.EncryptionConfig{ActiveKey: newKey, FallbackKeys: [][]byte{oldKey}})
		loaded, err := store.Load(ctx, "rotate")
		require.NoError(t, err)
		assert.Equal(t, "Paris", loaded.Dictionary["city"])
	})

	t.Run("Wrong Key Fails", func(t *testing.T) {
		store := secure(t, underlying, middleware.EncryptionConfig{ActiveKey: newKey})
		_, err := store.Load(ctx, "rotate")
		assert.ErrorContains(t, err, "decrypt")
	})
}

func TestEncryptionMiddleware_PlainSnapshotRejected(t *testing.T) {
	ctx := context.Background()
	underlying := memory.NewStore()
	require.NoError(t, underlying.Save(ctx, domain.NewSession("plain", "1")))

	store := secure(t, underlying, middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	_, err := store.Load(ctx, "plain")
	assert.ErrorContains(t, err, "envelope")
}

func TestNewEncryptionMiddleware_InvalidKey(t *testing.T) {
	_, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short")})
	assert.ErrorIs(t, err, middleware.ErrInvalidKey)

	_, err = middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    generateKey(t),
		FallbackKeys: [][]byte{[]byte("short")},
	})
	assert.ErrorIs(t, err, middleware.ErrInvalidKey)
}

func TestParseKey(t *testing.T) {
	key := generateKey(t)
	got, err := middleware.ParseKey(hex.EncodeToString(key))
	require.NoError(t, err)
	assert.Equal(t, key, got)

	_, err = middleware.ParseKey("zz")
	assert.Error(t, err)

	_, err = middleware.ParseKey(hex.EncodeToString(key[:16]))
	assert.ErrorIs(t, err, middleware.ErrInvalidKey)
}
