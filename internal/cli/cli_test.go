package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/majbot/internal/logging"
	"github.com/aretw0/majbot/pkg/domain"
	"github.com/aretw0/majbot/pkg/runner"
	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const exampleBot = "../../examples/bots/majbot.yaml"

func TestNewBot_ExampleDefinition(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/Paris", r.URL.Path)
		fmt.Fprint(w, "Sunny +20°C")
	}))
	defer srv.Close()

	bot, err := NewBot(BotOptions{
		DefinitionPath: exampleBot,
		WeatherURL:     srv.URL,
		WeatherTimeout: time.Second,
		WeatherRetries: 0,
		Debug:          true,
	}, logging.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "majbot", bot.Name)

	ctx := context.Background()
	engine := bot.NewEngine()
	_, err = engine.Send(ctx, "I am Alice")
	require.NoError(t, err)

	reply, err := engine.Send(ctx, "what's the weather in Paris")
	require.NoError(t, err)
	assert.Equal(t, "Weather in Paris today: Sunny +20°C", reply)
	assert.Equal(t, domain.TopStateID, engine.Level())
}

func TestNewBot_Errors(t *testing.T) {
	t.Run("Missing File", func(t *testing.T) {
		_, err := NewBot(BotOptions{DefinitionPath: filepath.Join(t.TempDir(), "none.yaml")}, logging.NewNop())
		assert.ErrorContains(t, err, "error initializing bot")
	})

	t.Run("Dangling Target", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bot.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
invalid: ["?"]
states:
  - id: 0
    messages: ["a"]
    keywords: [{keyword: x, target: 9}]
  - id: 1
    messages: ["b"]
`), 0o644))
		_, err := NewBot(BotOptions{DefinitionPath: path}, logging.NewNop())
		assert.ErrorContains(t, err, "9")
	})
}

func TestSetupPersistence(t *testing.T) {
	ctx := context.Background()

	t.Run("No Session", func(t *testing.T) {
		store, closeStore, err := setupPersistence(RunOptions{})
		require.NoError(t, err)
		assert.Nil(t, store)
		closeStore()
	})

	t.Run("Bolt", func(t *testing.T) {
		opts := RunOptions{SessionID: "cli", BoltPath: filepath.Join(t.TempDir(), "s.db")}
		store, closeStore, err := setupPersistence(opts)
		require.NoError(t, err)
		defer closeStore()

		require.NoError(t, store.Save(ctx, domain.NewSession("cli", "1")))
		require.NoError(t, ResetSession(ctx, store, "cli"))
		_, err = store.Load(ctx, "cli")
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})
}

func TestCreateRunnerOptions(t *testing.T) {
	handler := runner.NewTextHandler(strings.NewReader(""), io.Discard)

	r := runner.NewRunner(createRunnerOptions(logging.NewNop(), "", nil, true, handler)...)
	assert.Same(t, handler, r.Handler, "explicit handler wins over --json")
	assert.Empty(t, r.SessionID, "no store, no session")

	r = runner.NewRunner(createRunnerOptions(logging.NewNop(), "s1", nil, true, nil)...)
	assert.IsType(t, &runner.JSONHandler{}, r.Handler)
	assert.Empty(t, r.SessionID)
}

func TestHandleExecutionError(t *testing.T) {
	assert.NoError(t, handleExecutionError(nil))
	assert.NoError(t, handleExecutionError(context.Canceled))
	assert.NoError(t, handleExecutionError(fmt.Errorf("input: %w", io.EOF)))

	boom := errors.New("boom")
	assert.ErrorIs(t, handleExecutionError(boom), boom)
}

func TestWatchDefinition(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bot.yaml")
	require.NoError(t, os.WriteFile(path, []byte("states: []\n"), 0o644))

	watcher, err := fsnotify.NewWatcher()
	require.NoError(t, err)
	defer watcher.Close()
	require.NoError(t, watcher.Add(dir))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	changes := watchDefinition(ctx, watcher, path, logging.NewNop())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o644))
	select {
	case name := <-changes:
		t.Fatalf("unexpected change for %s", name)
	case <-time.After(300 * time.Millisecond):
	}

	require.NoError(t, os.WriteFile(path, []byte("states: [1]\n"), 0o644))
	select {
	case name := <-changes:
		assert.Equal(t, path, name)
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}
}

func TestExecute_RejectsWatchWithJSON(t *testing.T) {
	err := Execute(RunOptions{Watch: true, JSON: true})
	assert.ErrorContains(t, err, "cannot be used together")
}
