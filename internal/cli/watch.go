package cli

import (
	"context"
	"crypto/md5"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/aretw0/majbot"
	"github.com/aretw0/majbot/internal/presentation/tui"
	"github.com/aretw0/majbot/pkg/adapters/memory"
	"github.com/aretw0/majbot/pkg/ports"
	"github.com/aretw0/majbot/pkg/runner"
	"github.com/fsnotify/fsnotify"
)

// settleDelay lets editors finish writing before the definition is reloaded.
const settleDelay = 100 * time.Millisecond

// RunWatch executes MajBot in development mode, reloading the definition on file changes.
// The conversation snapshot survives reloads; learned states do not.
func RunWatch(opts RunOptions) error {
	logger := createLogger(opts.Debug)
	tui.PrintBanner(os.Stdout, majbot.Version)

	path, err := filepath.Abs(opts.DefinitionPath)
	if err != nil {
		return err
	}

	// Without --session the snapshot lives in memory, scoped by path hash.
	var (
		store      ports.SessionStore = memory.NewStore()
		closeStore                    = func() {}
	)
	if opts.SessionID != "" {
		if store, closeStore, err = setupPersistence(opts); err != nil {
			return err
		}
	} else {
		hash := md5.Sum([]byte(path))
		opts.SessionID = fmt.Sprintf("watch-%x", hash[:4])
	}
	defer closeStore()

	sigCtx := NewSignalContext(context.Background())
	defer sigCtx.Cancel()

	if opts.Fresh {
		if err := ResetSession(sigCtx, store, opts.SessionID); err != nil {
			return err
		}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(path), err)
	}

	logger.Info("Starting Watcher", "path", path, "session_id", opts.SessionID)
	printSystemMessage("Watching '%s' (session '%s').", filepath.Base(path), opts.SessionID)

	changes := watchDefinition(sigCtx, watcher, path, logger)

	// Reuse the same IO handler so reloads never start a second Stdin reader.
	ioHandler := runner.NewTextHandler(os.Stdin, os.Stdout, runner.WithTextHandlerRenderer(tui.NewRenderer()))

	for runWatchIteration(sigCtx, opts, store, ioHandler, changes, logger) {
		logger.Info("Watcher restarting")
	}
	return nil
}

// runWatchIteration runs one conversation over the current definition.
// It reports whether the definition changed and the loop should continue.
func runWatchIteration(parentCtx *SignalContext, opts RunOptions, store ports.SessionStore, ioHandler runner.IOHandler, changes <-chan string, logger *slog.Logger) bool {
	bot, err := NewBot(opts.botOptions(), logger)
	if err != nil {
		logger.Error("Bot initialization failed", "err", err)
		printSystemMessage("Definition invalid: %v", err)
		printSystemMessage("Waiting for changes...")
		select {
		case <-parentCtx.Done():
			return false
		case <-changes:
			return true
		}
	}

	engine := bot.NewEngine()
	loaded, err := runner.Resume(parentCtx, store, engine, opts.SessionID)
	if err != nil {
		// The stored level may have been removed from the definition.
		logger.Warn("Snapshot incompatible with definition, starting over", "err", err)
		printSystemMessage("Previous state no longer exists, starting over.")
		engine = bot.NewEngine()
		if err := store.Save(parentCtx, engine.Snapshot(opts.SessionID)); err != nil {
			logger.Error("Failed to reset session", "err", err)
			return false
		}
		loaded = false
	}
	if loaded {
		printSystemMessage("Resuming at state '%s'...", engine.Level())
	}

	r := runner.NewRunner(createRunnerOptions(logger, opts.SessionID, store, false, ioHandler)...)

	runCtx, runCancel := context.WithCancel(parentCtx)
	defer runCancel()

	doneCh := make(chan error, 1)
	go func() {
		doneCh <- r.Run(runCtx, engine)
	}()

	select {
	case <-parentCtx.Done():
		runCancel()
		<-doneCh
		logCompletion(engine.Level(), context.Canceled, false, parentCtx.Signal())
		logger.Info("Stopping watcher (signal received)", "signal", parentCtx.Signal())
		return false
	case name := <-changes:
		runCancel()
		<-doneCh
		fmt.Println()
		printSystemMessage("Change detected in '%s'.", filepath.Base(name))
		return true
	case err := <-doneCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Runtime error", "err", err)
		}
		logCompletion(engine.Level(), err, false, nil)
		return false
	}
}

// watchDefinition forwards writes, creations and renames of path. Bursts are coalesced
// into a single notification.
func watchDefinition(ctx context.Context, watcher *fsnotify.Watcher, path string, logger *slog.Logger) <-chan string {
	out := make(chan string, 1)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != path {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
					continue
				}
				logger.Debug("Definition changed", "event", event.Op.String())
				time.Sleep(settleDelay)
				select {
				case out <- event.Name:
				default:
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("Watcher error", "err", err)
			}
		}
	}()
	return out
}
