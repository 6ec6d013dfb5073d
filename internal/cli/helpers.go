package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/aretw0/majbot/internal/logging"
	"github.com/aretw0/majbot/internal/presentation/tui"
	"github.com/aretw0/majbot/pkg/adapters/bolt"
	"github.com/aretw0/majbot/pkg/ports"
	"github.com/aretw0/majbot/pkg/runner"
)

// SignalContext wraps a context and captures the signal that cancelled it.
type SignalContext struct {
	context.Context
	Cancel func()
	start  sync.Once
	stop   sync.Once
	sigCh  chan os.Signal
	sigVal os.Signal
	mu     sync.Mutex
}

// NewSignalContext creates a context that is cancelled on SIGINT or SIGTERM.
// It acts as a drop-in replacement for signal.NotifyContext but allows retrieving the signal.
func NewSignalContext(parent context.Context) *SignalContext {
	ctx, cancel := context.WithCancel(parent)
	sc := &SignalContext{
		Context: ctx,
		Cancel:  cancel,
		sigCh:   make(chan os.Signal, 1),
	}

	sc.start.Do(func() {
		signal.Notify(sc.sigCh, os.Interrupt, syscall.SIGTERM)
		go func() {
			select {
			case sig := <-sc.sigCh:
				sc.mu.Lock()
				sc.sigVal = sig
				sc.mu.Unlock()
				sc.Cancel()
			case <-sc.Context.Done():
				// Context cancelled elsewhere
			}
			sc.stop.Do(func() {
				signal.Stop(sc.sigCh)
			})
		}()
	})

	return sc
}

// Signal returns the signal that caused the context to be cancelled, or nil.
func (sc *SignalContext) Signal() os.Signal {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.sigVal
}

// createLogger configures the application logger.
// In debug mode, it writes to Stderr (to separate from Stdout conversation).
func createLogger(debug bool) *slog.Logger {
	if debug {
		return logging.New(slog.LevelDebug)
	}
	return logging.NewNop()
}

// printSystemMessage prints a standardized system message to stdout.
func printSystemMessage(format string, args ...any) {
	fmt.Printf(">>> %s\n", fmt.Sprintf(format, args...))
}

func logSessionStatus(logger *slog.Logger, sessionID, level string, loaded, quiet bool) {
	if loaded {
		logger.Info("Session Resumed", "session_id", sessionID, "level", level)
		if !quiet {
			printSystemMessage("Resuming at state '%s'...", level)
		}
	} else if sessionID != "" {
		logger.Info("Session Created", "session_id", sessionID)
		if !quiet {
			printSystemMessage("Session '%s' active.", sessionID)
		}
	}
}

// createRunnerOptions prepares the functional options for the Runner.
// An explicit ioHandler wins over the JSON and rendered text defaults.
func createRunnerOptions(logger *slog.Logger, sessionID string, store ports.SessionStore, jsonMode bool, ioHandler runner.IOHandler) []runner.Option {
	opts := []runner.Option{
		runner.WithLogger(logger),
	}

	if sessionID != "" && store != nil {
		opts = append(opts, runner.WithSessionID(sessionID))
		opts = append(opts, runner.WithStore(store))
	}

	switch {
	case ioHandler != nil:
		opts = append(opts, runner.WithInputHandler(ioHandler))
	case jsonMode:
		opts = append(opts, runner.WithInputHandler(runner.NewJSONHandler(os.Stdin, os.Stdout)))
	default:
		opts = append(opts, runner.WithInputHandler(
			runner.NewTextHandler(os.Stdin, os.Stdout, runner.WithTextHandlerRenderer(tui.NewRenderer())),
		))
	}

	return opts
}

func isInterrupted(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, io.EOF)
}

func handleExecutionError(err error) error {
	if err == nil {
		return nil
	}
	if isInterrupted(err) {
		return nil // Exit 0 for interruptions
	}
	return err
}

func logCompletion(level string, err error, quiet bool, sig os.Signal) {
	if quiet {
		return
	}
	if err == nil {
		printSystemMessage("Conversation ended at state '%s'.", level)
		return
	}
	if !isInterrupted(err) {
		return
	}

	switch {
	case sig == os.Interrupt:
		fmt.Printf("[CTRL+C]\n")
		printSystemMessage("Interrupted at state '%s'.", level)
	case sig != nil:
		fmt.Printf("\n")
		printSystemMessage("Terminated at state '%s'.", level)
	default:
		fmt.Printf("\n")
		printSystemMessage("Interrupted at state '%s'.", level)
	}
}

// setupPersistence opens the bbolt store when a session is requested.
// The returned close func is always safe to call.
func setupPersistence(opts RunOptions) (ports.SessionStore, func(), error) {
	if opts.SessionID == "" {
		return nil, func() {}, nil
	}
	store, err := bolt.Open(opts.BoltPath)
	if err != nil {
		return nil, func() {}, fmt.Errorf("failed to open session store: %w", err)
	}
	return store, func() { _ = store.Close() }, nil
}

// ResetSession clears the stored snapshot of the given session.
func ResetSession(ctx context.Context, store ports.SessionStore, sessionID string) error {
	if store == nil || sessionID == "" {
		return nil
	}
	return store.Delete(ctx, sessionID)
}
