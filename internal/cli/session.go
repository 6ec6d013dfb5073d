package cli

import (
	"context"
	"os"

	"github.com/aretw0/majbot"
	"github.com/aretw0/majbot/internal/presentation/tui"
	"github.com/aretw0/majbot/pkg/runner"
)

// RunSession executes a single interactive conversation.
func RunSession(opts RunOptions) error {
	logger := createLogger(opts.Debug)

	if !opts.JSON {
		tui.PrintBanner(os.Stdout, majbot.Version)
	}

	bot, err := NewBot(opts.botOptions(), logger)
	if err != nil {
		return err
	}

	store, closeStore, err := setupPersistence(opts)
	if err != nil {
		return err
	}
	defer closeStore()

	sigCtx := NewSignalContext(context.Background())
	defer sigCtx.Cancel()

	if opts.Fresh {
		if err := ResetSession(sigCtx, store, opts.SessionID); err != nil {
			return err
		}
	}

	engine := bot.NewEngine()
	loaded, err := runner.Resume(sigCtx, store, engine, opts.SessionID)
	if err != nil {
		return err
	}
	logSessionStatus(logger, opts.SessionID, engine.Level(), loaded, opts.JSON)

	r := runner.NewRunner(createRunnerOptions(logger, opts.SessionID, store, opts.JSON, nil)...)
	runErr := r.Run(sigCtx, engine)

	// If context was canceled (signal received), ensure runErr reflects it if it doesn't already
	if sigCtx.Err() != nil && runErr == nil {
		runErr = sigCtx.Err()
	}

	logCompletion(engine.Level(), runErr, opts.JSON, sigCtx.Signal())
	return handleExecutionError(runErr)
}
