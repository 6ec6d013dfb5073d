package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/majbot/internal/logging"
	"github.com/aretw0/majbot/pkg/domain"
	"github.com/aretw0/majbot/pkg/ports"
)

// Conversation is the engine surface the runner drives. *runtime.Engine satisfies it.
type Conversation interface {
	Message() (string, error)
	Send(ctx context.Context, text string) (string, error)
	Level() string
	Snapshot(sessionID string) *domain.Session
	Restore(sess *domain.Session) error
}

// Runner handles the conversation loop over an IOHandler.
type Runner struct {
	Handler      IOHandler
	Logger       *slog.Logger
	Store        ports.SessionStore
	SessionID    string
	MaxInputSize int
	Greet        bool
}

// NewRunner creates a Runner reading Stdin and writing Stdout by default.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		Logger:       logging.NewNop(),
		MaxInputSize: DefaultMaxInputSize,
		Greet:        true,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.Handler == nil {
		r.Handler = NewTextHandler(os.Stdin, os.Stdout)
	}
	return r
}

// Run converses until the input is exhausted (nil error) or ctx is cancelled (ctx.Err()).
// Turn failures such as an unknown target are reported through SystemOutput and the loop
// continues; only IO and persistence failures stop it.
func (r *Runner) Run(ctx context.Context, conv Conversation) error {
	if r.Greet {
		msg, err := conv.Message()
		if err != nil {
			return fmt.Errorf("render error: %w", err)
		}
		if err := r.Handler.Output(ctx, Reply{Text: msg, Level: conv.Level()}); err != nil {
			return fmt.Errorf("output error: %w", err)
		}
	}

	for {
		text, err := r.Handler.Input(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		clean, err := SanitizeInput(text, r.MaxInputSize)
		if err != nil {
			r.Logger.Warn("input rejected", "err", err, "size", len(text))
			if err := r.Handler.SystemOutput(ctx, err.Error()); err != nil {
				return err
			}
			continue
		}
		if clean == "" {
			continue
		}

		reply := Reply{}
		out, sendErr := conv.Send(ctx, clean)
		reply.Level = conv.Level()
		if sendErr != nil {
			r.Logger.Error("turn failed", "session_id", r.SessionID, "level", reply.Level, "err", sendErr)
			reply.Error = sendErr.Error()
		} else {
			reply.Text = out
		}

		if err := r.save(ctx, conv); err != nil {
			return fmt.Errorf("critical persistence error: %w", err)
		}
		if err := r.Handler.Output(ctx, reply); err != nil {
			return fmt.Errorf("output error: %w", err)
		}
	}
}

func (r *Runner) save(ctx context.Context, conv Conversation) error {
	if r.Store == nil || r.SessionID == "" {
		return nil
	}
	return r.Store.Save(ctx, conv.Snapshot(r.SessionID))
}

// Resume positions conv at the stored snapshot of sessionID. When there is no snapshot
// yet, the current position is saved to reserve the id. It reports whether a snapshot
// was restored.
func Resume(ctx context.Context, store ports.SessionStore, conv Conversation, sessionID string) (bool, error) {
	if store == nil || sessionID == "" {
		return false, nil
	}

	snap, err := store.Load(ctx, sessionID)
	if err == nil {
		if err := conv.Restore(snap); err != nil {
			return false, err
		}
		return true, nil
	}
	if !errors.Is(err, domain.ErrSessionNotFound) {
		return false, fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}

	if err := store.Save(ctx, conv.Snapshot(sessionID)); err != nil {
		return false, fmt.Errorf("failed to initialize session %s: %w", sessionID, err)
	}
	return false, nil
}
