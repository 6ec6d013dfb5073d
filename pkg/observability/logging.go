package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/majbot/pkg/domain"
)

// LoggingHooks logs every lifecycle event at debug level, except failed dispatches
// which are logged as warnings.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStateEnter: func(ctx context.Context, e *domain.StateEvent) {
			logger.DebugContext(ctx, "state_enter", "state_id", e.StateID, "terminal", e.Terminal)
		},
		OnCapture: func(ctx context.Context, e *domain.CaptureEvent) {
			logger.DebugContext(ctx, "capture", "state_id", e.StateID, "variable", e.Variable)
		},
		OnLearn: func(ctx context.Context, e *domain.LearnEvent) {
			logger.DebugContext(ctx, "learn", "subject", e.Subject, "state_id", e.NewStateID)
		},
		OnDispatch: func(ctx context.Context, e *domain.DispatchEvent) {
			level := slog.LevelDebug
			if e.IsError {
				level = slog.LevelWarn
			}
			logger.Log(ctx, level, "dispatch",
				"state_id", e.StateID,
				"handler", e.Handler,
				"duration", e.Duration,
				"is_error", e.IsError,
			)
		},
		OnInvalid: func(ctx context.Context, e *domain.InvalidEvent) {
			logger.DebugContext(ctx, "invalid_input", "state_id", e.StateID)
		},
	}
}
