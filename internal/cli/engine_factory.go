package cli

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/majbot"
	"github.com/aretw0/majbot/pkg/domain"
	"github.com/aretw0/majbot/pkg/handlers/weather"
	"github.com/aretw0/majbot/pkg/observability"
)

// BotOptions carries what every host needs to build a bot.
type BotOptions struct {
	DefinitionPath string
	WeatherURL     string
	WeatherTimeout time.Duration
	WeatherRetries int
	Debug          bool
	Hooks          domain.LifecycleHooks
}

// NewBot loads the definition with standard CLI conventions.
// In debug mode every lifecycle event is logged as well.
func NewBot(opts BotOptions, logger *slog.Logger) (*majbot.Bot, error) {
	hooks := opts.Hooks
	if opts.Debug {
		hooks = hooks.Merge(observability.LoggingHooks(logger))
	}

	bot, err := majbot.New(opts.DefinitionPath,
		majbot.WithLogger(logger),
		majbot.WithLifecycleHooks(hooks),
		majbot.WithForecaster(newForecaster(opts, logger)),
	)
	if err != nil {
		return nil, fmt.Errorf("error initializing bot: %w", err)
	}
	return bot, nil
}

func newForecaster(opts BotOptions, logger *slog.Logger) *weather.HTTPForecaster {
	fopts := []weather.Option{weather.WithLogger(logger)}
	if opts.WeatherURL != "" {
		fopts = append(fopts, weather.WithBaseURL(opts.WeatherURL))
	}
	if opts.WeatherTimeout > 0 {
		fopts = append(fopts, weather.WithTimeout(opts.WeatherTimeout))
	}
	if opts.WeatherRetries >= 0 {
		fopts = append(fopts, weather.WithRetries(opts.WeatherRetries, 500*time.Millisecond))
	}
	return weather.NewHTTPForecaster(fopts...)
}
