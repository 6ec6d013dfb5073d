package cli

import (
	"fmt"
	"time"
)

// RunOptions contains all the configuration for the Run command.
type RunOptions struct {
	DefinitionPath string
	Watch          bool
	JSON           bool
	Debug          bool
	SessionID      string
	Fresh          bool
	BoltPath       string

	WeatherURL     string
	WeatherTimeout time.Duration
	WeatherRetries int
}

func (o RunOptions) botOptions() BotOptions {
	return BotOptions{
		DefinitionPath: o.DefinitionPath,
		WeatherURL:     o.WeatherURL,
		WeatherTimeout: o.WeatherTimeout,
		WeatherRetries: o.WeatherRetries,
		Debug:          o.Debug,
	}
}

// Execute handles the 'run' command logic, dispatching to Session or Watch mode.
func Execute(opts RunOptions) error {
	if opts.Watch {
		if opts.JSON {
			return fmt.Errorf("--watch and --json cannot be used together")
		}
		return RunWatch(opts)
	}
	return RunSession(opts)
}
