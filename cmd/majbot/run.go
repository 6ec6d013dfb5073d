package main

import (
	"github.com/aretw0/majbot/internal/cli"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [definition]",
	Short: "Chat with the bot in the terminal",
	Long: `Starts an interactive conversation with the bot.
With --session the conversation is persisted in a local bbolt file and resumed on the next run.
With --watch the definition is reloaded whenever it changes, keeping the current conversation.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		debug, _ := cmd.Flags().GetBool("debug")
		watchMode, _ := cmd.Flags().GetBool("watch")
		jsonMode, _ := cmd.Flags().GetBool("json")
		sessionID, _ := cmd.Flags().GetString("session")
		fresh, _ := cmd.Flags().GetBool("fresh")

		boltPath := cfg.BoltPath
		if cmd.Flags().Changed("db") {
			boltPath, _ = cmd.Flags().GetString("db")
		}

		return cli.Execute(cli.RunOptions{
			DefinitionPath: definitionPath(cmd, args),
			Watch:          watchMode,
			JSON:           jsonMode,
			Debug:          debug,
			SessionID:      sessionID,
			Fresh:          fresh,
			BoltPath:       boltPath,
			WeatherURL:     cfg.WeatherURL,
			WeatherTimeout: cfg.WeatherTimeout,
			WeatherRetries: cfg.WeatherRetries,
		})
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Bool("json", false, "Run in JSON mode (NDJSON input/output)")
	runCmd.Flags().BoolP("watch", "w", false, "Reload the definition when it changes")
	runCmd.Flags().StringP("session", "s", "", "Persist the conversation under this session id")
	runCmd.Flags().Bool("fresh", false, "Discard the stored session before starting")
	runCmd.Flags().String("db", "", "bbolt file for --session (default $MAJBOT_BOLT_PATH)")

	// 'run' is the default command
	rootCmd.RunE = runCmd.RunE
	rootCmd.Args = runCmd.Args
	rootCmd.Flags().AddFlagSet(runCmd.Flags())
}
