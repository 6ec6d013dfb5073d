package main

import (
	"fmt"
	"os"

	"github.com/aretw0/majbot/internal/config"
	"github.com/spf13/cobra"
)

// cfg is loaded before every command; flags override its values.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "majbot",
	Short: "MajBot is a rule-based conversation engine",
	Long: `MajBot walks a graph of conversation states defined in YAML, JSON or XML.
Each state carries weighted keyword rules that capture values, call response handlers
and learn new facts while the conversation runs.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		envPath, _ := cmd.Flags().GetString("env")
		loaded, err := config.LoadFile(envPath)
		if err != nil {
			return err
		}
		cfg = loaded
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("definition", "d", "", "Bot definition file (default $MAJBOT_DEFINITION)")
	rootCmd.PersistentFlags().String("env", ".env", "Optional .env file with MAJBOT_* settings")
	rootCmd.PersistentFlags().Bool("debug", false, "Log engine events to stderr")
}

// definitionPath resolves the definition from the first argument, --definition or config.
func definitionPath(cmd *cobra.Command, args []string) string {
	if cmd.Flags().Changed("definition") {
		path, _ := cmd.Flags().GetString("definition")
		return path
	}
	if len(args) > 0 {
		return args[0]
	}
	return cfg.Definition
}
