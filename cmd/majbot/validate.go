package main

import (
	"fmt"
	"io"

	"github.com/aretw0/majbot/internal/compiler"
	"github.com/aretw0/majbot/pkg/handlers/weather"
	"github.com/aretw0/majbot/pkg/registry"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [definition]",
	Short: "Check the definition for consistency",
	Long: `Decodes the definition and reports missing required states, dangling targets,
malformed patterns and unknown handlers. States no rule can reach are reported as warnings.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if err := runValidate(definitionPath(cmd, args), out); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		fmt.Fprintln(out, "Definition is valid! ✅")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(path string, out io.Writer) error {
	src, err := compiler.Load(path)
	if err != nil {
		return err
	}

	// Only handler names matter here, so no forecaster is built.
	handlers := registry.NewRegistry()
	handlers.Register(weather.Name, weather.New(nil).Handle)

	states := src.States()
	if err := compiler.Validate(states, handlers); err != nil {
		return err
	}
	for _, id := range compiler.Unreachable(states) {
		fmt.Fprintf(out, "warning: state '%s' is unreachable\n", id)
	}
	return nil
}
