package main

import (
	"fmt"

	"github.com/aretw0/majbot/internal/compiler"
	"github.com/aretw0/majbot/internal/presentation/graph"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph [definition]",
	Short: "Export the conversation graph",
	Long: `Loads the definition and outputs a Mermaid diagram (graph TD) of its states and rules.
Handler dispatches are drawn as subroutines and learn rules as dotted edges.
With --session the stored position of that session is highlighted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := compiler.Load(definitionPath(cmd, args))
		if err != nil {
			return err
		}

		var overlay *graph.GraphOverlay
		if sessionID, _ := cmd.Flags().GetString("session"); sessionID != "" {
			store, _, closeStore, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer closeStore()

			sess, err := store.Load(cmd.Context(), sessionID)
			if err != nil {
				return fmt.Errorf("session %s: %w", sessionID, err)
			}
			overlay = &graph.GraphOverlay{CurrentState: sess.Level}
		}

		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(src.States(), overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringP("session", "s", "", "Highlight the current state of this session")
	addStoreFlags(graphCmd)
}
