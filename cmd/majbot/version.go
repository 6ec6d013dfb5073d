package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/majbot"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of majbot",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "majbot version %s\n", strings.TrimSpace(majbot.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
