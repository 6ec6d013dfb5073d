package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aretw0/majbot"
	"github.com/aretw0/majbot/internal/cli"
	"github.com/aretw0/majbot/internal/logging"
	"github.com/aretw0/majbot/pkg/adapters/mcp"
	"github.com/aretw0/majbot/pkg/session"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp [definition]",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes the bot as MCP tools (start_session, send_message, get_message, get_graph)
so AI agents can hold conversations with it.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		// stdout carries the protocol, so logs must stay on stderr.
		logger := logging.NewWithWriter(os.Stderr, cfg.LogLevel, true)

		bot, err := cli.NewBot(cli.BotOptions{
			DefinitionPath: definitionPath(cmd, args),
			WeatherURL:     cfg.WeatherURL,
			WeatherTimeout: cfg.WeatherTimeout,
			WeatherRetries: cfg.WeatherRetries,
		}, logger)
		if err != nil {
			return err
		}

		store, locker, closeStore, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer closeStore()

		var sessOpts []session.Option
		if locker != nil {
			sessOpts = append(sessOpts, session.WithLocker(locker))
		}
		manager := bot.NewManager(store, sessOpts...)

		server := mcp.NewServer(manager, majbot.Version,
			mcp.WithGraph(bot.Source()),
			mcp.WithLogger(logger),
		)

		switch transport {
		case "stdio":
			return server.ServeStdio()
		case "sse":
			sigCtx := cli.NewSignalContext(context.Background())
			defer sigCtx.Cancel()
			addr := fmt.Sprintf(":%d", port)
			return server.ServeSSE(sigCtx, addr, fmt.Sprintf("http://localhost:%d", port))
		}
		return fmt.Errorf("unknown transport %q (want stdio or sse)", transport)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().String("transport", "stdio", "Transport: stdio or sse")
	mcpCmd.Flags().Int("port", 8081, "Port for the sse transport")
	addStoreFlags(mcpCmd)
}
