package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aretw0/majbot"
	"github.com/aretw0/majbot/internal/cli"
	"github.com/aretw0/majbot/internal/logging"
	httpAdapter "github.com/aretw0/majbot/pkg/adapters/http"
	"github.com/aretw0/majbot/pkg/observability"
	"github.com/aretw0/majbot/pkg/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve [definition]",
	Short: "Start the HTTP and websocket server",
	Long: `Serves many concurrent conversations over HTTP (JSON), SSE and websockets.
Sessions live in redis when --redis is set, which lets several replicas share them,
and in a local bbolt file otherwise. Prometheus metrics are exposed on /metrics.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		debug, _ := cmd.Flags().GetBool("debug")
		addr := cfg.HTTPAddr
		if cmd.Flags().Changed("addr") {
			addr, _ = cmd.Flags().GetString("addr")
		}

		logger := logging.New(cfg.LogLevel)
		metrics := observability.NewMetrics(prometheus.DefaultRegisterer)

		bot, err := cli.NewBot(cli.BotOptions{
			DefinitionPath: definitionPath(cmd, args),
			WeatherURL:     cfg.WeatherURL,
			WeatherTimeout: cfg.WeatherTimeout,
			WeatherRetries: cfg.WeatherRetries,
			Debug:          debug,
			Hooks:          metrics.Hooks(),
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

		srv := &http.Server{
			Addr: addr,
			Handler: httpAdapter.NewHandler(manager,
				httpAdapter.WithGraph(bot.Source()),
				httpAdapter.WithMetrics(promhttp.Handler()),
				httpAdapter.WithLogger(logger),
				httpAdapter.WithVersion(majbot.Version),
			),
		}

		sigCtx := cli.NewSignalContext(context.Background())
		defer sigCtx.Cancel()

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("MajBot server listening", "address", addr, "bot", bot.Name)
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			if !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		case <-sigCtx.Done():
			logger.Info("Start shutdown", "signal", sigCtx.Signal())

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				logger.Error("Graceful shutdown did not complete", "err", err)
				return srv.Close()
			}
			logger.Info("MajBot server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Address to listen on (default $MAJBOT_HTTP_ADDR)")
	addStoreFlags(serveCmd)
}
