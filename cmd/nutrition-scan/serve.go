// cmd/nutrition-scan/serve.go
package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"mcp-nutrition-scan/internal/server"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var (
		host    string
		address string
		port    int
		dbPath  string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP tool server over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("host") {
				cfg.Server.Host = host
			}
			if address != "" {
				cfg.Server.Host = address
			}
			if flags.Changed("port") {
				cfg.Server.Port = port
			}
			if flags.Changed("db-path") {
				cfg.Database.Path = dbPath
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			logger := newLogger(cfg, true)
			if len(cfg.Server.APIKeys) == 0 {
				logger.Warn("no API keys configured, all requests will be accepted without authentication")
			}

			srv, err := server.NewNutritionServer(cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to create server: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Start(ctx)
			}()

			select {
			case <-ctx.Done():
				logger.Info("received shutdown signal")
			case err := <-errCh:
				if err != nil {
					logger.Error("server error", "error", err)
				}
			}

			logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := srv.Stop(shutdownCtx); err != nil {
				return fmt.Errorf("error during shutdown: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&host, "host", "0.0.0.0", "Host address")
	cmd.Flags().StringVar(&address, "address", "", "Address (alias for host)")
	cmd.Flags().IntVarP(&port, "port", "p", 8011, "Port for HTTP transport")
	cmd.Flags().StringVar(&dbPath, "db-path", "/data/nutrition-scan.db", "Database path")
	return cmd
}
