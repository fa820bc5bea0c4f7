package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"parking-ledger/internal/logging"
	"parking-ledger/internal/server"
	"parking-ledger/internal/shell"
)

var (
	configPath string
	port       string
)

var rootCmd = &cobra.Command{
	Use:          "parking-lot",
	Short:        "Fixed-capacity parking ledger",
	Long:         "Parks and removes vehicles across 2W, 4W and TR slots, bills by the started hour and keeps a snapshot between sessions.",
	SilenceUsage: true,
}

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Run the interactive attendant shell",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context(), runCLI)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context(), runServer)
	},
}

var bothCmd = &cobra.Command{
	Use:   "both",
	Short: "Serve the HTTP API and run the shell against the same ledger",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context(), runBoth)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv("PARKING_CONFIG"), "Path to YAML config (default: built-in defaults)")
	serveCmd.Flags().StringVarP(&port, "port", "p", "", "Port for HTTP server (overrides config)")
	bothCmd.Flags().StringVarP(&port, "port", "p", "", "Port for HTTP server (overrides config)")

	rootCmd.AddCommand(shellCmd, serveCmd, bothCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(parent context.Context, mode func(context.Context, *app) error) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := bootstrap(ctx, configPath)
	if err != nil {
		return err
	}
	if port != "" {
		a.cfg.Server.Port = port
	}

	err = mode(ctx, a)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	a.Close(shutdownCtx)

	return err
}

func runCLI(ctx context.Context, a *app) error {
	sh := shell.NewInstrumentedShell(a.svc, os.Stdin, os.Stdout, a.telemetry)

	done := make(chan error, 1)
	go func() {
		done <- sh.Run(ctx)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		logging.Info(context.Background()).Msg("shutting down...")
		return nil
	}
}

func runServer(ctx context.Context, a *app) error {
	srv := server.NewServer(a.cfg.Server.Port, a.cfg.Telemetry.ServiceName, a.svc)

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- srv.Start()
	}()

	select {
	case err := <-serverDone:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logging.Info(context.Background()).Msg("received shutdown signal...")
	}

	return shutdownServer(srv)
}

func runBoth(ctx context.Context, a *app) error {
	srv := server.NewServer(a.cfg.Server.Port, a.cfg.Telemetry.ServiceName, a.svc)

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- srv.Start()
	}()

	cliDone := make(chan error, 1)
	go func() {
		sh := shell.NewInstrumentedShell(a.svc, os.Stdin, os.Stdout, a.telemetry)
		cliDone <- sh.Run(ctx)
	}()

	select {
	case err := <-serverDone:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error(context.Background()).Err(err).Msg("server error")
			return err
		}
		return nil
	case err := <-cliDone:
		logging.Info(context.Background()).Msg("CLI exited")
		if shutdownErr := shutdownServer(srv); shutdownErr != nil {
			return shutdownErr
		}
		return err
	case <-ctx.Done():
		logging.Info(context.Background()).Msg("context cancelled")
	}

	return shutdownServer(srv)
}

func shutdownServer(srv *server.Server) error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error(shutdownCtx).Err(err).Msg("server shutdown error")
		return err
	}
	return nil
}
