package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/lcampedelli/riposte/internal/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve <definition.yaml>",
	Short: "Serve a machine over HTTP",
	Long: `Loads a YAML machine definition, activates it and exposes it as a JSON
API: facts are pushed with POST /facts and evaluated immediately. With
--poll the configured fact source is also polled in the background.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, logger, registry, metrics, err := setup(cmd)
		if err != nil {
			fmt.Printf("Error loading configuration: %v\n", err)
			os.Exit(1)
		}

		engine, cleanup, err := buildEngine(cmd, args[0], cfg, logger, metrics)
		if err != nil {
			fmt.Printf("Error initializing engine: %v\n", err)
			os.Exit(1)
		}
		defer cleanup()

		addr := cfg.ListenAddr
		if flagAddr, _ := cmd.Flags().GetString("addr"); flagAddr != "" {
			addr = flagAddr
		}

		server := api.NewServer(engine.Runner(),
			api.WithLogger(logger),
			api.WithMetricsRegistry(registry),
		)
		srv := &http.Server{
			Addr:    addr,
			Handler: server.Handler(),
		}

		pollCtx, stopPolling := context.WithCancel(context.Background())
		defer stopPolling()
		if poll, _ := cmd.Flags().GetBool("poll"); poll {
			go func() {
				if err := engine.Run(pollCtx); err != nil && pollCtx.Err() == nil {
					logger.Error("polling loop exited", "error", err)
				}
			}()
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)

		go func() {
			fmt.Printf("Starting Riposte Server on %s\n", srv.Addr)
			fmt.Printf("Serving machine: %s\n", engine.Machine().Name)
			serverErrors <- srv.ListenAndServe()
		}()

		// Channel to listen for interrupt or terminate signals.
		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		// Blocking main and waiting for shutdown.
		select {
		case err := <-serverErrors:
			// Error when starting HTTP server.
			fmt.Printf("Server error: %v\n", err)
			os.Exit(1)

		case sig := <-shutdown:
			fmt.Printf("\nStart shutdown... Signal: %v\n", sig)
			stopPolling()

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			// Asking listener to shut down and shed load.
			if err := srv.Shutdown(ctx); err != nil {
				fmt.Printf("Graceful shutdown did not complete in %v: %v\n", 5*time.Second, err)
				if err := srv.Close(); err != nil {
					fmt.Printf("Error killing server: %v\n", err)
				}
			}
			fmt.Println("Riposte Server stopped gracefully")
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("addr", "a", "", "Bind address (overrides RIPOSTE_LISTEN_ADDR)")
	serveCmd.Flags().DurationP("interval", "i", 0, "Polling interval (overrides RIPOSTE_POLL_INTERVAL)")
	serveCmd.Flags().Bool("poll", false, "Also poll the configured fact source in the background")
}
