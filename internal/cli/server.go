package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	transport "interview-scoring-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the scoring server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	rt, err := buildRuntime(ctx, configPath)
	if err != nil {
		return err
	}
	defer rt.Close()
	log := rt.log

	finalPort := portFlag
	if finalPort == "" {
		finalPort = rt.cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	relayCtx, stopRelay := context.WithCancel(ctx)
	defer stopRelay()
	if rt.relay != nil {
		go func() {
			if err := rt.relay.Run(relayCtx); err != nil {
				log.Error("dashboard relay stopped", "error", err)
			}
		}()
	}

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      transport.NewRouter(rt.service, rt.hub, log, rt.cfg.RescoreWorkers()),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info("starting interview scoring service", "port", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("failed to start server", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down server...")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
