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
	"github.com/trogers1052/trading-journal/internal/api"
	"github.com/trogers1052/trading-journal/internal/kafka"
)

var (
	serveMigrate  bool
	serveCommands bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the Kafka command consumer",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, serveMigrate, true)
		if err != nil {
			return err
		}
		defer a.Close()

		if serveCommands && len(a.cfg.Kafka.Brokers) > 0 {
			consumer := kafka.NewConsumer(a.cfg.Kafka.Brokers, a.cfg.Kafka.CommandsTopic, a.cfg.Kafka.GroupID,
				a.journal, a.backend, a.logger)
			go func() {
				if err := consumer.Start(ctx); err != nil {
					a.logger.Error().Err(err).Msg("Kafka consumer stopped")
				}
			}()
		}

		srv := &http.Server{
			Addr:         a.cfg.Server.Addr(),
			Handler:      api.SetupRoutes(api.NewHandler(a.journal, a.logger)),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 90 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			a.logger.Info().Str("addr", srv.Addr).Msg("Starting HTTP server")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		a.logger.Info().Msg("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

func init() {
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", true, "apply database migrations on start (postgres backend)")
	serveCmd.Flags().BoolVar(&serveCommands, "commands", true, "consume journal commands from Kafka when brokers are configured")
}
