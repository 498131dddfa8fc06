package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/RobinCoderZhao/robonews/internal/api"
	"github.com/RobinCoderZhao/robonews/internal/config"
	"github.com/RobinCoderZhao/robonews/internal/ingest/scheduler"
)

func serveCmd(cfg *config.Config) *cobra.Command {
	var noSchedule bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and ingest on a schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), *cfg, noSchedule)
		},
	}

	cmd.Flags().BoolVar(&noSchedule, "no-schedule", false, "disable periodic ingestion")
	return cmd
}

func runServe(ctx context.Context, cfg config.Config, noSchedule bool) error {
	a := newApp(ctx, cfg, false)
	defer a.close()

	server := api.NewServer(a.store, a.coordinator, a.publisher, api.Config{
		FetchSecret: cfg.API.FetchSecret,
		FetchEvery:  cfg.API.FetchEvery,
		FetchBurst:  cfg.API.FetchBurst,
		CORSOrigins: cfg.API.CORSOrigins,
	})
	if cfg.API.FetchSecret == "" {
		slog.Warn("FETCH_SECRET is empty, /api/fetch is open")
	}

	srv := &http.Server{
		Addr:              cfg.API.Addr,
		Handler:           server.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	var sched *scheduler.Scheduler
	if !noSchedule && cfg.Schedule.Interval > 0 {
		sched = scheduler.NewScheduler()
		sched.Add(scheduler.Job{
			Name: "ingest",
			Fn: func(ctx context.Context) error {
				run := a.coordinator.RunIngestion(ctx)
				a.publish(ctx, run)
				return nil
			},
		})
		go sched.Start(ctx, cfg.Schedule.Interval)
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting REST API server", "addr", cfg.API.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Graceful shutdown
	select {
	case <-ctx.Done():
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("serve: %w", err)
		}
	}
	slog.Info("shutting down server")
	if sched != nil {
		// waits for a run in progress; the store is closed after this
		sched.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
