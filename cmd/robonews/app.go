package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/RobinCoderZhao/robonews/internal/config"
	"github.com/RobinCoderZhao/robonews/internal/ingest/feedreader"
	"github.com/RobinCoderZhao/robonews/internal/ingest/pipeline"
	"github.com/RobinCoderZhao/robonews/internal/ingest/publisher"
	"github.com/RobinCoderZhao/robonews/internal/ingest/store"
	"github.com/RobinCoderZhao/robonews/pkg/notify"
)

// app wires the ingestion components for one command.
type app struct {
	store       store.Backend
	coordinator *pipeline.Coordinator
	publisher   *publisher.Publisher
}

// newApp builds the pipeline. An unreachable database degrades the store
// instead of failing; dryRun swaps in an in-memory store.
func newApp(ctx context.Context, cfg config.Config, dryRun bool) *app {
	var st store.Backend
	if dryRun {
		st = store.NewMemoryStore()
	} else {
		st = store.OpenOrDegrade(ctx, cfg.Database)
	}

	reader := feedreader.New(feedreader.WithUserAgent(cfg.Fetch.UserAgent))
	fetcher := pipeline.NewFetcher(reader, st, cfg.Fetch.Timeout)

	return &app{
		store:       st,
		coordinator: pipeline.NewCoordinator(fetcher, cfg.Catalog(), cfg.Fetch.Concurrency),
		publisher:   newPublisher(cfg.Notify),
	}
}

func newPublisher(cfg config.NotifyConfig) *publisher.Publisher {
	d := notify.NewDispatcher(slog.Default())
	if cfg.Webhook.URL != "" {
		d.Register(notify.NewWebhookNotifier(cfg.Webhook))
	}
	if cfg.Telegram.Enabled() {
		d.Register(notify.NewTelegramNotifier(cfg.Telegram))
	}
	return publisher.NewPublisher(d, d.Channels())
}

// publish sends the run report; failures are only logged.
func (a *app) publish(ctx context.Context, run pipeline.RunOutcome) {
	if !a.publisher.Enabled() {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
	defer cancel()
	if err := a.publisher.Publish(ctx, run); err != nil {
		slog.Warn("publish run report failed", "error", err)
	}
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		slog.Warn("close store", "error", err)
	}
}
