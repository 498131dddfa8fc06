package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/RobinCoderZhao/robonews/internal/ingest/catalog"
)

// Summary folds per-source outcomes.
type Summary struct {
	TotalNewItems    int `json:"totalNewItems"`
	SourcesSucceeded int `json:"sourcesSucceeded"`
	SourcesFailed    int `json:"sourcesFailed"`
}

// RunOutcome reports one ingestion run. PerSource holds exactly one entry
// per catalog source, in catalog order.
type RunOutcome struct {
	Summary
	PerSource  []Outcome `json:"perSource"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
}

// Summarize folds outcomes. Only succeeded outcomes add to TotalNewItems.
func Summarize(outcomes []Outcome) Summary {
	var s Summary
	for _, o := range outcomes {
		if o.Succeeded {
			s.SourcesSucceeded++
			s.TotalNewItems += o.NewItemCount
		} else {
			s.SourcesFailed++
		}
	}
	return s
}

// SourceFetcher is satisfied by *Fetcher.
type SourceFetcher interface {
	Fetch(ctx context.Context, src catalog.Source) Outcome
}

// Coordinator runs a fetch for every catalog source concurrently.
type Coordinator struct {
	fetcher     SourceFetcher
	sources     []catalog.Source
	concurrency int
	logger      *slog.Logger
}

// NewCoordinator creates a Coordinator over sources. concurrency <= 0 runs
// every source at once.
func NewCoordinator(fetcher SourceFetcher, sources []catalog.Source, concurrency int) *Coordinator {
	return &Coordinator{
		fetcher:     fetcher,
		sources:     sources,
		concurrency: concurrency,
		logger:      slog.Default().With("component", "coordinator"),
	}
}

// Sources returns the configured catalog.
func (c *Coordinator) Sources() []catalog.Source {
	return c.sources
}

// RunIngestion runs the configured catalog to completion. Cancelling ctx
// after the call starts does not stop the run.
func (c *Coordinator) RunIngestion(ctx context.Context) RunOutcome {
	return c.RunAll(context.WithoutCancel(ctx), c.sources)
}

// RunAll fetches every source and waits for all of them. A failing or
// panicking source never affects the others.
func (c *Coordinator) RunAll(ctx context.Context, sources []catalog.Source) RunOutcome {
	run := RunOutcome{
		PerSource: make([]Outcome, len(sources)),
		StartedAt: time.Now().UTC(),
	}
	c.logger.Info("ingestion run started", "sources", len(sources), "concurrency", c.concurrency)

	// Plain Group, not WithContext: units never return errors, so nothing
	// cancels siblings.
	var g errgroup.Group
	if c.concurrency > 0 {
		g.SetLimit(c.concurrency)
	}
	for i, src := range sources {
		g.Go(func() error {
			run.PerSource[i] = c.fetchOne(ctx, src)
			return nil
		})
	}
	_ = g.Wait()

	run.Summary = Summarize(run.PerSource)
	run.FinishedAt = time.Now().UTC()
	c.logger.Info("ingestion run finished",
		"new", run.TotalNewItems,
		"succeeded", run.SourcesSucceeded,
		"failed", run.SourcesFailed,
		"duration", run.FinishedAt.Sub(run.StartedAt))
	return run
}

func (c *Coordinator) fetchOne(ctx context.Context, src catalog.Source) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("source panicked", "source", src.ID, "panic", r)
			out = failed(src.ID, panicError(r))
		}
	}()
	return c.fetcher.Fetch(ctx, src)
}
