// Package pipeline runs ingestion: one Fetcher per feed source, fanned out
// across the catalog by a Coordinator.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/RobinCoderZhao/robonews/internal/ingest/catalog"
	"github.com/RobinCoderZhao/robonews/internal/ingest/classifier"
	"github.com/RobinCoderZhao/robonews/internal/ingest/feedreader"
	"github.com/RobinCoderZhao/robonews/internal/ingest/store"
	"github.com/RobinCoderZhao/robonews/pkg/textutil"
)

const (
	// DefaultTimeout bounds one source's read.
	DefaultTimeout = 10 * time.Second
	// MaxSummaryLength is measured in runes.
	MaxSummaryLength = 500
)

// Outcome is the result of fetching one source.
type Outcome struct {
	SourceID     string `json:"sourceId"`
	Succeeded    bool   `json:"succeeded"`
	NewItemCount int    `json:"newItemCount"`
	Error        string `json:"error,omitempty"`
}

func failed(sourceID string, err error) Outcome {
	return Outcome{SourceID: sourceID, Error: err.Error()}
}

// Fetcher reads one source, classifies its items and stores new ones.
type Fetcher struct {
	reader  feedreader.Reader
	store   store.Store
	timeout time.Duration
	now     func() time.Time
	logger  *slog.Logger
}

// NewFetcher creates a Fetcher. A non-positive timeout uses DefaultTimeout.
func NewFetcher(reader feedreader.Reader, st store.Store, timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Fetcher{
		reader:  reader,
		store:   st,
		timeout: timeout,
		now:     time.Now,
		logger:  slog.Default().With("component", "fetcher"),
	}
}

// Fetch ingests src. Reader errors, panics and timeouts produce a failed
// Outcome; they are not retried.
func (f *Fetcher) Fetch(ctx context.Context, src catalog.Source) Outcome {
	start := time.Now()

	items, err := f.read(ctx, src.Endpoint)
	if err != nil {
		f.logger.Warn("source failed", "source", src.ID, "error", err, "duration", time.Since(start))
		return failed(src.ID, err)
	}

	outcome := Outcome{SourceID: src.ID, Succeeded: true}
	for _, it := range items {
		a, ok := f.candidate(src, it)
		if !ok {
			continue
		}
		if f.store.InsertIfAbsent(ctx, a).Inserted {
			outcome.NewItemCount++
		}
	}

	f.logger.Info("source fetched", "source", src.ID, "items", len(items),
		"new", outcome.NewItemCount, "duration", time.Since(start))
	return outcome
}

type readResult struct {
	items []feedreader.Item
	err   error
}

// read calls the reader under the per-source timeout. A reader that ignores
// its context is abandoned when the deadline passes and its late result is
// discarded.
func (f *Fetcher) read(ctx context.Context, endpoint string) ([]feedreader.Item, error) {
	readCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	done := make(chan readResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- readResult{err: panicError(r)}
			}
		}()
		items, err := f.reader.Read(readCtx, endpoint)
		done <- readResult{items: items, err: err}
	}()

	select {
	case res := <-done:
		if res.err == nil && readCtx.Err() != nil {
			return nil, readCtx.Err()
		}
		return res.items, res.err
	case <-readCtx.Done():
		return nil, readCtx.Err()
	}
}

// candidate converts a raw item; items without a title or link are dropped.
func (f *Fetcher) candidate(src catalog.Source, it feedreader.Item) (store.Article, bool) {
	title := strings.TrimSpace(it.Title)
	link := strings.TrimSpace(it.Link)
	if title == "" || link == "" {
		return store.Article{}, false
	}

	a := store.Article{
		Title:    title,
		Link:     link,
		SourceID: src.ID,
	}
	if s := textutil.Truncate(strings.TrimSpace(it.Summary), MaxSummaryLength); s != "" {
		a.Summary = &s
	}
	a.Domain = classifier.Classify(title, it.Summary)

	if it.PublishedAt != nil && !it.PublishedAt.IsZero() {
		a.PublishedAt = it.PublishedAt.UTC()
	} else {
		a.PublishedAt = f.now().UTC()
	}
	return a, true
}

func panicError(v any) error {
	return fmt.Errorf("panic: %v", v)
}
