package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RobinCoderZhao/robonews/internal/ingest/catalog"
	"github.com/RobinCoderZhao/robonews/internal/ingest/feedreader"
	"github.com/RobinCoderZhao/robonews/internal/ingest/store"
)

// fakeReader serves canned items or errors keyed by endpoint.
type fakeReader struct {
	items map[string][]feedreader.Item
	errs  map[string]error
	delay map[string]time.Duration
	panic map[string]bool
	calls atomic.Int32
}

func (f *fakeReader) Read(ctx context.Context, endpoint string) ([]feedreader.Item, error) {
	f.calls.Add(1)
	if f.panic[endpoint] {
		panic("reader exploded")
	}
	if d := f.delay[endpoint]; d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := f.errs[endpoint]; err != nil {
		return nil, err
	}
	return f.items[endpoint], nil
}

func items(prefix string, n int) []feedreader.Item {
	out := make([]feedreader.Item, n)
	for i := range out {
		out[i] = feedreader.Item{
			Title: fmt.Sprintf("%s robot %d", prefix, i),
			Link:  fmt.Sprintf("https://%s.example/%d", prefix, i),
		}
	}
	return out
}

func src(id string) catalog.Source {
	return catalog.Source{ID: id, Endpoint: "https://" + id + ".example/feed"}
}

func TestRunAll_FailureIsolation(t *testing.T) {
	a, b := src("a"), src("b")
	reader := &fakeReader{
		items: map[string][]feedreader.Item{b.Endpoint: items("b", 3)},
		errs:  map[string]error{a.Endpoint: errors.New("connection refused")},
	}
	st := store.NewMemoryStore()
	c := NewCoordinator(NewFetcher(reader, st, time.Second), nil, 0)

	run := c.RunAll(context.Background(), []catalog.Source{a, b})

	require.Len(t, run.PerSource, 2)
	assert.Equal(t, Outcome{SourceID: "a", Error: "connection refused"}, run.PerSource[0])
	assert.Equal(t, Outcome{SourceID: "b", Succeeded: true, NewItemCount: 3}, run.PerSource[1])
	assert.Equal(t, Summary{TotalNewItems: 3, SourcesSucceeded: 1, SourcesFailed: 1}, run.Summary)
	assert.False(t, run.FinishedAt.Before(run.StartedAt))
}

func TestRunAll_TimeoutIsolated(t *testing.T) {
	slow, fast := src("slow"), src("fast")
	reader := &fakeReader{
		items: map[string][]feedreader.Item{fast.Endpoint: items("fast", 2)},
		delay: map[string]time.Duration{slow.Endpoint: 5 * time.Second},
	}
	c := NewCoordinator(NewFetcher(reader, store.NewMemoryStore(), 50*time.Millisecond), nil, 0)

	start := time.Now()
	run := c.RunAll(context.Background(), []catalog.Source{slow, fast})

	assert.Less(t, time.Since(start), 2*time.Second)
	assert.False(t, run.PerSource[0].Succeeded)
	assert.Contains(t, run.PerSource[0].Error, "deadline exceeded")
	assert.Equal(t, 2, run.PerSource[1].NewItemCount)
}

func TestRunAll_PanicRecovered(t *testing.T) {
	bad, good := src("bad"), src("good")
	reader := &fakeReader{
		items: map[string][]feedreader.Item{good.Endpoint: items("good", 1)},
		panic: map[string]bool{bad.Endpoint: true},
	}
	c := NewCoordinator(NewFetcher(reader, store.NewMemoryStore(), time.Second), nil, 0)

	run := c.RunAll(context.Background(), []catalog.Source{bad, good})

	assert.Equal(t, "bad", run.PerSource[0].SourceID)
	assert.False(t, run.PerSource[0].Succeeded)
	assert.True(t, strings.HasPrefix(run.PerSource[0].Error, "panic: "))
	assert.True(t, run.PerSource[1].Succeeded)
	assert.Equal(t, 1, run.TotalNewItems)
}

func TestRunAll_PreservesCatalogOrderWithLimit(t *testing.T) {
	var sources []catalog.Source
	reader := &fakeReader{items: map[string][]feedreader.Item{}, delay: map[string]time.Duration{}}
	for i := 0; i < 10; i++ {
		s := src(fmt.Sprintf("s%d", i))
		sources = append(sources, s)
		reader.items[s.Endpoint] = items(s.ID, 1)
		reader.delay[s.Endpoint] = time.Duration(10-i) * time.Millisecond
	}
	c := NewCoordinator(NewFetcher(reader, store.NewMemoryStore(), time.Second), nil, 3)

	run := c.RunAll(context.Background(), sources)

	require.Len(t, run.PerSource, len(sources))
	for i, o := range run.PerSource {
		assert.Equal(t, sources[i].ID, o.SourceID)
	}
	assert.Equal(t, int32(10), reader.calls.Load())
}

func TestRunAll_AllFailed(t *testing.T) {
	a := src("a")
	reader := &fakeReader{errs: map[string]error{a.Endpoint: errors.New("down")}}
	c := NewCoordinator(NewFetcher(reader, store.NewMemoryStore(), time.Second), nil, 0)

	run := c.RunAll(context.Background(), []catalog.Source{a})
	assert.Equal(t, Summary{SourcesFailed: 1}, run.Summary)

	empty := c.RunAll(context.Background(), nil)
	assert.Empty(t, empty.PerSource)
	assert.Equal(t, Summary{}, empty.Summary)
}

func TestRunIngestion_Idempotent(t *testing.T) {
	a := src("a")
	reader := &fakeReader{items: map[string][]feedreader.Item{a.Endpoint: items("a", 4)}}
	st := store.NewMemoryStore()
	c := NewCoordinator(NewFetcher(reader, st, time.Second), []catalog.Source{a}, 0)

	first := c.RunIngestion(context.Background())
	countAfterFirst := st.CountByDomain(context.Background(), store.AllDomains)
	second := c.RunIngestion(context.Background())

	assert.Equal(t, 4, first.TotalNewItems)
	assert.Equal(t, 0, second.TotalNewItems)
	assert.True(t, second.PerSource[0].Succeeded)
	assert.Equal(t, countAfterFirst, st.CountByDomain(context.Background(), store.AllDomains))
}

func TestRunIngestion_IgnoresCallerCancel(t *testing.T) {
	a := src("a")
	reader := &fakeReader{
		items: map[string][]feedreader.Item{a.Endpoint: items("a", 1)},
		delay: map[string]time.Duration{a.Endpoint: 20 * time.Millisecond},
	}
	c := NewCoordinator(NewFetcher(reader, store.NewMemoryStore(), time.Second), []catalog.Source{a}, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	run := c.RunIngestion(ctx)

	assert.Equal(t, 1, run.TotalNewItems)
}

func TestSummarize(t *testing.T) {
	got := Summarize([]Outcome{
		{SourceID: "a", Succeeded: true, NewItemCount: 5},
		{SourceID: "b", Succeeded: false},
		{SourceID: "c", Succeeded: true, NewItemCount: 0},
	})
	assert.Equal(t, Summary{TotalNewItems: 5, SourcesSucceeded: 2, SourcesFailed: 1}, got)
}

func TestFetch_ItemConversion(t *testing.T) {
	s := src("conv")
	published := time.Date(2024, 3, 1, 8, 0, 0, 0, time.FixedZone("CET", 3600))
	reader := &fakeReader{items: map[string][]feedreader.Item{s.Endpoint: {
		{Title: "  DJI drone review ", Link: " https://conv.example/1 ", Summary: strings.Repeat("x", 800), PublishedAt: &published},
		{Title: "", Link: "https://conv.example/no-title"},
		{Title: "no link"},
		{Title: "Undated", Link: "https://conv.example/2", Summary: "   "},
	}}}
	st := store.NewMemoryStore()
	f := NewFetcher(reader, st, time.Second)
	fixed := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	f.now = func() time.Time { return fixed }

	out := f.Fetch(context.Background(), s)
	require.True(t, out.Succeeded)
	assert.Equal(t, 2, out.NewItemCount)

	got := st.ListByDomain(context.Background(), store.AllDomains, 10)
	require.Len(t, got, 2)

	undated, dated := got[0], got[1]
	assert.Equal(t, "Undated", undated.Title)
	assert.True(t, undated.PublishedAt.Equal(fixed))
	assert.Nil(t, undated.Summary)
	assert.Equal(t, "general", undated.Domain)

	assert.Equal(t, "DJI drone review", dated.Title)
	assert.Equal(t, "https://conv.example/1", dated.Link)
	assert.Equal(t, "conv", dated.SourceID)
	assert.Equal(t, "drones", dated.Domain)
	assert.True(t, dated.PublishedAt.Equal(published))
	require.NotNil(t, dated.Summary)
	assert.Equal(t, 500, utf8.RuneCountInString(*dated.Summary))
}

func TestFetch_DegradedStore(t *testing.T) {
	s := src("a")
	reader := &fakeReader{items: map[string][]feedreader.Item{s.Endpoint: items("a", 3)}}
	f := NewFetcher(reader, store.NewSQLStore(nil), time.Second)

	out := f.Fetch(context.Background(), s)
	assert.True(t, out.Succeeded)
	assert.Zero(t, out.NewItemCount)
}

// stubbornReader sleeps without watching its context.
type stubbornReader struct {
	sleep time.Duration
	items []feedreader.Item
}

func (r stubbornReader) Read(context.Context, string) ([]feedreader.Item, error) {
	time.Sleep(r.sleep)
	return r.items, nil
}

func TestFetch_DeadlineEnforcedOnContextIgnoringReader(t *testing.T) {
	st := store.NewMemoryStore()
	f := NewFetcher(stubbornReader{sleep: 500 * time.Millisecond, items: items("s", 1)}, st, 50*time.Millisecond)

	start := time.Now()
	out := f.Fetch(context.Background(), src("s"))
	elapsed := time.Since(start)

	assert.Less(t, elapsed, 400*time.Millisecond)
	assert.False(t, out.Succeeded)
	assert.Zero(t, out.NewItemCount)
	assert.Contains(t, out.Error, "deadline exceeded")

	// the late result must not be stored
	time.Sleep(600 * time.Millisecond)
	assert.Zero(t, st.CountByDomain(context.Background(), store.AllDomains))
}

func TestFetch_PanicRecovered(t *testing.T) {
	s := src("bad")
	reader := &fakeReader{panic: map[string]bool{s.Endpoint: true}}
	f := NewFetcher(reader, store.NewMemoryStore(), time.Second)

	var out Outcome
	require.NotPanics(t, func() { out = f.Fetch(context.Background(), s) })
	assert.False(t, out.Succeeded)
	assert.Equal(t, "panic: reader exploded", out.Error)
}
