// Package feedreader turns a syndication endpoint into a flat list of raw
// items. Parsing RSS, Atom and JSON Feed is delegated to gofeed.
package feedreader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/RobinCoderZhao/robonews/pkg/textutil"
)

// DefaultUserAgent is sent with every feed request.
const DefaultUserAgent = "RoboNews/1.0"

// ErrStatus is returned when the endpoint answers with a non-2xx status.
var ErrStatus = errors.New("unexpected feed status")

// Item is one raw feed entry. Empty strings mean the field was absent.
type Item struct {
	Title       string
	Link        string
	Summary     string
	PublishedAt *time.Time
}

// Reader fetches and parses a feed. Malformed entries are returned with
// empty fields rather than failing the whole read.
type Reader interface {
	Read(ctx context.Context, endpoint string) ([]Item, error)
}

// GofeedReader reads feeds over HTTP.
type GofeedReader struct {
	client    *http.Client
	userAgent string
}

// Option configures a GofeedReader.
type Option func(*GofeedReader)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(r *GofeedReader) { r.client = c }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(r *GofeedReader) {
		if ua != "" {
			r.userAgent = ua
		}
	}
}

// New creates a GofeedReader. Timeouts come from the caller's context.
func New(opts ...Option) *GofeedReader {
	r := &GofeedReader{
		client:    &http.Client{},
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Read downloads endpoint and returns its items in feed order.
func (r *GofeedReader) Read(ctx context.Context, endpoint string) ([]Item, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.8")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode)
	}

	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	items := make([]Item, 0, len(feed.Items))
	for _, it := range feed.Items {
		if it == nil {
			continue
		}
		items = append(items, convert(it))
	}
	return items, nil
}

func convert(it *gofeed.Item) Item {
	out := Item{
		Title: strings.TrimSpace(it.Title),
		Link:  strings.TrimSpace(it.Link),
	}

	raw := it.Description
	if strings.TrimSpace(raw) == "" {
		raw = it.Content
	}
	out.Summary = textutil.Snippet(raw)

	switch {
	case it.PublishedParsed != nil:
		t := it.PublishedParsed.UTC()
		out.PublishedAt = &t
	case it.UpdatedParsed != nil:
		t := it.UpdatedParsed.UTC()
		out.PublishedAt = &t
	}
	return out
}
