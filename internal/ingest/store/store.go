// Package store persists ingested articles with link-level deduplication.
//
// Every operation degrades to a zero value when the backing medium is
// missing or failing: reads return nothing, writes report "not inserted".
// Failures are logged, never returned, so an absent database can not stop
// an ingestion run.
package store

import (
	"context"
	"strings"
	"time"
)

// DefaultListLimit applies when ListByDomain is called with limit <= 0.
const DefaultListLimit = 200

// AllDomains selects every article in CountByDomain and ListByDomain.
const AllDomains = "all"

// Article is a stored feed entry.
type Article struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Link        string    `json:"link"`
	SourceID    string    `json:"sourceId"`
	Domain      string    `json:"domain"`
	Summary     *string   `json:"summary"`
	PublishedAt time.Time `json:"publishedAt"`
	FetchedAt   time.Time `json:"fetchedAt"`
	Score       int       `json:"score"`
}

// InsertResult reports the outcome of InsertIfAbsent. A duplicate link is
// Inserted == false, not an error.
type InsertResult struct {
	Inserted bool
	ID       int64
}

// Store is the persistence contract the ingestion pipeline writes to and
// readers query.
type Store interface {
	InsertIfAbsent(ctx context.Context, a Article) InsertResult
	CountByDomain(ctx context.Context, domain string) int
	ListByDomain(ctx context.Context, domain string, limit int) []Article
}

// Backend is a Store with the housekeeping operations used by the API and CLI.
type Backend interface {
	Store
	// Upvote increments the score of the article with the given id and
	// reports whether it exists.
	Upvote(ctx context.Context, id int64) bool
	Ping(ctx context.Context) bool
	Close() error
}

func filterAll(domain string) bool {
	d := strings.TrimSpace(domain)
	return d == "" || strings.EqualFold(d, AllDomains)
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}

// prepare fills the store-owned fields of a new article.
func prepare(a Article, now time.Time) Article {
	a.ID = 0
	a.FetchedAt = now.UTC()
	if a.PublishedAt.IsZero() {
		a.PublishedAt = a.FetchedAt
	}
	a.PublishedAt = a.PublishedAt.UTC()
	if a.Score <= 0 {
		a.Score = 1
	}
	return a
}
