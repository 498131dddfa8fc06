package store

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/patrickmn/go-cache"
)

const (
	linkPrefix = "link:"
	idPrefix   = "id:"
)

// MemoryStore keeps articles in process memory. The cache's Add, which fails
// when the key exists, is the compare-and-insert on link.
type MemoryStore struct {
	cache *cache.Cache
	seq   atomic.Int64
	mu    sync.RWMutex // guards Score of stored articles
	now   func() time.Time
}

// NewMemoryStore creates an empty in-memory store. Entries never expire.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		cache: cache.New(cache.NoExpiration, 0),
		now:   time.Now,
	}
}

// InsertIfAbsent stores a unless an article with the same link exists.
func (m *MemoryStore) InsertIfAbsent(_ context.Context, a Article) InsertResult {
	if strings.TrimSpace(a.Link) == "" {
		return InsertResult{}
	}
	a = prepare(a, m.now())
	a.ID = m.seq.Add(1)

	entry := &a
	if err := m.cache.Add(linkPrefix+a.Link, entry, cache.NoExpiration); err != nil {
		return InsertResult{}
	}
	m.cache.Set(idPrefix+strconv.FormatInt(a.ID, 10), entry, cache.NoExpiration)
	return InsertResult{Inserted: true, ID: a.ID}
}

// CountByDomain counts articles in domain, or all of them for "all".
func (m *MemoryStore) CountByDomain(_ context.Context, domain string) int {
	return len(m.snapshot(domain))
}

// ListByDomain returns up to limit articles, newest publication first and
// earlier inserts first among equal timestamps.
func (m *MemoryStore) ListByDomain(_ context.Context, domain string, limit int) []Article {
	articles := m.snapshot(domain)
	sort.Slice(articles, func(i, j int) bool {
		if !articles[i].PublishedAt.Equal(articles[j].PublishedAt) {
			return articles[i].PublishedAt.After(articles[j].PublishedAt)
		}
		return articles[i].ID < articles[j].ID
	})
	if n := normalizeLimit(limit); len(articles) > n {
		articles = articles[:n]
	}
	return articles
}

// Upvote adds one to an article's score.
func (m *MemoryStore) Upvote(_ context.Context, id int64) bool {
	v, ok := m.cache.Get(idPrefix + strconv.FormatInt(id, 10))
	if !ok {
		return false
	}
	m.mu.Lock()
	v.(*Article).Score++
	m.mu.Unlock()
	return true
}

// Ping always succeeds.
func (m *MemoryStore) Ping(context.Context) bool { return true }

// Close drops every stored article.
func (m *MemoryStore) Close() error {
	m.cache.Flush()
	return nil
}

func (m *MemoryStore) snapshot(domain string) []Article {
	all := filterAll(domain)
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Article
	for key, item := range m.cache.Items() {
		if !strings.HasPrefix(key, linkPrefix) {
			continue
		}
		a := *item.Object.(*Article)
		if all || a.Domain == domain {
			out = append(out, a)
		}
	}
	return out
}
