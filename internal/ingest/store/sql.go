package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/RobinCoderZhao/robonews/pkg/storage"
)

// Timestamps are stored as fixed-width UTC text so lexical order is
// chronological on every driver.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS articles (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    title        TEXT NOT NULL,
    link         TEXT NOT NULL UNIQUE,
    source_id    TEXT NOT NULL,
    domain       TEXT NOT NULL,
    summary      TEXT,
    published_at TEXT NOT NULL,
    fetched_at   TEXT NOT NULL,
    score        INTEGER NOT NULL DEFAULT 1
);

CREATE INDEX IF NOT EXISTS idx_articles_domain ON articles(domain);
CREATE INDEX IF NOT EXISTS idx_articles_published ON articles(published_at DESC);
`

const postgresSchema = `
CREATE TABLE IF NOT EXISTS articles (
    id           BIGSERIAL PRIMARY KEY,
    title        TEXT NOT NULL,
    link         TEXT NOT NULL UNIQUE,
    source_id    TEXT NOT NULL,
    domain       TEXT NOT NULL,
    summary      TEXT,
    published_at TEXT NOT NULL,
    fetched_at   TEXT NOT NULL,
    score        INTEGER NOT NULL DEFAULT 1
);

CREATE INDEX IF NOT EXISTS idx_articles_domain ON articles(domain);
CREATE INDEX IF NOT EXISTS idx_articles_published ON articles(published_at DESC);
`

var articleColumns = []string{
	"id", "title", "link", "source_id", "domain", "summary", "published_at", "fetched_at", "score",
}

// SQLStore keeps articles in SQLite or PostgreSQL. A SQLStore without a
// database is valid and behaves as an empty, read-only store.
type SQLStore struct {
	db     *storage.DB
	logger *slog.Logger
	now    func() time.Time
}

// Open connects to the configured database and migrates the schema.
func Open(ctx context.Context, cfg storage.Config) (*SQLStore, error) {
	db, err := storage.Open(cfg)
	if err != nil {
		return nil, err
	}
	s := NewSQLStore(db)
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// OpenOrDegrade is Open, except that a failure yields a degraded store
// instead of an error.
func OpenOrDegrade(ctx context.Context, cfg storage.Config) *SQLStore {
	s, err := Open(ctx, cfg)
	if err != nil {
		slog.Default().Warn("article store unavailable, running degraded",
			"component", "store", "driver", cfg.Driver, "error", err)
		return NewSQLStore(nil)
	}
	return s
}

// NewSQLStore wraps an open database. db may be nil.
func NewSQLStore(db *storage.DB) *SQLStore {
	return &SQLStore{
		db:     db,
		logger: slog.Default().With("component", "store"),
		now:    time.Now,
	}
}

// Migrate creates the articles table for the database's driver.
func (s *SQLStore) Migrate(ctx context.Context) error {
	if !s.available() {
		return errors.New("store: no database")
	}
	schema := sqliteSchema
	if s.db.DriverType() == storage.Postgres {
		schema = postgresSchema
	}
	return s.db.Migrate(ctx, schema)
}

func (s *SQLStore) available() bool {
	return s != nil && s.db != nil
}

// InsertIfAbsent stores a unless an article with the same link exists. The
// unique constraint on link makes concurrent calls safe.
func (s *SQLStore) InsertIfAbsent(ctx context.Context, a Article) InsertResult {
	if !s.available() || strings.TrimSpace(a.Link) == "" {
		return InsertResult{}
	}
	a = prepare(a, s.now())

	query, args, err := s.db.Builder().
		Insert("articles").
		Columns("title", "link", "source_id", "domain", "summary", "published_at", "fetched_at", "score").
		Values(a.Title, a.Link, a.SourceID, a.Domain, nullable(a.Summary),
			a.PublishedAt.Format(timeLayout), a.FetchedAt.Format(timeLayout), a.Score).
		Suffix("ON CONFLICT (link) DO NOTHING RETURNING id").
		ToSql()
	if err != nil {
		s.logger.Error("build insert", "error", err)
		return InsertResult{}
	}

	var id int64
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return InsertResult{}
	case err != nil:
		s.logger.Warn("insert article failed", "link", a.Link, "error", err)
		return InsertResult{}
	}
	return InsertResult{Inserted: true, ID: id}
}

// CountByDomain counts articles in domain, or all of them for "all".
func (s *SQLStore) CountByDomain(ctx context.Context, domain string) int {
	if !s.available() {
		return 0
	}
	q := s.db.Builder().Select("COUNT(*)").From("articles")
	if !filterAll(domain) {
		q = q.Where(sq.Eq{"domain": domain})
	}
	query, args, err := q.ToSql()
	if err != nil {
		s.logger.Error("build count", "error", err)
		return 0
	}

	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		s.logger.Warn("count articles failed", "domain", domain, "error", err)
		return 0
	}
	return n
}

// ListByDomain returns up to limit articles, newest publication first and
// earlier inserts first among equal timestamps.
func (s *SQLStore) ListByDomain(ctx context.Context, domain string, limit int) []Article {
	if !s.available() {
		return nil
	}
	q := s.db.Builder().
		Select(articleColumns...).
		From("articles").
		OrderBy("published_at DESC", "id ASC").
		Limit(uint64(normalizeLimit(limit)))
	if !filterAll(domain) {
		q = q.Where(sq.Eq{"domain": domain})
	}
	query, args, err := q.ToSql()
	if err != nil {
		s.logger.Error("build list", "error", err)
		return nil
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		s.logger.Warn("list articles failed", "domain", domain, "error", err)
		return nil
	}
	defer rows.Close()

	var articles []Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			s.logger.Warn("scan article failed", "error", err)
			return nil
		}
		articles = append(articles, a)
	}
	if err := rows.Err(); err != nil {
		s.logger.Warn("iterate articles failed", "error", err)
		return nil
	}
	return articles
}

// Upvote adds one to an article's score.
func (s *SQLStore) Upvote(ctx context.Context, id int64) bool {
	if !s.available() {
		return false
	}
	query, args, err := s.db.Builder().
		Update("articles").
		Set("score", sq.Expr("score + 1")).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		s.logger.Error("build upvote", "error", err)
		return false
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		s.logger.Warn("upvote failed", "id", id, "error", err)
		return false
	}
	n, err := res.RowsAffected()
	return err == nil && n > 0
}

// Ping reports whether the database answers.
func (s *SQLStore) Ping(ctx context.Context) bool {
	if !s.available() {
		return false
	}
	return s.db.PingContext(ctx) == nil
}

// Close releases the database. Closing a degraded store is a no-op.
func (s *SQLStore) Close() error {
	if !s.available() {
		return nil
	}
	return s.db.Close()
}

func scanArticle(rows *sql.Rows) (Article, error) {
	var (
		a                    Article
		summary              sql.NullString
		published, fetchedAt string
	)
	if err := rows.Scan(&a.ID, &a.Title, &a.Link, &a.SourceID, &a.Domain,
		&summary, &published, &fetchedAt, &a.Score); err != nil {
		return Article{}, err
	}
	if summary.Valid {
		v := summary.String
		a.Summary = &v
	}
	var err error
	if a.PublishedAt, err = time.Parse(timeLayout, published); err != nil {
		return Article{}, fmt.Errorf("published_at: %w", err)
	}
	if a.FetchedAt, err = time.Parse(timeLayout, fetchedAt); err != nil {
		return Article{}, fmt.Errorf("fetched_at: %w", err)
	}
	return a, nil
}

func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
