// Package storage provides a database abstraction layer supporting SQLite and PostgreSQL.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Driver represents a database driver type.
type Driver string

const (
	SQLite   Driver = "sqlite"
	Postgres Driver = "postgres"
)

// Config holds database configuration.
type Config struct {
	Driver Driver `yaml:"driver" json:"driver" env:"DATABASE_DRIVER"`
	DSN    string `yaml:"dsn" json:"dsn" env:"DATABASE_URL"` // Data Source Name
}

// DB wraps a *sql.DB with additional utilities.
type DB struct {
	*sql.DB
	driver Driver
	logger *slog.Logger
}

// Open creates a new database connection.
func Open(cfg Config) (*DB, error) {
	var driverName string
	switch cfg.Driver {
	case SQLite, "":
		cfg.Driver = SQLite
		driverName = "sqlite"
		if err := ensureDir(cfg.DSN); err != nil {
			return nil, err
		}
	case Postgres:
		driverName = "postgres"
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	db, err := sql.Open(driverName, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if cfg.Driver == SQLite {
		// One connection serializes writers, so SQLITE_BUSY never reaches callers
		// and per-connection pragmas stick.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if cfg.Driver == SQLite {
		for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
			if _, err := db.ExecContext(ctx, pragma); err != nil {
				db.Close()
				return nil, fmt.Errorf("%s: %w", strings.ToLower(pragma), err)
			}
		}
	}

	return &DB{
		DB:     db,
		driver: cfg.Driver,
		logger: slog.Default(),
	}, nil
}

// DriverType returns the database driver type.
func (db *DB) DriverType() Driver {
	return db.driver
}

// Builder returns a squirrel statement builder using the driver's placeholder style.
func (db *DB) Builder() sq.StatementBuilderType {
	if db.driver == Postgres {
		return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	}
	return sq.StatementBuilder.PlaceholderFormat(sq.Question)
}

// Migrate runs the given SQL schema on the database.
func (db *DB) Migrate(ctx context.Context, schema string) error {
	_, err := db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	db.logger.Info("database migration completed", "driver", db.driver)
	return nil
}

func ensureDir(dsn string) error {
	if dsn == "" || dsn == ":memory:" || strings.HasPrefix(dsn, "file:") {
		return nil
	}
	dir := filepath.Dir(dsn)
	if dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create database dir %s: %w", dir, err)
	}
	return nil
}
