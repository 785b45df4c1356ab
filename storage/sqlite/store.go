// Package sqlite provides the SQLite-backed user and account store.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jrsteele09/go-listing-server/storage"
	"github.com/jrsteele09/go-listing-server/storage/sqlite/migrations"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

var (
	_ storage.Transactor = (*Store)(nil)
	_ storage.Pinger     = (*Store)(nil)
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// TokenSealer encrypts provider tokens before they reach the accounts table.
type TokenSealer interface {
	Seal(plaintext string) (string, error)
	Open(value string) (string, error)
}

// Store persists users and accounts in SQLite.
type Store struct {
	sqlDB  *sql.DB
	sealer TokenSealer
}

// Option configures a Store.
type Option func(*Store)

// WithTokenSealer stores account access and refresh tokens encrypted.
func WithTokenSealer(sealer TokenSealer) Option {
	return func(s *Store) {
		s.sealer = sealer
	}
}

func toMillis(value time.Time) int64 {
	if value.IsZero() {
		return 0
	}
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	if value == 0 {
		return time.Time{}
	}
	return time.UnixMilli(value).UTC()
}

// Open opens or creates the database at path and applies embedded migrations.
func Open(ctx context.Context, path string, options ...Option) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(cleanPath), 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	dsn := "file:" + cleanPath +
		"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"

	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	store := &Store{sqlDB: sqlDB}
	for _, opt := range options {
		opt(store)
	}
	log.Debug().Str("path", path).Bool("sealed_tokens", store.sealer != nil).Msg("sqlite store opened")
	return store, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	return s.sqlDB.PingContext(ctx)
}

// Repos returns repositories that run each statement on its own.
func (s *Store) Repos() storage.Repos {
	return s.reposFor(s.sqlDB)
}

// InTx runs fn with repositories bound to one transaction.
func (s *Store) InTx(ctx context.Context, fn func(storage.Repos) error) error {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(s.reposFor(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Err(rbErr).Msg("rollback failed")
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (s *Store) reposFor(q querier) storage.Repos {
	return storage.Repos{
		Users:    &userRepo{q: q},
		Accounts: &accountRepo{q: q, sealer: s.sealer},
	}
}
