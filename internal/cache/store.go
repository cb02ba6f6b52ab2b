// Package cache keeps the last merged user list in a local SQLite database.
package cache

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/KaramelBytes/userdeck-cli/internal/users"
)

//go:embed schema.sql
var schema string

const metaUpdatedAt = "updated_at"

// Store persists the cached user list in SQLite.
type Store struct {
	sqlDB *sql.DB
}

// Open opens (or creates) the cache database at path and applies the schema.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("cache path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Load returns the cached users in their stored order.
func (s *Store) Load(ctx context.Context) ([]users.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("cache is not configured")
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, first_name, last_name, email, age, gender, country
		   FROM users
		  ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var out []users.User
	for rows.Next() {
		var u users.User
		if err := rows.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.Age, &u.Gender, &u.Country); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return out, nil
}

// Replace swaps the cached list for list in one transaction. Duplicate IDs
// collapse onto their first position with the last contents.
func (s *Store) Replace(ctx context.Context, list []users.User) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("cache is not configured")
	}
	list = users.Merge(nil, list)

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM users`); err != nil {
		return fmt.Errorf("clear users: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO users (position, id, first_name, last_name, email, age, gender, country)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()
	for i, u := range list {
		if _, err = stmt.ExecContext(ctx, i, u.ID, u.FirstName, u.LastName, u.Email, u.Age, u.Gender, u.Country); err != nil {
			return fmt.Errorf("insert user %s: %w", u.ID, err)
		}
	}
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO cache_meta (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		metaUpdatedAt, strconv.FormatInt(time.Now().UTC().UnixMilli(), 10)); err != nil {
		return fmt.Errorf("stamp cache: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// LastUpdated returns when the cache was last replaced, or the zero time if never.
func (s *Store) LastUpdated(ctx context.Context) (time.Time, error) {
	if s == nil || s.sqlDB == nil {
		return time.Time{}, fmt.Errorf("cache is not configured")
	}
	var raw string
	err := s.sqlDB.QueryRowContext(ctx, `SELECT value FROM cache_meta WHERE key = ?`, metaUpdatedAt).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("read cache stamp: %w", err)
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse cache stamp: %w", err)
	}
	return time.UnixMilli(ms).UTC(), nil
}
