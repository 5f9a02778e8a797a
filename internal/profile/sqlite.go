package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists profiles in a single local SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating as needed) the local profile database.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(5 * time.Minute)

	s := &SQLiteStore{db: db}
	if err := s.initSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) initSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS profiles (
			principal TEXT PRIMARY KEY,
			push_token TEXT NOT NULL,
			latitude REAL,
			longitude REAL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS sync_flags (
			principal TEXT PRIMARY KEY,
			registered_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS kv (
			key TEXT PRIMARY KEY,
			value BLOB NOT NULL,
			updated_at TEXT NOT NULL
		);`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// SaveIdentity upserts the principal/push-token pair, preserving any
// previously stored location.
func (s *SQLiteStore) SaveIdentity(ctx context.Context, principal, pushToken string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO profiles (principal, push_token, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(principal) DO UPDATE SET
			push_token = excluded.push_token,
			updated_at = excluded.updated_at
	`, principal, pushToken, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("save identity: %w", err)
	}
	return nil
}

// SaveLocation records the latest sample for the principal. A profile row is
// created if registration has not run yet.
func (s *SQLiteStore) SaveLocation(ctx context.Context, principal string, lat, lon float64, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO profiles (principal, push_token, latitude, longitude, updated_at)
		VALUES (?, '', ?, ?, ?)
		ON CONFLICT(principal) DO UPDATE SET
			latitude = excluded.latitude,
			longitude = excluded.longitude,
			updated_at = excluded.updated_at
	`, principal, lat, lon, at.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("save location: %w", err)
	}
	return nil
}

// Get returns the stored profile for the principal.
func (s *SQLiteStore) Get(ctx context.Context, principal string) (*Profile, error) {
	var (
		p         Profile
		lat, lon  sql.NullFloat64
		updatedAt string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT principal, push_token, latitude, longitude, updated_at
		FROM profiles WHERE principal = ?
	`, principal).Scan(&p.Principal, &p.PushToken, &lat, &lon, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}

	if lat.Valid {
		p.Latitude = &lat.Float64
	}
	if lon.Valid {
		p.Longitude = &lon.Float64
	}
	if ts, parseErr := time.Parse(time.RFC3339Nano, updatedAt); parseErr == nil {
		p.UpdatedAt = ts
	}
	return &p, nil
}

// Registered reports whether the principal's backend registration succeeded.
func (s *SQLiteStore) Registered(ctx context.Context, principal string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM sync_flags WHERE principal = ?`, principal).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read sync flag: %w", err)
	}
	return true, nil
}

// MarkRegistered records a successful backend registration.
func (s *SQLiteStore) MarkRegistered(ctx context.Context, principal string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_flags (principal, registered_at) VALUES (?, ?)
		ON CONFLICT(principal) DO NOTHING
	`, principal, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("set sync flag: %w", err)
	}
	return nil
}

// GetValue reads from the key/value bucket. Absent keys return nil, nil.
func (s *SQLiteStore) GetValue(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get kv[%s]: %w", key, err)
	}
	return value, nil
}

// SetValue upserts into the key/value bucket.
func (s *SQLiteStore) SetValue(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, key, value, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("set kv[%s]: %w", key, err)
	}
	return nil
}

var _ Store = (*SQLiteStore)(nil)
