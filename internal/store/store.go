package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/loykin/docmigrate/internal/common"
)

// DefaultName is the default collection/table holding applied migrations.
const DefaultName = "schema_migrations"

// ErrDuplicateRecord is returned when a migration is recorded twice. The
// unique key on the file name turns a racing second runner (or a re-run
// bug) into this error instead of a silent double insert, so it is always
// surfaced as fatal.
var ErrDuplicateRecord = errors.New("migration already recorded as applied")

// Record is one applied migration: the persisted file name and when its
// execution was recorded.
type Record struct {
	FileName  string
	AppliedAt time.Time
}

// Store persists the applied-migration set behind a backend Connector.
// Exactly one record exists per successfully applied migration; records are
// never updated or deleted (there is no down path).
type Store struct {
	Driver string
	Name   string
	conn   Connector
}

// New builds a Store from config without connecting.
func New(cfg *Config) (*Store, error) {
	conn, err := cfg.connector()
	if err != nil {
		return nil, err
	}
	name := cfg.Name
	if name == "" {
		name = DefaultName
	}
	return &Store{Driver: cfg.Driver, Name: name, conn: conn}, nil
}

// Open builds a Store, connects its backend and ensures the schema.
func Open(ctx context.Context, cfg *Config) (*Store, error) {
	st, err := New(cfg)
	if err != nil {
		return nil, err
	}
	if err := st.Connect(ctx); err != nil {
		return nil, err
	}
	return st, nil
}

// Connect establishes the backend connection once and ensures the
// collection/table exists. The connection is reused for all later calls.
func (s *Store) Connect(ctx context.Context) error {
	logger := common.GetLogger().WithStore(s.Driver)
	if err := s.conn.Connect(ctx); err != nil {
		return fmt.Errorf("connect %s store: %w", s.Driver, err)
	}
	if err := s.conn.Ensure(ctx, s.Name); err != nil {
		_ = s.conn.Close(ctx)
		return fmt.Errorf("ensure %s store schema: %w", s.Driver, err)
	}
	logger.Debug("store ready", "name", s.Name)
	return nil
}

// Apply records one migration as applied with the current UTC time.
// Recording the same file name twice fails with ErrDuplicateRecord.
func (s *Store) Apply(ctx context.Context, fileName string) error {
	return s.conn.Apply(ctx, s.Name, fileName, time.Now().UTC())
}

// IsApplied reports whether the file name is recorded.
func (s *Store) IsApplied(ctx context.Context, fileName string) (bool, error) {
	return s.conn.IsApplied(ctx, s.Name, fileName)
}

// ListApplied returns the recorded file names; order is not guaranteed.
func (s *Store) ListApplied(ctx context.Context) ([]string, error) {
	records, err := s.conn.ListApplied(ctx, s.Name)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(records))
	for i, r := range records {
		names[i] = r.FileName
	}
	return names, nil
}

// Records returns the full applied records with timestamps.
func (s *Store) Records(ctx context.Context) ([]Record, error) {
	return s.conn.ListApplied(ctx, s.Name)
}

// Close releases the backend connection.
func (s *Store) Close(ctx context.Context) error {
	if s == nil || s.conn == nil {
		return nil
	}
	return s.conn.Close(ctx)
}
