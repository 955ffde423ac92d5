package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/loykin/docmigrate/internal/common"
	sqlite3 "modernc.org/sqlite"
)

// ErrDuplicate marks an insert for an already-recorded migration.
var ErrDuplicate = errors.New("duplicate migration record")

const (
	busyTimeoutMS = 5000

	// modernc.org/sqlite extended result codes for primary-key and unique
	// constraint violations.
	codeConstraintPrimaryKey = 1555
	codeConstraintUnique     = 2067
)

// Config configures a file-backed (or :memory:) sqlite history store.
type Config struct {
	Path string
	DSN  string // overrides Path when set
}

// Store keeps applied migrations in a local sqlite database, for setups
// where the history should not live in the target database.
type Store struct {
	dsn string
	db  *sql.DB
}

func New(cfg Config) *Store {
	dsn := cfg.DSN
	if dsn == "" && cfg.Path != "" {
		dsn = fmt.Sprintf("file:%s?_busy_timeout=%d&_fk=1", cfg.Path, busyTimeoutMS)
	}
	return &Store{dsn: dsn}
}

func (s *Store) Connect(_ context.Context) error {
	if s.dsn == "" {
		return errors.New("sqlite store: no path configured")
	}
	db, err := sql.Open("sqlite", s.dsn)
	if err != nil {
		return err
	}
	s.db = db
	logger := common.GetLogger().WithStore("sqlite")
	logger.Debug("sqlite history store opened", "dsn", s.dsn)
	return nil
}

func (s *Store) Ensure(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		file_name TEXT PRIMARY KEY,
		applied_at TEXT NOT NULL
	)`, name))
	return err
}

// Apply inserts one row. No upsert clause: a second insert for the same
// file name must fail so the caller sees the duplicate.
func (s *Store) Apply(ctx context.Context, name, fileName string, at time.Time) error {
	q := fmt.Sprintf(`INSERT INTO %s(file_name, applied_at) VALUES(?, ?)`, name)
	_, err := s.db.ExecContext(ctx, q, fileName, at.UTC().Format(time.RFC3339))
	if err != nil {
		if isConstraintViolation(err) {
			return fmt.Errorf("%s: %w", fileName, ErrDuplicate)
		}
		return err
	}
	return nil
}

func isConstraintViolation(err error) bool {
	var se *sqlite3.Error
	if errors.As(err, &se) {
		code := se.Code()
		return code == codeConstraintPrimaryKey || code == codeConstraintUnique
	}
	return false
}

func (s *Store) IsApplied(ctx context.Context, name, fileName string) (bool, error) {
	q := fmt.Sprintf(`SELECT 1 FROM %s WHERE file_name = ?`, name)
	var one int
	err := s.db.QueryRowContext(ctx, q, fileName).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Record mirrors one row of the history table.
type Record struct {
	FileName  string
	AppliedAt time.Time
}

func (s *Store) ListApplied(ctx context.Context, name string) ([]Record, error) {
	q := fmt.Sprintf(`SELECT file_name, applied_at FROM %s`, name)
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var records []Record
	for rows.Next() {
		var r Record
		var at string
		if err := rows.Scan(&r.FileName, &at); err != nil {
			return nil, err
		}
		if t, perr := time.Parse(time.RFC3339, at); perr == nil {
			r.AppliedAt = t
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *Store) Close(_ context.Context) error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
