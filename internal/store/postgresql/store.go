package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/loykin/docmigrate/internal/common"
)

// ErrDuplicate marks an insert for an already-recorded migration.
var ErrDuplicate = errors.New("duplicate migration record")

// unique_violation
const pgUniqueViolation = "23505"

// Config configures an external postgres history store.
type Config struct {
	DSN string
}

// Store keeps applied migrations in a postgres table, for setups where the
// history should not live in the target database.
type Store struct {
	dsn string
	db  *sql.DB
}

func New(cfg Config) *Store {
	return &Store{dsn: cfg.DSN}
}

func (s *Store) Connect(ctx context.Context) error {
	if s.dsn == "" {
		return errors.New("postgres store: no dsn configured")
	}
	db, err := sql.Open("pgx", s.dsn)
	if err != nil {
		return err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}
	s.db = db
	logger := common.GetLogger().WithStore("postgres")
	logger.Debug("postgres history store connected")
	return nil
}

func (s *Store) Ensure(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		file_name TEXT PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL
	)`, name))
	return err
}

// Apply inserts one row. No ON CONFLICT clause: a second insert for the
// same file name must fail so the caller sees the duplicate.
func (s *Store) Apply(ctx context.Context, name, fileName string, at time.Time) error {
	q := fmt.Sprintf(`INSERT INTO %s(file_name, applied_at) VALUES($1, $2)`, name)
	_, err := s.db.ExecContext(ctx, q, fileName, at.UTC())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return fmt.Errorf("%s: %w", fileName, ErrDuplicate)
		}
		return err
	}
	return nil
}

func (s *Store) IsApplied(ctx context.Context, name, fileName string) (bool, error) {
	q := fmt.Sprintf(`SELECT 1 FROM %s WHERE file_name = $1`, name)
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
		if err := rows.Scan(&r.FileName, &r.AppliedAt); err != nil {
			return nil, err
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
