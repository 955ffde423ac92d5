// Package docmigrate runs ordered YAML migrations against a MongoDB
// database and records each applied migration durably, one commit per
// step, so interrupted runs resume from exactly the next unapplied
// migration.
package docmigrate

import (
	"context"

	"github.com/loykin/docmigrate/internal/dbconn"
	imig "github.com/loykin/docmigrate/internal/migration"
	"github.com/loykin/docmigrate/internal/store"
)

// Re-export commonly used types for embedded use.

// Migration identifies one migration file.
type Migration = imig.Migration

// Migrator is the reconciliation engine.
type Migrator = imig.Migrator

// Source lists candidate migrations from disk.
type Source = imig.Source

// Loader turns a migration identifier into an executable step.
type Loader = imig.Loader

// Step is the executable unit of one migration.
type Step = imig.Step

// StepFunc adapts a function to the Step interface.
type StepFunc = imig.StepFunc

// FileLoader loads YAML migration files from a directory.
type FileLoader = imig.FileLoader

// Registry is a compiled-in migration table for embedded use.
type Registry = imig.Registry

// NewRegistry creates an empty migration registry.
func NewRegistry() *Registry { return imig.NewRegistry() }

// ParseFileName splits a migration file name into its identifier parts.
func ParseFileName(name string) (Migration, error) { return imig.ParseFileName(name) }

// Typed error kinds surfaced by discovery, loading and recording.
var (
	ErrInvalidFileName = imig.ErrInvalidFileName
	ErrMissingArtifact = imig.ErrMissingArtifact
	ErrNoUpOperation   = imig.ErrNoUpOperation
	ErrNotRegistered   = imig.ErrNotRegistered
	ErrDuplicateRecord = store.ErrDuplicateRecord
)

// Store persists the applied-migration set.
type Store = store.Store

// StoreConfig selects and configures the history backend.
type StoreConfig = store.Config

// StoreRecord is one applied migration with its recorded time.
type StoreRecord = store.Record

// Store driver names.
const (
	DriverMongo    = store.DriverMongo
	DriverSqlite   = store.DriverSqlite
	DriverPostgres = store.DriverPostgres
)

// OpenStore opens a history store from config and ensures its schema.
func OpenStore(ctx context.Context, cfg *StoreConfig) (*Store, error) {
	return store.Open(ctx, cfg)
}

// DBConfig describes the target database connection.
type DBConfig = dbconn.Config

// Conn owns the process-wide client for the target database.
type Conn = dbconn.Conn

// Connect opens and pings the target database.
func Connect(ctx context.Context, cfg DBConfig) (*Conn, error) {
	return dbconn.Connect(ctx, cfg)
}
