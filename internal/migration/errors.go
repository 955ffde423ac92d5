package migration

import "errors"

// Typed error kinds for the discovery and execution pipeline. Callers switch
// with errors.Is; messages carry the offending file for attribution.
var (
	// ErrInvalidFileName marks a migration file whose name does not split
	// into <sortKey>.<label>.<ext>. Such a file cannot be ordered, so it is
	// fatal wherever it is encountered.
	ErrInvalidFileName = errors.New("invalid migration file name")

	// ErrMissingArtifact marks an authored migration with no runnable
	// counterpart in the migrate directory.
	ErrMissingArtifact = errors.New("missing runnable migration artifact")

	// ErrNoUpOperation marks a migration that exposes no up section.
	ErrNoUpOperation = errors.New("migration has no up operation")

	// ErrNotRegistered marks a registry lookup for an unknown migration.
	ErrNotRegistered = errors.New("migration not registered")
)
