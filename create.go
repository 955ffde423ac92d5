package docmigrate

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// ErrMissingMigrationName is returned when create is invoked without a name.
var ErrMissingMigrationName = errors.New("migration name is required")

// CreateOptions controls migration scaffolding.
type CreateOptions struct {
	Name string
	Dir  string
}

const migrationTemplate = `up:
  name: %s
  operations: []
# down is parsed for validation but never executed
down:
  name: revert %s
  operations: []
`

var slugCleanRegex = regexp.MustCompile(`[^a-z0-9]+`)

// slugify lowers the name and collapses everything outside [a-z0-9] into
// single hyphens so the result fits the <label> part of a migration name.
func slugify(name string) string {
	slug := slugCleanRegex.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(slug, "-")
}

// CreateMigration writes a new, empty migration file named
// <UTC timestamp>.<slug>.yaml into opts.Dir and returns its path. The
// timestamp prefix keeps newly created files last in sort order, so create
// is safe to run while a migration run is in flight.
func CreateMigration(opts CreateOptions) (string, error) {
	slug := slugify(opts.Name)
	if slug == "" {
		return "", ErrMissingMigrationName
	}
	if strings.TrimSpace(opts.Dir) == "" {
		return "", errors.New("migration directory is required")
	}
	if err := os.MkdirAll(opts.Dir, 0o750); err != nil {
		return "", fmt.Errorf("create migration directory %s: %w", opts.Dir, err)
	}

	fileName := fmt.Sprintf("%s.%s.yaml", time.Now().UTC().Format("20060102_150405"), slug)
	if _, err := ParseFileName(fileName); err != nil {
		// slugify guarantees a valid label, so this only guards regressions
		return "", err
	}
	path := filepath.Join(opts.Dir, fileName)

	// O_EXCL: never overwrite; two creates in the same second conflict
	// loudly instead of clobbering each other.
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600) // #nosec G304
	if err != nil {
		return "", fmt.Errorf("create migration file %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	if _, err := fmt.Fprintf(f, migrationTemplate, opts.Name, opts.Name); err != nil {
		return "", fmt.Errorf("write migration file %s: %w", path, err)
	}
	return path, nil
}
