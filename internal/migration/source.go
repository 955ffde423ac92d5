package migration

import (
	"fmt"
	"os"
	"path/filepath"
)

// Source lists candidate migrations from disk.
//
// Dir holds the runnable migration files. AuthoredDir is optional: when it is
// set and differs from Dir, candidates are discovered from AuthoredDir and
// every authored migration must have a same-named runnable counterpart under
// Dir. That guards against running stale or absent artifacts when authored
// files and runnable files live in separate directories.
type Source struct {
	Dir         string
	AuthoredDir string
}

// List returns the discovered migrations in directory order (unsorted).
// Directories and entries without the migration extension are skipped;
// a malformed migration name is fatal because it cannot be ordered.
func (s *Source) List() ([]Migration, error) {
	listDir := s.Dir
	checkArtifacts := false
	if s.AuthoredDir != "" && s.AuthoredDir != s.Dir {
		listDir = s.AuthoredDir
		checkArtifacts = true
	}

	entries, err := os.ReadDir(listDir)
	if err != nil {
		return nil, fmt.Errorf("read migration directory %s: %w", listDir, err)
	}

	var migrations []Migration
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !HasMigrationExt(name) {
			continue
		}
		m, err := ParseFileName(name)
		if err != nil {
			return nil, err
		}
		if checkArtifacts {
			runnable := filepath.Join(s.Dir, name)
			if _, err := os.Stat(runnable); err != nil {
				return nil, fmt.Errorf("%w: authored %s has no counterpart at %s",
					ErrMissingArtifact, filepath.Join(listDir, name), runnable)
			}
		}
		migrations = append(migrations, m)
	}
	return migrations, nil
}
