package migration

import (
	"fmt"
	"regexp"
)

// fileNameRegex matches <sortKey>.<label>.<ext> migration names, e.g.
// 20240101_000000.add-users.yaml. The sortKey prefix makes plain string
// ordering chronological; only that sortability is relied upon, not the
// exact timestamp layout.
var fileNameRegex = regexp.MustCompile(`^(\w+)\.([\w-]+)\.(ya?ml)$`)

// migrationExtRegex matches the runnable migration extension. Entries with
// other extensions are not migrations and are skipped during discovery.
var migrationExtRegex = regexp.MustCompile(`\.ya?ml$`)

// Migration identifies one migration file. Only FileName is ever persisted;
// SortKey and Label are derived from it on every parse.
type Migration struct {
	FileName string
	SortKey  string
	Label    string
}

// ParseFileName splits a migration file name into its identifier parts.
// A name with the migration extension but the wrong shape returns
// ErrInvalidFileName naming the file.
func ParseFileName(name string) (Migration, error) {
	m := fileNameRegex.FindStringSubmatch(name)
	if len(m) == 0 {
		return Migration{}, fmt.Errorf("%w: %q (want <sortKey>.<label>.yaml)", ErrInvalidFileName, name)
	}
	return Migration{FileName: name, SortKey: m[1], Label: m[2]}, nil
}

// HasMigrationExt reports whether the name carries the runnable extension.
func HasMigrationExt(name string) bool {
	return migrationExtRegex.MatchString(name)
}
