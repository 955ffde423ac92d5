package status

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/loykin/docmigrate"
	"github.com/loykin/docmigrate/internal/store/sqlite"
)

func newFixture(t *testing.T, applied []string, candidates []string) (*docmigrate.Store, *docmigrate.Source) {
	t.Helper()
	ctx := context.Background()

	dir := t.TempDir()
	for _, name := range candidates {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("up:\n  operations: []\n"), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	cfg := docmigrate.StoreConfig{
		Driver: docmigrate.DriverSqlite,
		Sqlite: sqlite.Config{Path: filepath.Join(t.TempDir(), "history.db")},
	}
	st, err := docmigrate.OpenStore(ctx, &cfg)
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	t.Cleanup(func() { _ = st.Close(context.Background()) })
	for _, name := range applied {
		if err := st.Apply(ctx, name); err != nil {
			t.Fatalf("Apply(%s): %v", name, err)
		}
	}
	return st, &docmigrate.Source{Dir: dir}
}

func TestFromStore(t *testing.T) {
	candidates := []string{
		"20240101_000000.first.yaml",
		"20240102_000000.second.yaml",
		"20240103_000000.third.yaml",
	}
	st, source := newFixture(t, candidates[:2], candidates)

	info, err := FromStore(context.Background(), st, source)
	if err != nil {
		t.Fatalf("FromStore: %v", err)
	}
	if info.Current != candidates[1] {
		t.Fatalf("Current = %q, want %q", info.Current, candidates[1])
	}
	if len(info.Applied) != 2 || info.Applied[0].FileName != candidates[0] {
		t.Fatalf("Applied = %+v", info.Applied)
	}
	for _, a := range info.Applied {
		if a.AppliedAt.IsZero() {
			t.Fatalf("zero applied time for %s", a.FileName)
		}
	}
	if len(info.Pending) != 1 || info.Pending[0] != candidates[2] {
		t.Fatalf("Pending = %v", info.Pending)
	}
}

func TestFromStoreEmpty(t *testing.T) {
	st, source := newFixture(t, nil, nil)
	info, err := FromStore(context.Background(), st, source)
	if err != nil {
		t.Fatalf("FromStore: %v", err)
	}
	if info.Current != "" || len(info.Applied) != 0 || len(info.Pending) != 0 {
		t.Fatalf("expected empty info, got %+v", info)
	}
}

func TestFormatHuman(t *testing.T) {
	candidates := []string{
		"20240101_000000.first.yaml",
		"20240102_000000.second.yaml",
	}
	st, source := newFixture(t, candidates[:1], candidates)
	info, err := FromStore(context.Background(), st, source)
	if err != nil {
		t.Fatalf("FromStore: %v", err)
	}

	out := info.FormatHuman()
	for _, want := range []string{
		"current: " + candidates[0],
		"applied (1):",
		"pending (1):",
		candidates[1],
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestFormatHumanEmpty(t *testing.T) {
	out := Info{}.FormatHuman()
	if !strings.Contains(out, "current: (none)") {
		t.Fatalf("expected (none) placeholder:\n%s", out)
	}
}
