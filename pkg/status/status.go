// Package status aggregates migration state for CLI output and embedded
// callers: what is applied, what is pending, and the newest applied id.
package status

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/loykin/docmigrate"
)

// Applied is one recorded migration.
type Applied struct {
	FileName  string
	AppliedAt time.Time
}

// Info aggregates status information for one target.
type Info struct {
	// Current is the lexicographic (= chronological) max applied id,
	// empty when nothing is applied.
	Current string
	Applied []Applied
	Pending []string
}

// FromStore collects status from an opened store and the candidate source.
func FromStore(ctx context.Context, st *docmigrate.Store, source *docmigrate.Source) (Info, error) {
	records, err := st.Records(ctx)
	if err != nil {
		return Info{}, fmt.Errorf("list applied migrations: %w", err)
	}
	candidates, err := source.List()
	if err != nil {
		return Info{}, err
	}

	appliedSet := make(map[string]struct{}, len(records))
	applied := make([]Applied, 0, len(records))
	current := ""
	for _, r := range records {
		appliedSet[r.FileName] = struct{}{}
		applied = append(applied, Applied{FileName: r.FileName, AppliedAt: r.AppliedAt})
		if r.FileName > current {
			current = r.FileName
		}
	}
	sort.Slice(applied, func(i, j int) bool { return applied[i].FileName < applied[j].FileName })

	var pending []string
	for _, c := range candidates {
		if _, ok := appliedSet[c.FileName]; !ok {
			pending = append(pending, c.FileName)
		}
	}
	sort.Strings(pending)

	return Info{Current: current, Applied: applied, Pending: pending}, nil
}

// FormatHuman returns a human-friendly multiline string for CLI output.
func (i Info) FormatHuman() string {
	var b strings.Builder
	current := i.Current
	if current == "" {
		current = "(none)"
	}
	fmt.Fprintf(&b, "current: %s\n", current)
	fmt.Fprintf(&b, "applied (%d):\n", len(i.Applied))
	for _, a := range i.Applied {
		fmt.Fprintf(&b, "  %s at=%s\n", a.FileName, a.AppliedAt.UTC().Format(time.RFC3339))
	}
	fmt.Fprintf(&b, "pending (%d):\n", len(i.Pending))
	for _, p := range i.Pending {
		fmt.Fprintf(&b, "  %s\n", p)
	}
	return b.String()
}
