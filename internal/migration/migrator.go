package migration

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/loykin/docmigrate/internal/common"
	"go.mongodb.org/mongo-driver/mongo"
)

// Lister yields candidate migrations; satisfied by *Source and *Registry.
type Lister interface {
	List() ([]Migration, error)
}

// AppliedStore is the slice of the history store the engine needs.
type AppliedStore interface {
	ListApplied(ctx context.Context) ([]string, error)
	Apply(ctx context.Context, fileName string) error
}

// Migrator reconciles migrations on disk against the applied set and runs
// the difference in order, committing after every step.
type Migrator struct {
	Source Lister
	Store  AppliedStore
	Loader Loader
	DB     *mongo.Database
	// To, when set, bounds the run to migrations whose sortKey is <= To.
	To string
	// Delay is an optional pause between migrations for backends that need
	// time to settle between schema changes.
	Delay time.Duration
}

type listResult struct {
	migrations []Migration
	err        error
}

// MigrateUp computes the pending set, applies it oldest-first and records
// each migration before moving to the next. It returns the file names
// applied and committed this run, in execution order. On failure the run
// aborts immediately: everything already returned is durably recorded,
// the failing migration and everything after it is not.
func (m *Migrator) MigrateUp(ctx context.Context) ([]string, error) {
	logger := common.GetLogger().WithComponent("migrator")

	// The two discovery reads touch different resources and may overlap.
	ch := make(chan listResult, 1)
	go func() {
		migrations, err := m.Source.List()
		ch <- listResult{migrations: migrations, err: err}
	}()
	applied, appliedErr := m.Store.ListApplied(ctx)
	candidates := <-ch
	if candidates.err != nil {
		return nil, candidates.err
	}
	if appliedErr != nil {
		return nil, fmt.Errorf("list applied migrations: %w", appliedErr)
	}

	pending := pendingOf(candidates.migrations, applied, m.To)
	if len(pending) == 0 {
		logger.Info("database is up to date", "applied", len(applied), "last", latestOf(applied))
		return nil, nil
	}

	// Lexicographic order equals chronological order because of the sortKey
	// prefix. Later migrations may depend on earlier ones, so this ordering
	// and the strictly sequential loop below are both load-bearing.
	sort.Slice(pending, func(i, j int) bool { return pending[i].FileName < pending[j].FileName })

	result := make([]string, 0, len(pending))
	for i, mig := range pending {
		stepLogger := logger.WithMigration(mig.FileName)

		step, err := m.Loader.Load(mig)
		if err != nil {
			stepLogger.Error("failed to load migration", "error", err)
			return result, err
		}

		stepLogger.Info("applying migration", "position", fmt.Sprintf("%d/%d", i+1, len(pending)))
		if err := step.Up(ctx, m.DB); err != nil {
			stepLogger.Error("migration failed", "error", err)
			return result, fmt.Errorf("migration %s failed: %w", mig.FileName, err)
		}

		// Commit before touching the next migration. This per-step record is
		// what makes an interrupted run resumable from exactly the next
		// unapplied migration.
		if err := m.Store.Apply(ctx, mig.FileName); err != nil {
			stepLogger.Error("failed to record migration", "error", err)
			return result, fmt.Errorf("record apply %s: %w", mig.FileName, err)
		}
		result = append(result, mig.FileName)
		stepLogger.Info("migration applied")

		if m.Delay > 0 && i < len(pending)-1 {
			time.Sleep(m.Delay)
		}
	}
	return result, nil
}

// pendingOf computes candidates \ applied, honoring the optional sortKey
// bound. Candidate order is preserved (callers sort).
func pendingOf(candidates []Migration, applied []string, to string) []Migration {
	appliedSet := make(map[string]struct{}, len(applied))
	for _, name := range applied {
		appliedSet[name] = struct{}{}
	}
	pending := make([]Migration, 0, len(candidates))
	for _, c := range candidates {
		if _, ok := appliedSet[c.FileName]; ok {
			continue
		}
		if to != "" && c.SortKey > to {
			continue
		}
		pending = append(pending, c)
	}
	return pending
}

// latestOf picks the lexicographic max of the applied ids, which is the
// chronologically newest one. Deterministic regardless of store order.
func latestOf(applied []string) string {
	latest := ""
	for _, name := range applied {
		if name > latest {
			latest = name
		}
	}
	return latest
}
