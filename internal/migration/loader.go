package migration

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"github.com/loykin/docmigrate/internal/task"
	"go.mongodb.org/mongo-driver/mongo"
)

// Step is the executable unit of one migration.
type Step interface {
	Up(ctx context.Context, db *mongo.Database) error
}

// Loader turns a discovered migration into an executable step.
type Loader interface {
	Load(m Migration) (Step, error)
}

// FileLoader loads YAML task files from a directory.
type FileLoader struct {
	Dir string
}

func (l *FileLoader) Load(m Migration) (Step, error) {
	t, err := task.LoadFromFile(filepath.Join(l.Dir, m.FileName))
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", m.FileName, err)
	}
	if t.Up == nil {
		return nil, fmt.Errorf("%s: %w", m.FileName, ErrNoUpOperation)
	}
	return &fileStep{spec: t.Up}, nil
}

type fileStep struct {
	spec *task.Spec
}

func (s *fileStep) Up(ctx context.Context, db *mongo.Database) error {
	return s.spec.Execute(ctx, db)
}

// StepFunc adapts a plain function to the Step interface.
type StepFunc func(ctx context.Context, db *mongo.Database) error

func (f StepFunc) Up(ctx context.Context, db *mongo.Database) error {
	return f(ctx, db)
}

// Registry is a compiled-in migration table for embedded use, keyed by the
// same <sortKey>.<label>.<ext> names the file loader understands. It
// implements both Loader and the candidate listing, so registered names
// replace directory discovery entirely.
type Registry struct {
	mu    sync.RWMutex
	steps map[string]StepFunc
}

func NewRegistry() *Registry {
	return &Registry{steps: map[string]StepFunc{}}
}

// Register adds a migration under fileName. The name must parse; a bad name
// panics because registration happens at program init with literal names.
func (r *Registry) Register(fileName string, fn StepFunc) {
	if _, err := ParseFileName(fileName); err != nil {
		panic(fmt.Sprintf("docmigrate: register %s: %v", fileName, err))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps[fileName] = fn
}

// List returns the registered migrations, unordered, mirroring Source.List.
func (r *Registry) List() ([]Migration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	migrations := make([]Migration, 0, len(r.steps))
	for name := range r.steps {
		m, err := ParseFileName(name)
		if err != nil {
			return nil, err
		}
		migrations = append(migrations, m)
	}
	// map order is random; keep output stable for callers that print it
	sort.Slice(migrations, func(i, j int) bool { return migrations[i].FileName < migrations[j].FileName })
	return migrations, nil
}

func (r *Registry) Load(m Migration) (Step, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.steps[m.FileName]
	if !ok {
		return nil, fmt.Errorf("%s: %w", m.FileName, ErrNotRegistered)
	}
	if fn == nil {
		return nil, fmt.Errorf("%s: %w", m.FileName, ErrNoUpOperation)
	}
	return fn, nil
}
