package task

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/loykin/docmigrate/internal/common"
	"go.mongodb.org/mongo-driver/mongo"
	"gopkg.in/yaml.v3"
)

// Task is one migration file: an up specification and an optional down
// specification. Down is parsed so authors get early validation, but it is
// never executed (rollback is out of scope).
type Task struct {
	Up   *Spec `yaml:"up"`
	Down *Spec `yaml:"down"`
}

// Spec is an ordered list of database operations with a display name.
type Spec struct {
	Name       string      `yaml:"name"`
	Operations []Operation `yaml:"operations"`
}

// LoadFromFile loads a Task from a YAML file path.
func LoadFromFile(path string) (Task, error) {
	clean := filepath.Clean(path)
	// #nosec G304 -- path comes from a controlled migration directory listing
	f, err := os.Open(clean)
	if err != nil {
		return Task{}, err
	}
	defer func() { _ = f.Close() }()
	return Decode(f)
}

// Decode decodes a Task from the provided reader.
func Decode(r io.Reader) (Task, error) {
	dec := yaml.NewDecoder(r)
	var t Task
	if err := dec.Decode(&t); err != nil {
		return Task{}, fmt.Errorf("decode migration yaml: %w", err)
	}
	return t, nil
}

// Execute runs the operations in order against the provided database and
// stops at the first failure, naming the failed operation.
func (s *Spec) Execute(ctx context.Context, db *mongo.Database) error {
	logger := common.GetLogger().WithComponent("task")
	for i, op := range s.Operations {
		kind, run, err := op.compile()
		if err != nil {
			return fmt.Errorf("operation %d: %w", i+1, err)
		}
		logger.Debug("executing operation", "name", s.Name, "index", i+1, "kind", kind)
		if err := run(ctx, db); err != nil {
			return fmt.Errorf("operation %d (%s): %w", i+1, kind, err)
		}
	}
	return nil
}
