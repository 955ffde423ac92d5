package store

import (
	"context"
	"time"
)

// Connector is one storage backend for the applied-migration set. The name
// argument is the collection or table to operate on; implementations must
// key it uniquely by file name so Apply can detect duplicates.
type Connector interface {
	Connect(ctx context.Context) error
	Ensure(ctx context.Context, name string) error
	Apply(ctx context.Context, name, fileName string, at time.Time) error
	IsApplied(ctx context.Context, name, fileName string) (bool, error)
	ListApplied(ctx context.Context, name string) ([]Record, error)
	Close(ctx context.Context) error
}
