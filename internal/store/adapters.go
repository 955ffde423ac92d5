package store

import (
	"context"
	"errors"
	"time"

	"github.com/loykin/docmigrate/internal/store/mongodb"
	"github.com/loykin/docmigrate/internal/store/postgresql"
	"github.com/loykin/docmigrate/internal/store/sqlite"
)

// The adapters lift each backend onto the Connector interface and translate
// backend duplicate errors into the package sentinel.

type mongoConnector struct {
	store *mongodb.Store
}

func (c *mongoConnector) Connect(ctx context.Context) error { return c.store.Connect(ctx) }
func (c *mongoConnector) Ensure(ctx context.Context, name string) error {
	return c.store.Ensure(ctx, name)
}

func (c *mongoConnector) Apply(ctx context.Context, name, fileName string, at time.Time) error {
	err := c.store.Apply(ctx, name, fileName, at)
	if errors.Is(err, mongodb.ErrDuplicate) {
		return errors.Join(ErrDuplicateRecord, err)
	}
	return err
}

func (c *mongoConnector) IsApplied(ctx context.Context, name, fileName string) (bool, error) {
	return c.store.IsApplied(ctx, name, fileName)
}

func (c *mongoConnector) ListApplied(ctx context.Context, name string) ([]Record, error) {
	records, err := c.store.ListApplied(ctx, name)
	if err != nil {
		return nil, err
	}
	out := make([]Record, len(records))
	for i, r := range records {
		out[i] = Record{FileName: r.FileName, AppliedAt: r.AppliedAt}
	}
	return out, nil
}

func (c *mongoConnector) Close(ctx context.Context) error { return c.store.Close(ctx) }

type sqliteConnector struct {
	store *sqlite.Store
}

func (c *sqliteConnector) Connect(ctx context.Context) error { return c.store.Connect(ctx) }
func (c *sqliteConnector) Ensure(ctx context.Context, name string) error {
	return c.store.Ensure(ctx, name)
}

func (c *sqliteConnector) Apply(ctx context.Context, name, fileName string, at time.Time) error {
	err := c.store.Apply(ctx, name, fileName, at)
	if errors.Is(err, sqlite.ErrDuplicate) {
		return errors.Join(ErrDuplicateRecord, err)
	}
	return err
}

func (c *sqliteConnector) IsApplied(ctx context.Context, name, fileName string) (bool, error) {
	return c.store.IsApplied(ctx, name, fileName)
}

func (c *sqliteConnector) ListApplied(ctx context.Context, name string) ([]Record, error) {
	records, err := c.store.ListApplied(ctx, name)
	if err != nil {
		return nil, err
	}
	out := make([]Record, len(records))
	for i, r := range records {
		out[i] = Record{FileName: r.FileName, AppliedAt: r.AppliedAt}
	}
	return out, nil
}

func (c *sqliteConnector) Close(ctx context.Context) error { return c.store.Close(ctx) }

type postgresConnector struct {
	store *postgresql.Store
}

func (c *postgresConnector) Connect(ctx context.Context) error { return c.store.Connect(ctx) }
func (c *postgresConnector) Ensure(ctx context.Context, name string) error {
	return c.store.Ensure(ctx, name)
}

func (c *postgresConnector) Apply(ctx context.Context, name, fileName string, at time.Time) error {
	err := c.store.Apply(ctx, name, fileName, at)
	if errors.Is(err, postgresql.ErrDuplicate) {
		return errors.Join(ErrDuplicateRecord, err)
	}
	return err
}

func (c *postgresConnector) IsApplied(ctx context.Context, name, fileName string) (bool, error) {
	return c.store.IsApplied(ctx, name, fileName)
}

func (c *postgresConnector) ListApplied(ctx context.Context, name string) ([]Record, error) {
	records, err := c.store.ListApplied(ctx, name)
	if err != nil {
		return nil, err
	}
	out := make([]Record, len(records))
	for i, r := range records {
		out[i] = Record{FileName: r.FileName, AppliedAt: r.AppliedAt}
	}
	return out, nil
}

func (c *postgresConnector) Close(ctx context.Context) error { return c.store.Close(ctx) }
