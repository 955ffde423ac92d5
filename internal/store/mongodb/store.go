package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/loykin/docmigrate/internal/common"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrDuplicate marks an insert for an already-recorded migration.
var ErrDuplicate = errors.New("duplicate migration record")

// Config carries the shared database handle. The store deliberately does
// not open its own connection: the process connects to the target database
// once, and the history collection lives inside it.
type Config struct {
	DB *mongo.Database
}

// Record is the persisted document. The file name is the _id, so the
// collection's primary index enforces uniqueness without a separate index.
type Record struct {
	FileName  string    `bson:"_id"`
	AppliedAt time.Time `bson:"applied_at"`
}

// Store keeps applied migrations in a collection of the target database.
type Store struct {
	db *mongo.Database
}

func New(cfg Config) *Store {
	return &Store{db: cfg.DB}
}

// Connect validates the injected handle; the connection itself is owned by
// the caller.
func (s *Store) Connect(_ context.Context) error {
	if s.db == nil {
		return errors.New("mongo store: no database handle configured")
	}
	logger := common.GetLogger().WithStore("mongo")
	logger.Debug("using target database for migration history", "database", s.db.Name())
	return nil
}

// Ensure is a no-op: the collection is created on first insert and _id is
// always uniquely indexed.
func (s *Store) Ensure(_ context.Context, _ string) error {
	return nil
}

// Apply inserts one record; a duplicate _id maps to ErrDuplicate.
func (s *Store) Apply(ctx context.Context, name, fileName string, at time.Time) error {
	_, err := s.db.Collection(name).InsertOne(ctx, Record{FileName: fileName, AppliedAt: at})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%s: %w", fileName, ErrDuplicate)
		}
		return err
	}
	return nil
}

func (s *Store) IsApplied(ctx context.Context, name, fileName string) (bool, error) {
	err := s.db.Collection(name).FindOne(ctx, bson.M{"_id": fileName}).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ListApplied returns all records; no order is guaranteed.
func (s *Store) ListApplied(ctx context.Context, name string) ([]Record, error) {
	cur, err := s.db.Collection(name).Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = cur.Close(ctx) }()

	var records []Record
	for cur.Next(ctx) {
		var r Record
		if err := cur.Decode(&r); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, cur.Err()
}

// Close is a no-op; the client belongs to the process, not the store.
func (s *Store) Close(_ context.Context) error {
	return nil
}
