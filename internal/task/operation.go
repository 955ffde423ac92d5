package task

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Operation is one database change. Exactly one kind must be set per entry.
type Operation struct {
	CreateCollection *CreateCollection `yaml:"create_collection"`
	DropCollection   *DropCollection   `yaml:"drop_collection"`
	CreateIndex      *CreateIndex      `yaml:"create_index"`
	DropIndex        *DropIndex        `yaml:"drop_index"`
	Insert           *Insert           `yaml:"insert"`
	Update           *Update           `yaml:"update"`
	Delete           *Delete           `yaml:"delete"`
	RenameCollection *RenameCollection `yaml:"rename_collection"`
	RunCommand       *RunCommand       `yaml:"run_command"`
}

type opFunc func(ctx context.Context, db *mongo.Database) error

// compile validates the entry and returns its kind name and executor.
func (o *Operation) compile() (string, opFunc, error) {
	type kind struct {
		name string
		run  opFunc
		set  bool
	}
	kinds := []kind{
		{"create_collection", o.createCollection, o.CreateCollection != nil},
		{"drop_collection", o.dropCollection, o.DropCollection != nil},
		{"create_index", o.createIndex, o.CreateIndex != nil},
		{"drop_index", o.dropIndex, o.DropIndex != nil},
		{"insert", o.insert, o.Insert != nil},
		{"update", o.update, o.Update != nil},
		{"delete", o.delete, o.Delete != nil},
		{"rename_collection", o.renameCollection, o.RenameCollection != nil},
		{"run_command", o.runCommand, o.RunCommand != nil},
	}
	var picked *kind
	for i := range kinds {
		if !kinds[i].set {
			continue
		}
		if picked != nil {
			return "", nil, fmt.Errorf("sets both %s and %s; one kind per entry", picked.name, kinds[i].name)
		}
		picked = &kinds[i]
	}
	if picked == nil {
		return "", nil, errors.New("sets no operation kind")
	}
	return picked.name, picked.run, nil
}

type CreateCollection struct {
	Name         string `yaml:"name"`
	Capped       bool   `yaml:"capped"`
	SizeBytes    int64  `yaml:"size_bytes"`
	MaxDocuments int64  `yaml:"max_documents"`
}

func (o *Operation) createCollection(ctx context.Context, db *mongo.Database) error {
	c := o.CreateCollection
	if c.Name == "" {
		return errors.New("create_collection: name is required")
	}
	opts := options.CreateCollection()
	if c.Capped {
		if c.SizeBytes <= 0 {
			return errors.New("create_collection: capped collections require size_bytes")
		}
		opts.SetCapped(true).SetSizeInBytes(c.SizeBytes)
		if c.MaxDocuments > 0 {
			opts.SetMaxDocuments(c.MaxDocuments)
		}
	}
	return db.CreateCollection(ctx, c.Name, opts)
}

type DropCollection struct {
	Name string `yaml:"name"`
}

func (o *Operation) dropCollection(ctx context.Context, db *mongo.Database) error {
	if o.DropCollection.Name == "" {
		return errors.New("drop_collection: name is required")
	}
	return db.Collection(o.DropCollection.Name).Drop(ctx)
}

// IndexKey is one field of a compound index; keys are ordered, so a list is
// used instead of a YAML map.
type IndexKey struct {
	Field string `yaml:"field"`
	Order int    `yaml:"order"` // 1 ascending (default), -1 descending
}

type CreateIndex struct {
	Collection  string     `yaml:"collection"`
	Name        string     `yaml:"name"`
	Keys        []IndexKey `yaml:"keys"`
	Unique      bool       `yaml:"unique"`
	Sparse      bool       `yaml:"sparse"`
	ExpireAfter string     `yaml:"expire_after"` // duration, e.g. "720h"
}

func (o *Operation) createIndex(ctx context.Context, db *mongo.Database) error {
	c := o.CreateIndex
	if c.Collection == "" || len(c.Keys) == 0 {
		return errors.New("create_index: collection and keys are required")
	}
	keys := bson.D{}
	for _, k := range c.Keys {
		if k.Field == "" {
			return errors.New("create_index: key field is required")
		}
		order := k.Order
		if order == 0 {
			order = 1
		}
		if order != 1 && order != -1 {
			return fmt.Errorf("create_index: key %s: order must be 1 or -1", k.Field)
		}
		keys = append(keys, bson.E{Key: k.Field, Value: order})
	}
	iopts := options.Index()
	if c.Name != "" {
		iopts.SetName(c.Name)
	}
	if c.Unique {
		iopts.SetUnique(true)
	}
	if c.Sparse {
		iopts.SetSparse(true)
	}
	if c.ExpireAfter != "" {
		d, err := time.ParseDuration(c.ExpireAfter)
		if err != nil {
			return fmt.Errorf("create_index: expire_after: %w", err)
		}
		iopts.SetExpireAfterSeconds(int32(d.Seconds()))
	}
	_, err := db.Collection(c.Collection).Indexes().CreateOne(ctx, mongo.IndexModel{Keys: keys, Options: iopts})
	return err
}

type DropIndex struct {
	Collection string `yaml:"collection"`
	Name       string `yaml:"name"`
}

func (o *Operation) dropIndex(ctx context.Context, db *mongo.Database) error {
	c := o.DropIndex
	if c.Collection == "" || c.Name == "" {
		return errors.New("drop_index: collection and name are required")
	}
	_, err := db.Collection(c.Collection).Indexes().DropOne(ctx, c.Name)
	return err
}

type Insert struct {
	Collection string                   `yaml:"collection"`
	Documents  []map[string]interface{} `yaml:"documents"`
}

func (o *Operation) insert(ctx context.Context, db *mongo.Database) error {
	c := o.Insert
	if c.Collection == "" || len(c.Documents) == 0 {
		return errors.New("insert: collection and documents are required")
	}
	docs := make([]interface{}, len(c.Documents))
	for i, d := range c.Documents {
		docs[i] = d
	}
	_, err := db.Collection(c.Collection).InsertMany(ctx, docs)
	return err
}

type Update struct {
	Collection string                 `yaml:"collection"`
	Filter     map[string]interface{} `yaml:"filter"`
	Set        map[string]interface{} `yaml:"set"`
	Unset      []string               `yaml:"unset"`
	Many       bool                   `yaml:"many"`
}

func (o *Operation) update(ctx context.Context, db *mongo.Database) error {
	c := o.Update
	if c.Collection == "" {
		return errors.New("update: collection is required")
	}
	if len(c.Set) == 0 && len(c.Unset) == 0 {
		return errors.New("update: set or unset is required")
	}
	change := bson.M{}
	if len(c.Set) > 0 {
		change["$set"] = c.Set
	}
	if len(c.Unset) > 0 {
		unset := bson.M{}
		for _, f := range c.Unset {
			unset[f] = ""
		}
		change["$unset"] = unset
	}
	filter := c.Filter
	if filter == nil {
		filter = map[string]interface{}{}
	}
	coll := db.Collection(c.Collection)
	var err error
	if c.Many {
		_, err = coll.UpdateMany(ctx, filter, change)
	} else {
		_, err = coll.UpdateOne(ctx, filter, change)
	}
	return err
}

type Delete struct {
	Collection string                 `yaml:"collection"`
	Filter     map[string]interface{} `yaml:"filter"`
	Many       bool                   `yaml:"many"`
}

func (o *Operation) delete(ctx context.Context, db *mongo.Database) error {
	c := o.Delete
	if c.Collection == "" {
		return errors.New("delete: collection is required")
	}
	// an explicit empty filter ({}) is allowed, an absent one is not
	if c.Filter == nil {
		return errors.New("delete: filter is required")
	}
	coll := db.Collection(c.Collection)
	var err error
	if c.Many {
		_, err = coll.DeleteMany(ctx, c.Filter)
	} else {
		_, err = coll.DeleteOne(ctx, c.Filter)
	}
	return err
}

type RenameCollection struct {
	From       string `yaml:"from"`
	To         string `yaml:"to"`
	DropTarget bool   `yaml:"drop_target"`
}

func (o *Operation) renameCollection(ctx context.Context, db *mongo.Database) error {
	c := o.RenameCollection
	if c.From == "" || c.To == "" {
		return errors.New("rename_collection: from and to are required")
	}
	// renameCollection is an admin command addressed by namespace
	admin := db.Client().Database("admin")
	cmd := bson.D{
		{Key: "renameCollection", Value: db.Name() + "." + c.From},
		{Key: "to", Value: db.Name() + "." + c.To},
		{Key: "dropTarget", Value: c.DropTarget},
	}
	return admin.RunCommand(ctx, cmd).Err()
}
