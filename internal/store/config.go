package store

import (
	"fmt"
	"strings"

	"github.com/loykin/docmigrate/internal/store/mongodb"
	"github.com/loykin/docmigrate/internal/store/postgresql"
	"github.com/loykin/docmigrate/internal/store/sqlite"
)

// Backend driver names accepted in config.
const (
	DriverMongo    = "mongo"
	DriverSqlite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config selects and configures the history backend. The default backend is
// the target mongo database itself; sqlite and postgres keep the history in
// an external database for deployments where the migration user must not
// write to the target.
type Config struct {
	Driver   string
	Name     string // collection/table name; DefaultName when empty
	Mongo    mongodb.Config
	Sqlite   sqlite.Config
	Postgres postgresql.Config
}

func (c *Config) connector() (Connector, error) {
	switch strings.ToLower(strings.TrimSpace(c.Driver)) {
	case DriverMongo, "mongodb", "":
		return &mongoConnector{store: mongodb.New(c.Mongo)}, nil
	case DriverSqlite, "sqlite3":
		return &sqliteConnector{store: sqlite.New(c.Sqlite)}, nil
	case DriverPostgres, "postgresql", "pg":
		return &postgresConnector{store: postgresql.New(c.Postgres)}, nil
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", c.Driver)
	}
}
