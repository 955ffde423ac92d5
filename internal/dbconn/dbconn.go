package dbconn

import (
	"context"
	"errors"
	"fmt"

	"github.com/loykin/docmigrate/internal/common"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Config describes the target database. URI wins when set; otherwise the
// URI is assembled from host and port.
type Config struct {
	URI      string `mapstructure:"uri" yaml:"uri"`
	Host     string `mapstructure:"host" yaml:"host"`
	Port     int    `mapstructure:"port" yaml:"port"`
	Database string `mapstructure:"database" yaml:"database"`
	Username string `mapstructure:"username" yaml:"username"`
	Password string `mapstructure:"password" yaml:"password"`
}

func (c *Config) uri() string {
	if c.URI != "" {
		return c.URI
	}
	host := c.Host
	if host == "" {
		host = "localhost"
	}
	port := c.Port
	if port == 0 {
		port = 27017
	}
	return fmt.Sprintf("mongodb://%s:%d", host, port)
}

// Conn owns the single client used for the whole process: discovery, every
// migration step and the history store all share it. It is opened once at
// startup and closed when the run ends; there is no reconnect logic, so a
// dropped connection is fatal to the run.
type Conn struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect opens and pings the target database.
func Connect(ctx context.Context, cfg Config) (*Conn, error) {
	if cfg.Database == "" {
		return nil, errors.New("database name is required")
	}
	uri := cfg.uri()
	opts := options.Client().ApplyURI(uri)
	if cfg.Username != "" {
		opts.SetAuth(options.Credential{Username: cfg.Username, Password: cfg.Password})
	}

	logger := common.GetLogger().WithComponent("dbconn")
	logger.Debug("connecting", "uri", common.MaskURI(uri), "database", cfg.Database)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", common.MaskURI(uri), err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping %s: %w", common.MaskURI(uri), err)
	}
	logger.Info("connected", "database", cfg.Database)
	return &Conn{client: client, db: client.Database(cfg.Database)}, nil
}

// Database returns the target database handle.
func (c *Conn) Database() *mongo.Database {
	return c.db
}

// Close disconnects the client.
func (c *Conn) Close(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Disconnect(ctx)
}
