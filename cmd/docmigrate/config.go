package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/loykin/docmigrate"
	"github.com/loykin/docmigrate/internal/common"
	"github.com/spf13/viper"
)

// StoreDoc is the store: section of the config file.
type StoreDoc struct {
	Type       string `mapstructure:"type"`
	Collection string `mapstructure:"collection"`
	Sqlite     struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"sqlite"`
	Postgres struct {
		DSN string `mapstructure:"dsn"`
	} `mapstructure:"postgres"`
}

// WaitConfig is an optional HTTP readiness probe run before migrations.
type WaitConfig struct {
	URL      string        `mapstructure:"url"`
	Method   string        `mapstructure:"method"`
	Status   int           `mapstructure:"status"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Interval time.Duration `mapstructure:"interval"`
}

// ClientConfig holds TLS options for the readiness probe.
type ClientConfig struct {
	Insecure      bool   `mapstructure:"insecure"`
	MinTLSVersion string `mapstructure:"min_tls_version"`
	MaxTLSVersion string `mapstructure:"max_tls_version"`
}

// LoggingConfig is the logging: section.
type LoggingConfig struct {
	Level         string `mapstructure:"level"`  // error, warn, info, debug
	Format        string `mapstructure:"format"` // text, json, color
	Color         *bool  `mapstructure:"color"`
	MaskSensitive *bool  `mapstructure:"mask_sensitive"`
}

// ConfigDoc is the full config file.
type ConfigDoc struct {
	Mongo      docmigrate.DBConfig `mapstructure:"mongo"`
	MigrateDir string              `mapstructure:"migrate_dir"`
	// SourceDir, when set and different from MigrateDir, is where authored
	// migrations live; every authored file must have a runnable counterpart
	// under MigrateDir.
	SourceDir              string        `mapstructure:"source_dir"`
	Store                  StoreDoc      `mapstructure:"store"`
	Wait                   WaitConfig    `mapstructure:"wait"`
	Client                 ClientConfig  `mapstructure:"client"`
	Logging                LoggingConfig `mapstructure:"logging"`
	DelayBetweenMigrations time.Duration `mapstructure:"delay_between_migrations"`
}

// Load reads and decodes the config file at path.
func (c *ConfigDoc) Load(path string) error {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	decodeHook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(c, decodeHook); err != nil {
		return fmt.Errorf("decode config %s: %w", path, err)
	}
	return nil
}

// ToStoreConfig maps the store: section onto a backend config. The mongo
// backend reuses the already-open target connection.
func (c *ConfigDoc) ToStoreConfig(conn *docmigrate.Conn) *docmigrate.StoreConfig {
	cfg := &docmigrate.StoreConfig{Driver: c.Store.Type, Name: c.Store.Collection}
	if cfg.Driver == "" {
		cfg.Driver = docmigrate.DriverMongo
	}
	switch cfg.Driver {
	case docmigrate.DriverSqlite:
		cfg.Sqlite.Path = c.Store.Sqlite.Path
	case docmigrate.DriverPostgres:
		cfg.Postgres.DSN = c.Store.Postgres.DSN
	default:
		if conn != nil {
			cfg.Mongo.DB = conn.Database()
		}
	}
	return cfg
}

// SetupLogging builds the process logger from the logging: section.
func (c *ConfigDoc) SetupLogging() {
	level := common.ParseLogLevel(c.Logging.Level)
	var logger *common.Logger
	switch c.Logging.Format {
	case "json":
		logger = common.NewJSONLogger(level)
	case "text":
		logger = common.NewLogger(level)
	default:
		opts := &slog.HandlerOptions{Level: level.ToSlogLevel()}
		handler := common.NewColorHandler(os.Stdout, opts)
		if c.Logging.Color != nil {
			handler.SetUseColor(*c.Logging.Color)
		}
		if c.Logging.MaskSensitive != nil && !*c.Logging.MaskSensitive {
			handler.SetMasker(nil)
		}
		logger = common.NewLoggerWithHandler(level, handler)
	}
	common.SetDefaultLogger(logger)
}
