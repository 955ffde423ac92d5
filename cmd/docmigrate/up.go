package main

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/loykin/docmigrate"
	"github.com/loykin/docmigrate/internal/common"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations in order",
	RunE: func(cmd *cobra.Command, args []string) error {
		v := viper.GetViper()
		ctx := context.Background()

		doc, migrateDir, err := loadConfigDoc(v.GetString("config"))
		if err != nil {
			return err
		}
		doc.SetupLogging()
		logger := common.GetLogger().WithComponent("up")

		// Optional readiness probe before touching the database.
		if err := doWait(ctx, doc.Wait, doc.Client); err != nil {
			return err
		}

		conn, err := docmigrate.Connect(ctx, doc.Mongo)
		if err != nil {
			return err
		}
		defer func() { _ = conn.Close(ctx) }()

		st, err := docmigrate.OpenStore(ctx, doc.ToStoreConfig(conn))
		if err != nil {
			return err
		}
		defer func() { _ = st.Close(ctx) }()

		m := docmigrate.Migrator{
			Source: &docmigrate.Source{Dir: migrateDir, AuthoredDir: doc.SourceDir},
			Store:  st,
			Loader: &docmigrate.FileLoader{Dir: migrateDir},
			DB:     conn.Database(),
			To:     v.GetString("to"),
			Delay:  doc.DelayBetweenMigrations,
		}
		applied, err := m.MigrateUp(ctx)
		logger.Info("run finished", "applied", len(applied))
		// The engine error propagates to cobra so a failed migration
		// exits non-zero.
		return err
	},
}

// loadConfigDoc loads the config file when present and resolves the
// migration directory, falling back to the config file's directory and
// finally the default CLI location.
func loadConfigDoc(configPath string) (*ConfigDoc, string, error) {
	doc := &ConfigDoc{}
	dir := ""
	if strings.TrimSpace(configPath) != "" {
		if err := doc.Load(configPath); err != nil {
			return nil, "", err
		}
		dir = strings.TrimSpace(doc.MigrateDir)
		if dir == "" {
			dir = filepath.Dir(configPath)
		}
	}
	if dir == "" {
		dir = "./config/migration"
	}
	// Normalize to absolute path to avoid working-directory surprises
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	return doc, dir, nil
}
