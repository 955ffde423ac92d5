package main

import (
	"context"
	"fmt"

	"github.com/loykin/docmigrate"
	"github.com/loykin/docmigrate/pkg/status"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show applied and pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		v := viper.GetViper()
		ctx := context.Background()

		doc, migrateDir, err := loadConfigDoc(v.GetString("config"))
		if err != nil {
			return err
		}
		doc.SetupLogging()

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

		source := &docmigrate.Source{Dir: migrateDir, AuthoredDir: doc.SourceDir}
		info, err := status.FromStore(ctx, st, source)
		if err != nil {
			return err
		}
		fmt.Print(info.FormatHuman())
		return nil
	},
}
