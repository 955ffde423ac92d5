package main

import (
	"fmt"
	"strings"

	"github.com/loykin/docmigrate"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var createCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create a new timestamp-prefixed migration file from a template",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v := viper.GetViper()

		doc, migrateDir, err := loadConfigDoc(v.GetString("config"))
		if err != nil {
			return err
		}

		// New files go where migrations are authored.
		dir := migrateDir
		if strings.TrimSpace(doc.SourceDir) != "" {
			dir = doc.SourceDir
		}

		name := ""
		if len(args) > 0 {
			name = args[0]
		}
		p, err := docmigrate.CreateMigration(docmigrate.CreateOptions{Name: name, Dir: dir})
		if err != nil {
			return err
		}
		fmt.Println(p)
		return nil
	},
}
