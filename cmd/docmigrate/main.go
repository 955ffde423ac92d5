package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "docmigrate",
	Short: "Run MongoDB migrations defined in YAML files",
}

func init() {
	v := viper.GetViper()
	v.SetDefault("config", "./config/config.yaml")
	v.SetDefault("to", "")

	// Environment variables support: DOCMIGRATE_CONFIG, DOCMIGRATE_TO, ...
	v.SetEnvPrefix("DOCMIGRATE")
	v.AutomaticEnv()

	rootCmd.PersistentFlags().String("config", v.GetString("config"), "path to a config yaml")
	upCmd.Flags().String("to", v.GetString("to"), "apply only migrations whose sortKey is <= this value (empty = all)")

	_ = v.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = v.BindPFlag("to", upCmd.Flags().Lookup("to"))

	rootCmd.AddCommand(upCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(createCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		// A failed migration must be visible in the exit status, not just
		// in the log output.
		exitHandler.LogFatalError(err, "command execution failed")
	}
}
