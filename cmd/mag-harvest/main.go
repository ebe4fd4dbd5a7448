// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the mag-harvest CLI: it downloads
// publication entities for a query expression, exports them as CSV and
// raw JSON, and maintains a local full-text index over past harvests.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/mag-harvest/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns fallback when non-empty, otherwise the secret
// value for key if one was loaded.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the mag-harvest CLI.
var rootCmd = &cobra.Command{
	Use:   "mag-harvest",
	Short: "Harvest publication entities from the Microsoft Academic API",
	Long: `mag-harvest pages through the Microsoft Academic evaluate endpoint for a
query expression, restores inverted abstracts, flattens nested author,
journal, and field-of-study attributes, and writes the result as a CSV
table and a raw JSON export.

Each operation is a subcommand: fetch downloads and exports a query,
index ingests a raw JSON export into a local SQLite database, and query
searches that database with full-text search.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./mag-harvest.yaml or ~/.config/mag-harvest/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("mag-harvest")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "mag-harvest"))
		}
	}

	viper.SetEnvPrefix("MAG_HARVEST")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
