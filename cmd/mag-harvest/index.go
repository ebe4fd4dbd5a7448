// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/mag-harvest/internal/store"
	"github.com/pdiddy/mag-harvest/pkg/types"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Ingest a raw JSON export into the local publication index",
	Long: `Index reads the raw entity export written by fetch --json, flattens each
entity, and upserts it into a SQLite database with FTS5 full-text search
over titles and abstracts. Re-indexing the same export updates entities
in place when they carry a MAG id.`,
	RunE: runIndex,
}

func runIndex(cmd *cobra.Command, args []string) error {
	jsonPath, _ := cmd.Flags().GetString("json")
	if jsonPath == "" {
		return fmt.Errorf("export file required: provide --json")
	}

	s, err := store.Open(storeConfig(cmd))
	if err != nil {
		return err
	}
	defer s.Close()

	summary, err := s.IngestJSON(cmd.Context(), jsonPath, os.Stdout)
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d entities failed indexing", summary.Failed)
	}
	return nil
}

func storeConfig(cmd *cobra.Command) types.StoreConfig {
	cfg := types.StoreConfig{
		Path:       viper.GetString("store.path"),
		MaxResults: viper.GetInt("store.max_results"),
	}
	if cmd.Flags().Changed("db") {
		cfg.Path, _ = cmd.Flags().GetString("db")
	}
	if cmd.Flags().Changed("max-results") {
		cfg.MaxResults, _ = cmd.Flags().GetInt("max-results")
	}
	return cfg
}

func init() {
	indexCmd.Flags().String("json", "", "raw entity export to ingest")
	indexCmd.Flags().String("db", "", "SQLite database path (default: index/publications.db)")

	rootCmd.AddCommand(indexCmd)
}
