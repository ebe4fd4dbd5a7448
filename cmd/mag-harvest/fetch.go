// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/mag-harvest/internal/logging"
	"github.com/pdiddy/mag-harvest/internal/mag"
	"github.com/pdiddy/mag-harvest/internal/secrets"
	"github.com/pdiddy/mag-harvest/pkg/types"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download all entities for a query expression and export them",
	Long: `Fetch pages through the evaluate endpoint until the API returns an empty
batch, processing entities as they arrive. The flattened table is written
as CSV and the untouched entities as indented JSON; both outputs are
optional and independent.

The query expression is passed through opaque; see the Project Academic
Knowledge query expression syntax reference.`,
	RunE: runFetch,
}

func runFetch(cmd *cobra.Command, args []string) error {
	expr, _ := cmd.Flags().GetString("expr")
	if expr == "" {
		return fmt.Errorf("query expression required: provide --expr")
	}

	keyFlag, _ := cmd.Flags().GetString("key")
	key := secretDefault(secrets.SubscriptionKey, keyFlag)
	if key == "" {
		return fmt.Errorf("subscription key required: provide --key or .secrets/%s", secrets.SubscriptionKey)
	}

	cfg := fetchConfig(cmd)
	logger := logging.New(types.LoggingConfig{
		Level:  viper.GetString("logging.level"),
		Format: viper.GetString("logging.format"),
	})

	spec := mag.QuerySpec{
		Expr:       expr,
		Key:        key,
		Count:      cfg.Count,
		Offset:     cfg.Offset,
		Model:      cfg.Model,
		Attributes: cfg.Attributes,
		MaxResults: cfg.MaxResults,
	}

	client := mag.NewClient(&http.Client{Timeout: cfg.Timeout}, cfg.UserAgent)
	ds := mag.NewDataset(spec, client, logger)
	ds.PageDelay = cfg.PageDelay
	ds.FosDelay = cfg.FosDelay

	if err := ds.Download(cmd.Context()); err != nil {
		return err
	}

	if withFoses, _ := cmd.Flags().GetBool("foses"); withFoses {
		if err := ds.FetchFieldsOfStudy(cmd.Context()); err != nil {
			return err
		}
	}

	csvPath, _ := cmd.Flags().GetString("csv")
	if csvPath != "" {
		if err := ds.SaveCSV(csvPath); err != nil {
			return err
		}
		fmt.Printf("Wrote %s (%d entities)\n", csvPath, ds.Len())
	}

	jsonPath, _ := cmd.Flags().GetString("json")
	if jsonPath != "" {
		if err := ds.SaveJSON(jsonPath); err != nil {
			return err
		}
		fmt.Printf("Wrote %s (%d entities)\n", jsonPath, ds.Len())
		if n := len(ds.FieldsOfStudy()); n > 0 {
			fmt.Printf("Wrote %s (%d fields of study)\n", mag.FosesPath(jsonPath), n)
		}
	}

	manifestPath, _ := cmd.Flags().GetString("manifest")
	if manifestPath != "" {
		if err := ds.WriteManifest(manifestPath); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", manifestPath)
	}

	return nil
}

// fetchConfig merges flags over config-file values. Flags win when set.
func fetchConfig(cmd *cobra.Command) types.FetchConfig {
	cfg := types.FetchConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   viper.GetDuration("fetch.timeout"),
			UserAgent: viper.GetString("fetch.user_agent"),
		},
		Count:      viper.GetInt("fetch.count"),
		Offset:     viper.GetInt("fetch.offset"),
		Model:      viper.GetString("fetch.model"),
		Attributes: viper.GetString("fetch.attributes"),
		MaxResults: viper.GetInt("fetch.max_results"),
		PageDelay:  viper.GetDuration("fetch.page_delay"),
		FosDelay:   viper.GetDuration("fetch.fos_delay"),
	}

	if cmd.Flags().Changed("count") {
		cfg.Count, _ = cmd.Flags().GetInt("count")
	}
	if cmd.Flags().Changed("offset") {
		cfg.Offset, _ = cmd.Flags().GetInt("offset")
	}
	if cmd.Flags().Changed("model") {
		cfg.Model, _ = cmd.Flags().GetString("model")
	}
	if cmd.Flags().Changed("attributes") {
		attrs, _ := cmd.Flags().GetStringSlice("attributes")
		cfg.Attributes = strings.Join(attrs, ",")
	}
	if cmd.Flags().Changed("max-results") {
		cfg.MaxResults, _ = cmd.Flags().GetInt("max-results")
	}

	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "mag-harvest/" + version
	}
	return cfg
}

func init() {
	fetchCmd.Flags().String("expr", "", "query expression")
	fetchCmd.Flags().String("key", "", "subscription key (default: .secrets/mag-subscription-key)")
	fetchCmd.Flags().Int("count", mag.DefaultCount, "entities per page")
	fetchCmd.Flags().Int("offset", 0, "starting offset")
	fetchCmd.Flags().String("model", mag.DefaultModel, "API model version")
	fetchCmd.Flags().StringSlice("attributes", nil, "attribute codes to retrieve (comma-separated)")
	fetchCmd.Flags().Int("max-results", 0, "cap on total entities retrieved (0 = all)")
	fetchCmd.Flags().Bool("foses", false, "also fetch the full field-of-study entities")
	fetchCmd.Flags().String("csv", "", "write the flattened table to this CSV file")
	fetchCmd.Flags().String("json", "", "write the raw entities to this JSON file")
	fetchCmd.Flags().String("manifest", "", "write a YAML run manifest to this file")

	rootCmd.AddCommand(fetchCmd)
}
