// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/mag-harvest/internal/store"
)

var queryCmd = &cobra.Command{
	Use:   "query [terms]",
	Short: "Search the local publication index",
	Long: `Query runs an FTS5 full-text search over the titles and abstracts of
indexed publications and prints the matches as a table or as JSON.`,
	RunE: runQuery,
}

func runQuery(cmd *cobra.Command, args []string) error {
	q, _ := cmd.Flags().GetString("q")
	if q == "" && len(args) > 0 {
		q = strings.Join(args, " ")
	}
	if q == "" {
		return fmt.Errorf("search terms required: provide --q or positional arguments")
	}

	s, err := store.Open(storeConfig(cmd))
	if err != nil {
		return err
	}
	defer s.Close()

	limit, _ := cmd.Flags().GetInt("max-results")
	results, err := s.Search(cmd.Context(), q, limit)
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	formatQueryOutput(results)
	return nil
}

func formatQueryOutput(results []store.Publication) {
	if len(results) == 0 {
		fmt.Println("No results found.")
		return
	}

	fmt.Fprintf(os.Stdout, "%-4s  %-60s  %-24s  %-4s  %s\n",
		"Rank", "Title", "Authors", "Year", "Journal")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 110))

	for i, p := range results {
		title := p.Title
		if len(title) > 60 {
			title = title[:57] + "..."
		}
		authors := p.Authors
		if len(authors) > 24 {
			authors = authors[:21] + "..."
		}
		year := ""
		if p.Year > 0 {
			year = fmt.Sprintf("%d", p.Year)
		}
		fmt.Fprintf(os.Stdout, "%-4d  %-60s  %-24s  %-4s  %s\n",
			i+1, title, authors, year, p.Journal)
	}

	fmt.Fprintf(os.Stdout, "\n%d results\n", len(results))
}

func init() {
	queryCmd.Flags().String("q", "", "full-text search terms")
	queryCmd.Flags().String("db", "", "SQLite database path (default: index/publications.db)")
	queryCmd.Flags().Int("max-results", 0, "maximum results (0 = store default)")
	queryCmd.Flags().Bool("json", false, "output results as JSON")

	rootCmd.AddCommand(queryCmd)
}
