// Copyright Pritam Panda, 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pritampanda15/biomethod/internal/inventory"
	"github.com/pritampanda15/biomethod/pkg/types"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage the cross-project tool inventory (ingest, query, runs)",
	Long: `Store maintains a local SQLite inventory built from analysis exports.
Ingest exports written by "analyze -o", then query tool usage across
every analyzed project.`,
}

// --- index subcommand ---

var storeIndexCmd = &cobra.Command{
	Use:   "index <export...>",
	Short: "Ingest analysis exports into the inventory",
	Long: `Index loads one or more analysis export files into the inventory
database with FTS5 indexing. Re-ingesting an export replaces that run's
findings.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runStoreIndex,
}

func runStoreIndex(cmd *cobra.Command, args []string) error {
	store, err := openInventory(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	failed := 0
	for _, path := range args {
		if err := store.Ingest(context.Background(), path, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "ingest failed: %v\n", err)
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d export(s) failed ingestion", failed)
	}
	return nil
}

// --- query subcommand ---

var storeQueryCmd = &cobra.Command{
	Use:   "query [text]",
	Short: "Query tool usage across ingested projects",
	Long: `Query searches the inventory with FTS5 full-text search over tool names
and parameters, structured filters (tool, category, run), or a
combination of both.`,
	RunE: runStoreQuery,
}

func runStoreQuery(cmd *cobra.Command, args []string) error {
	store, err := openInventory(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	tool, _ := cmd.Flags().GetString("tool")
	category, _ := cmd.Flags().GetString("category")
	runID, _ := cmd.Flags().GetString("run")
	unknownOnly, _ := cmd.Flags().GetBool("unknown")
	limit, _ := cmd.Flags().GetInt("limit")

	opts := inventory.QueryOptions{
		Query:       strings.Join(args, " "),
		Tool:        tool,
		Category:    category,
		RunID:       runID,
		UnknownOnly: unknownOnly,
		MaxResults:  limit,
	}

	findings, err := store.Query(context.Background(), opts)
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(findings)
	}

	if len(findings) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Printf("%-16s  %-10s  %-20s  %-24s  %s\n",
		"Tool", "Version", "Run", "Category", "Mentions")
	for _, f := range findings {
		v := f.Version
		if v == "" {
			v = "-"
		}
		run := f.RunID
		if len(run) > 20 {
			run = run[:17] + "..."
		}
		fmt.Printf("%-16s  %-10s  %-20s  %-24s  %d\n",
			f.Tool, v, run, f.Category, f.Mentions)
	}
	fmt.Printf("\n%d results\n", len(findings))
	return nil
}

// --- runs subcommand ---

var storeRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List the ingested analysis runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openInventory(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		runs, err := store.Runs(context.Background())
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("No runs ingested.")
			return nil
		}

		fmt.Printf("%-20s  %-12s  %-6s  %s\n", "Run", "Workflow", "Tools", "Root")
		for _, r := range runs {
			wf := r.WorkflowType
			if wf == "" {
				wf = "-"
			}
			fmt.Printf("%-20s  %-12s  %-6d  %s\n", r.ID, wf, r.Tools, r.Root)
		}
		return nil
	},
}

// --- export subcommand ---

var storeExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the inventory to YAML or JSON",
	Long: `Export writes the inventory (or a filtered subset) to
<inventory-dir>/index/export.yaml or export.json. Supports the same
filter flags as query for partial exports.`,
	RunE: runStoreExport,
}

func runStoreExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	store, err := openInventory(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	tool, _ := cmd.Flags().GetString("tool")
	category, _ := cmd.Flags().GetString("category")
	runID, _ := cmd.Flags().GetString("run")
	opts := inventory.QueryOptions{
		Query:    strings.Join(args, " "),
		Tool:     tool,
		Category: category,
		RunID:    runID,
	}

	switch format {
	case "yaml", "":
		if err := store.ExportYAML(context.Background(), opts); err != nil {
			return err
		}
		fmt.Println("Exported to index/export.yaml")
	case "json":
		if err := store.ExportJSON(context.Background(), opts); err != nil {
			return err
		}
		fmt.Println("Exported to index/export.json")
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}

	return nil
}

// --- shared helpers ---

func openInventory(cmd *cobra.Command) (*inventory.Store, error) {
	dir, _ := cmd.Flags().GetString("inventory-dir")
	if dir == "" {
		dir = viper.GetString("inventory.dir")
	}
	if dir == "" {
		dir = "inventory"
	}
	maxResults, _ := cmd.Flags().GetInt("max-results")

	return inventory.NewStore(types.InventoryConfig{
		Dir:        dir,
		MaxResults: maxResults,
	})
}

func init() {
	// Shared flags on the parent command, inherited by subcommands.
	storeCmd.PersistentFlags().String("inventory-dir", "", "base directory for the inventory (contains index/)")
	storeCmd.PersistentFlags().Int("max-results", 20, "default maximum number of query results")

	// Query flags.
	storeQueryCmd.Flags().String("tool", "", "filter by canonical tool name")
	storeQueryCmd.Flags().String("category", "", "filter by tool category")
	storeQueryCmd.Flags().String("run", "", "filter by run ID")
	storeQueryCmd.Flags().Bool("unknown", false, "show only unrecognized commands")
	storeQueryCmd.Flags().Int("limit", 0, "maximum results (0 = use default)")
	storeQueryCmd.Flags().Bool("json", false, "output results as JSON")

	// Export flags.
	storeExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	storeExportCmd.Flags().String("tool", "", "filter by canonical tool name for partial export")
	storeExportCmd.Flags().String("category", "", "filter by tool category for partial export")
	storeExportCmd.Flags().String("run", "", "filter by run ID for partial export")

	// Wire subcommands.
	storeCmd.AddCommand(storeIndexCmd)
	storeCmd.AddCommand(storeQueryCmd)
	storeCmd.AddCommand(storeRunsCmd)
	storeCmd.AddCommand(storeExportCmd)

	rootCmd.AddCommand(storeCmd)
}
