package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pritampanda15/biomethod/pkg/types"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the tools in the registry",
	Long: `Tools lists every tool in the registry with its category and
description. Use --category to narrow the listing and --format to choose
table, json, or csv output.`,
	RunE: runTools,
}

func runTools(cmd *cobra.Command, args []string) error {
	reg, err := loadRegistry(cmd)
	if err != nil {
		return err
	}
	category, _ := cmd.Flags().GetString("category")
	format, _ := cmd.Flags().GetString("format")

	var records []*types.ToolRecord
	for _, name := range reg.Names() {
		rec, _ := reg.Record(name)
		if category != "" && string(rec.Category) != category {
			continue
		}
		records = append(records, rec)
	}

	switch format {
	case "table", "":
		fmt.Printf("%-16s  %-24s  %s\n", "Tool", "Category", "Description")
		for _, rec := range records {
			fmt.Printf("%-16s  %-24s  %s\n", rec.Name, string(rec.Category), rec.Description)
		}
		fmt.Printf("\n%d tools\n", len(records))
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	case "csv":
		cw := csv.NewWriter(os.Stdout)
		if err := cw.Write([]string{"tool", "category", "description"}); err != nil {
			return err
		}
		for _, rec := range records {
			if err := cw.Write([]string{rec.Name, string(rec.Category), rec.Description}); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	default:
		return fmt.Errorf("unsupported format %q: use table, json, or csv", format)
	}
	return nil
}

func init() {
	toolsCmd.Flags().String("category", "", "filter by category (alignment, quantification, ...)")
	toolsCmd.Flags().String("format", "table", "output format: table, json, or csv")

	rootCmd.AddCommand(toolsCmd)
}
