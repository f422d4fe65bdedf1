// Copyright Pritam Panda, 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/pritampanda15/biomethod/internal/report"
	"github.com/pritampanda15/biomethod/pkg/types"
)

var generateCmd = &cobra.Command{
	Use:   "generate [paths...]",
	Short: "Generate a methods section from analysis code",
	Long: `Generate runs the analysis over the given paths and renders the methods
section in the chosen journal style and format. With --citations a BibTeX
bibliography is written alongside; with --supplementary a per-tool
parameter table (CSV) is added.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGenerate,
}

func runGenerate(cmd *cobra.Command, args []string) error {
	result, _, err := runPipeline(cmd, args)
	if err != nil {
		return err
	}
	if len(result.Tools) == 0 {
		return fmt.Errorf("no recognized tools found: nothing to describe")
	}

	style, _ := cmd.Flags().GetString("style")
	format, _ := cmd.Flags().GetString("format")
	citations, _ := cmd.Flags().GetBool("citations")
	supplementary, _ := cmd.Flags().GetBool("supplementary")
	outDir, _ := cmd.Flags().GetString("output-dir")

	cfg := types.ReportConfig{
		Style:                types.ReportStyle(style),
		Format:               types.ReportFormat(format),
		IncludeCitations:     citations,
		IncludeSupplementary: supplementary,
	}
	gen := report.NewGenerator(cfg)
	doc := gen.Document(result)

	if outDir == "" {
		fmt.Print(doc)
		return nil
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	name := "methods.md"
	if cfg.Format == types.FormatLaTeX {
		name = "methods.tex"
	}
	path := filepath.Join(outDir, name)
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		return err
	}
	log.Info("wrote methods section", "path", path)

	if citations {
		if bib := report.Bibliography(result); bib != "" {
			path := filepath.Join(outDir, "references.bib")
			if err := os.WriteFile(path, []byte(bib+"\n"), 0o644); err != nil {
				return err
			}
			log.Info("wrote bibliography", "path", path)
		}
	}

	if supplementary {
		path := filepath.Join(outDir, "supplementary_tools.csv")
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := report.WriteSupplementary(f, result); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		log.Info("wrote supplementary table", "path", path)
	}

	return nil
}

func init() {
	addPipelineFlags(generateCmd)
	generateCmd.Flags().String("style", "generic", "journal style: generic, nature, or plos")
	generateCmd.Flags().String("format", "markdown", "output format: markdown or latex")
	generateCmd.Flags().Bool("citations", true, "include citation markers and a bibliography")
	generateCmd.Flags().Bool("supplementary", false, "write the per-tool parameter table (CSV)")
	generateCmd.Flags().String("output-dir", "", "write artifacts here instead of stdout")

	rootCmd.AddCommand(generateCmd)
}
