// Copyright Pritam Panda, 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pritampanda15/biomethod/internal/analyze"
	"github.com/pritampanda15/biomethod/internal/envinfo"
	verdetect "github.com/pritampanda15/biomethod/internal/version"
	"github.com/pritampanda15/biomethod/pkg/types"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [paths...]",
	Short: "Scan analysis code for bioinformatics tool invocations",
	Long: `Analyze discovers supported source files (Python, Jupyter, R, Nextflow,
Snakemake) under the given paths, extracts tool invocations, resolves them
against the tool registry, and merges everything into one result. Directory
arguments are scanned one level deep unless --recursive is set.

With --detect-versions the installed version of each unversioned tool is
probed by running it with its version flag. With -o the result is exported
to a file the inventory store can ingest.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnalyze,
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	result, root, err := runPipeline(cmd, args)
	if err != nil {
		return err
	}

	printSummary(result)

	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		return nil
	}
	format, _ := cmd.Flags().GetString("format")
	if err := writeExport(result.Export(root), output, format); err != nil {
		return err
	}
	log.Info("wrote export", "path", output)
	return nil
}

// runPipeline is the shared analysis front end for analyze, generate, and
// check: discovery, extraction, environment collection, and the optional
// version probes.
func runPipeline(cmd *cobra.Command, args []string) (*types.AnalysisResult, string, error) {
	reg, err := loadRegistry(cmd)
	if err != nil {
		return nil, "", err
	}

	recursive, _ := cmd.Flags().GetBool("recursive")
	workers, _ := cmd.Flags().GetInt("workers")
	timeout, _ := cmd.Flags().GetDuration("file-timeout")
	cfg := types.AnalysisConfig{
		Workers:     workers,
		FileTimeout: timeout,
		Recursive:   recursive,
	}

	ctx := context.Background()
	result, err := analyze.New(reg).Run(ctx, args, cfg, os.Stderr)
	if err != nil {
		return nil, "", err
	}

	// Environment manifests are collected from the first directory argument.
	root := args[0]
	if info, err := os.Stat(root); err == nil && info.IsDir() {
		env, diags := envinfo.Collect(root)
		result.Environment = env
		for _, d := range diags {
			log.Warn(d.Reason, "file", d.File)
		}
		// Manifest pins fill versions extraction could not see.
		for _, name := range result.ToolNames() {
			f := result.Tools[name]
			if f.Version == "" {
				f.Version = env.Packages[name]
			}
		}
	}

	if detect, _ := cmd.Flags().GetBool("detect-versions"); detect {
		probeTimeout, _ := cmd.Flags().GetDuration("probe-timeout")
		det := verdetect.New(types.VersionConfig{Timeout: probeTimeout})
		det.Annotate(ctx, result, os.Stderr)
	}

	return result, root, nil
}

func printSummary(result *types.AnalysisResult) {
	if len(result.Tools) == 0 && len(result.Unknown) == 0 {
		fmt.Println("No tool invocations found.")
		return
	}

	fmt.Printf("%-16s  %-12s  %-24s  %s\n", "Tool", "Version", "Category", "Mentions")
	for _, name := range result.ToolNames() {
		f := result.Tools[name]
		v := f.Version
		if v == "" {
			v = "-"
		}
		fmt.Printf("%-16s  %-12s  %-24s  %d\n", f.Name, v, string(f.Category()), f.Mentions)
	}
	for _, name := range result.UnknownNames() {
		f := result.Unknown[name]
		fmt.Printf("%-16s  %-12s  %-24s  %d\n", f.Name, "-", "unrecognized", f.Mentions)
	}
	if result.WorkflowType != "" {
		fmt.Printf("\nworkflow type: %s\n", result.WorkflowType)
	}
}

func writeExport(exp types.AnalysisExport, path, format string) error {
	var data []byte
	var err error
	switch format {
	case "yaml", "":
		data, err = yaml.Marshal(exp)
	case "json":
		data, err = json.MarshalIndent(exp, "", "  ")
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
	if err != nil {
		return fmt.Errorf("encoding export: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// addPipelineFlags attaches the shared analysis flags to a command.
func addPipelineFlags(cmd *cobra.Command) {
	cmd.Flags().BoolP("recursive", "r", false, "descend into subdirectories")
	cmd.Flags().Int("workers", 0, "concurrent file extractions (0 = number of CPUs)")
	cmd.Flags().Duration("file-timeout", 30*time.Second, "per-file extraction timeout")
	cmd.Flags().Bool("detect-versions", false, "probe installed tool versions")
	cmd.Flags().Duration("probe-timeout", 10*time.Second, "per-tool version probe timeout")
}

func init() {
	addPipelineFlags(analyzeCmd)
	analyzeCmd.Flags().StringP("output", "o", "", "write the analysis export to this file")
	analyzeCmd.Flags().String("format", "yaml", "export format: yaml or json")

	rootCmd.AddCommand(analyzeCmd)
}
