// Copyright Pritam Panda, 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pritampanda15/biomethod/internal/report"
)

var checkCmd = &cobra.Command{
	Use:   "check [paths...]",
	Short: "Run the reproducibility checklist over a project",
	Long: `Check runs the analysis over the given paths and scores the project
against a reproducibility checklist: pinned versions, recorded seeds,
portable paths, declared environments, containerization, and workflow
management. The exit code is nonzero when the score falls below
--min-score.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	result, _, err := runPipeline(cmd, args)
	if err != nil {
		return err
	}

	rep := report.Check(result)

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rep); err != nil {
			return err
		}
	} else {
		rep.Render(os.Stdout)
	}

	minScore, _ := cmd.Flags().GetFloat64("min-score")
	if rep.Score < minScore {
		return fmt.Errorf("reproducibility score %.0f%% below threshold %.0f%%", rep.Score, minScore)
	}
	return nil
}

func init() {
	addPipelineFlags(checkCmd)
	checkCmd.Flags().Bool("json", false, "output the assessment as JSON")
	checkCmd.Flags().Float64("min-score", 0, "fail when the score is below this percentage")

	rootCmd.AddCommand(checkCmd)
}
