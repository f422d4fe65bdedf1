package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info <tool>",
	Short: "Show one registry record in full",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry(cmd)
		if err != nil {
			return err
		}
		rec, ok := reg.Lookup(args[0])
		if !ok {
			return fmt.Errorf("tool %q not in registry", args[0])
		}

		fmt.Printf("%s (%s)\n", rec.Name, rec.Category)
		if rec.Description != "" {
			fmt.Printf("  %s\n", rec.Description)
		}
		if len(rec.Aliases) > 0 {
			fmt.Printf("  aliases: %s\n", strings.Join(rec.Aliases, ", "))
		}
		if rec.MultiTool {
			fmt.Println("  multi-tool: invoked as toolkit + subcommand")
		}
		if len(rec.Wrappers.Python) > 0 {
			fmt.Printf("  python wrappers: %s\n", strings.Join(rec.Wrappers.Python, ", "))
		}
		if len(rec.Wrappers.R) > 0 {
			fmt.Printf("  r wrappers: %s\n", strings.Join(rec.Wrappers.R, ", "))
		}
		if len(rec.VersionArgs) > 0 {
			fmt.Printf("  version probe: %s\n", strings.Join(rec.VersionArgs, " "))
		}
		if rec.Citation != "" {
			fmt.Printf("\n%s\n", strings.TrimSpace(rec.Citation))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
