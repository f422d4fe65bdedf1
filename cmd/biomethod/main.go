// Copyright Pritam Panda, 2026. All rights reserved.

// Package main is the entry point for the biomethod CLI. Each pipeline
// stage is a subcommand: analyze scans a project for tool invocations,
// generate renders methods text, check runs the reproducibility
// checklist, and store manages the cross-project inventory.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pritampanda15/biomethod/internal/registry"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the biomethod CLI.
var rootCmd = &cobra.Command{
	Use:   "biomethod",
	Short: "Extract bioinformatics tool usage from analysis code",
	Long: `biomethod scans analysis code (Python scripts, Jupyter notebooks, R
scripts, Nextflow pipelines, Snakemake workflows) for bioinformatics tool
invocations and turns them into publication artifacts: a methods-section
draft with citations, a supplementary parameter table, and a
reproducibility assessment.

Each stage is a subcommand: analyze, generate, check, tools, info, and
store for the cross-project inventory.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			log.SetLevel(log.DebugLevel)
		}
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./biomethod.yaml or ~/.config/biomethod/config.yaml)")
	rootCmd.PersistentFlags().String("registry", "", "external tool database file (default: embedded database)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("biomethod")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "biomethod"))
		}
	}

	viper.SetEnvPrefix("BIOMETHOD")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		log.Debug("using config file", "path", viper.ConfigFileUsed())
	}
}

// loadRegistry opens the tool database named by --registry, the config
// file, or the embedded default, in that order.
func loadRegistry(cmd *cobra.Command) (*registry.Registry, error) {
	path, _ := cmd.Flags().GetString("registry")
	if path == "" {
		path = viper.GetString("registry.path")
	}
	reg, err := registry.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading tool registry: %w", err)
	}
	log.Debug("registry loaded", "tools", reg.Len())
	return reg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
