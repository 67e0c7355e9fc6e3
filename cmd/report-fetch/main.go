// Copyright Veracode, Inc., 2026. All rights reserved.

// Package main is the entry point for the report-fetch CLI, which pulls
// findings from the Veracode Analytics Reporting API across a date
// range and exports them as JSONL, JSON, CSV, and XLSX.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the report-fetch CLI.
var rootCmd = &cobra.Command{
	Use:   "report-fetch",
	Short: "Fetch Veracode analytics findings across a date range",
	Long: `report-fetch submits analytics report requests to the Veracode Reporting
API, one per 180-day window of the requested range, polls each report to
completion, drains its pages with resilient retries, optionally verifies
that nothing was dropped, and writes the combined findings as JSONL,
JSON array, CSV, and a multi-sheet XLSX workbook.

Credentials come from the VERACODE_API_KEY_ID and VERACODE_API_KEY_SECRET
environment variables.`,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./report-fetch.yaml or ~/.config/report-fetch/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("report-fetch")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "report-fetch"))
		}
	}

	viper.SetEnvPrefix("REPORT_FETCH")
	viper.AutomaticEnv()

	viper.SetDefault("api_base_url", "https://api.veracode.com")

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
