// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the sheetpress CLI. Run without a
// subcommand it converts every ./Cheatsheet_*.txt into a PDF.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the sheetpress CLI.
var rootCmd = &cobra.Command{
	Use:   "sheetpress [files...]",
	Short: "Convert plain-text cheatsheets into paginated PDFs",
	Long: `sheetpress converts plain-text cheatsheets into PDF documents. Lines are
grouped into blocks separated by blank lines; each block is rendered as
monospaced preformatted text under a title taken from the filename.

Run with no arguments in a directory to convert every Cheatsheet_*.txt
file it contains. The root command accepts the same flags as convert.`,
	Args: cobra.ArbitraryArgs,
	RunE: runConvert,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./sheetpress.yaml or ~/.config/sheetpress/sheetpress.yaml)")
	addConvertFlags(rootCmd)
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("sheetpress")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "sheetpress"))
		}
	}

	viper.SetEnvPrefix("SHEETPRESS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
