// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/sheetpress/internal/history"
	"github.com/pdiddy/sheetpress/pkg/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect the conversion history",
	Long: `History reads the SQLite database written by convert --history or
convert --incremental. Use subcommands to list recent conversions or export
the full log.`,
}

// --- list subcommand ---

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent conversions, newest first",
	RunE:  runHistoryList,
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	store, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	opts := historyQueryFromFlags(cmd)
	records, err := store.List(cmd.Context(), opts)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatHistoryOutput(cmd.OutOrStdout(), records, jsonOutput)
}

func formatHistoryOutput(w io.Writer, records []types.ConversionRecord, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	if len(records) == 0 {
		fmt.Fprintln(w, "No conversions recorded.")
		return nil
	}

	fmt.Fprintf(w, "%-20s  %-9s  %-40s  %6s  %s\n", "Converted", "Status", "Input", "Blocks", "Detail")
	fmt.Fprintln(w, strings.Repeat("-", 100))

	for _, r := range records {
		input := filepath.Base(r.InputPath)
		if len(input) > 40 {
			input = input[:37] + "..."
		}
		detail := r.OutputPath
		switch {
		case r.Error != "":
			detail = r.Error
		case r.Dropped > 0:
			detail = fmt.Sprintf("%s (%d dropped)", r.OutputPath, r.Dropped)
		}
		fmt.Fprintf(w, "%-20s  %-9s  %-40s  %6d  %s\n",
			r.ConvertedAt.Local().Format("2006-01-02 15:04:05"), r.Status, input, r.Blocks, detail)
	}

	fmt.Fprintf(w, "\n%d conversions\n", len(records))
	return nil
}

// --- export subcommand ---

var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the conversion history as YAML or JSON",
	Long: `Export writes every recorded conversion (or those matching --status and
--input) to stdout, or to --out. The format defaults to YAML.`,
	RunE: runHistoryExport,
}

func runHistoryExport(cmd *cobra.Command, args []string) error {
	formatName, _ := cmd.Flags().GetString("format")
	format, err := history.ParseFormat(formatName)
	if err != nil {
		return err
	}

	store, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	opts := historyQueryFromFlags(cmd)

	outPath, _ := cmd.Flags().GetString("out")
	if outPath == "" {
		return store.Export(cmd.Context(), cmd.OutOrStdout(), format, opts)
	}

	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", outPath, err)
	}
	if err := store.Export(cmd.Context(), f, format, opts); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", outPath)
	return nil
}

// --- shared helpers ---

func openHistory(cmd *cobra.Command) (*history.Store, error) {
	path := stringSetting(cmd, "history", "conversion.history_path", history.DefaultPath)
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("no history at %s: run convert with --history or --incremental first", path)
	}
	return history.Open(path)
}

func historyQueryFromFlags(cmd *cobra.Command) history.QueryOptions {
	status, _ := cmd.Flags().GetString("status")
	input, _ := cmd.Flags().GetString("input")
	limit, _ := cmd.Flags().GetInt("limit")

	opts := history.QueryOptions{
		Status: types.ConversionStatus(status),
		Limit:  limit,
	}
	if input != "" {
		if abs, err := filepath.Abs(input); err == nil {
			input = abs
		}
		opts.Input = input
	}
	return opts
}

func init() {
	// Shared flags on the parent command, inherited by subcommands.
	historyCmd.PersistentFlags().String("history", history.DefaultPath, "SQLite history database")
	historyCmd.PersistentFlags().String("status", "", "filter by status: converted, skipped, failed")
	historyCmd.PersistentFlags().String("input", "", "filter by input file")

	historyListCmd.Flags().Int("limit", 20, "maximum number of conversions to list")
	historyListCmd.Flags().Bool("json", false, "output records as JSON")

	historyExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	historyExportCmd.Flags().String("out", "", "write to this file instead of stdout")
	historyExportCmd.Flags().Int("limit", 0, "maximum records to export (0 = all)")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyExportCmd)

	rootCmd.AddCommand(historyCmd)
}
