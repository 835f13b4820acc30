// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/sheetpress/internal/console"
	"github.com/pdiddy/sheetpress/internal/convert"
	"github.com/pdiddy/sheetpress/internal/history"
	"github.com/pdiddy/sheetpress/internal/render"
	"github.com/pdiddy/sheetpress/pkg/types"
)

var convertCmd = &cobra.Command{
	Use:   "convert [files...]",
	Short: "Convert text cheatsheets to PDF",
	Long: `Convert renders each input as a PDF next to it (Cheatsheet_Go.txt becomes
Cheatsheet_Go.pdf). Without file arguments it discovers <dir>/<prefix>*<ext>.

Files are processed one at a time in sorted order; a failing file is reported
and the batch continues. The exit status is zero even when files fail unless
--fail-on-error is set.`,
	Args: cobra.ArbitraryArgs,
	RunE: runConvert,
}

func addConvertFlags(cmd *cobra.Command) {
	defaults := types.DefaultConversionConfig()
	cmd.Flags().String("dir", defaults.Dir, "directory searched for input files")
	cmd.Flags().String("prefix", defaults.Prefix, "filename prefix of input files (removed from titles)")
	cmd.Flags().String("ext", defaults.Ext, "extension of input files")
	cmd.Flags().StringP("output", "o", "", "output path (requires exactly one input file)")
	cmd.Flags().String("backend", string(defaults.Backend), "PDF backend: fpdf or chrome")
	cmd.Flags().Bool("strict", false, "fail a file when any block cannot be rendered")
	cmd.Flags().Bool("incremental", false, "skip inputs unchanged since their last successful conversion")
	cmd.Flags().String("history", "", "SQLite history database (default "+history.DefaultPath+" with --incremental)")
	cmd.Flags().String("report", "", "write the batch records to a .yaml or .json file")
	cmd.Flags().Bool("fail-on-error", false, "exit non-zero when any file fails")
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg, err := conversionConfig(cmd)
	if err != nil {
		return err
	}
	output, _ := cmd.Flags().GetString("output")
	if output != "" && len(args) != 1 {
		return fmt.Errorf("--output requires exactly one input file, got %d", len(args))
	}
	reportPath, _ := cmd.Flags().GetString("report")
	failOnError := boolSetting(cmd, "fail-on-error", "conversion.fail_on_error", false)
	cmd.SilenceUsage = true

	ctx := cmd.Context()
	factory, err := render.NewFactory(ctx, cfg.Backend, cfg.Layout)
	if err != nil {
		return err
	}
	defer factory.Close()

	con := console.New(cmd.OutOrStdout(), cmd.ErrOrStderr())

	var opts []convert.Option
	if cfg.HistoryPath != "" {
		store, err := history.Open(cfg.HistoryPath)
		if err != nil {
			return err
		}
		defer store.Close()
		opts = append(opts, convert.WithHistory(store))
	}
	conv := convert.New(cfg, factory, con, opts...)

	var result convert.BatchResult
	if output != "" {
		result = conv.RunFile(ctx, args[0], output)
	} else {
		var src convert.InputSource = convert.DirSourceFrom(cfg)
		if len(args) > 0 {
			src = convert.ListSource(args)
		}
		result = conv.Run(ctx, src)
	}

	if reportPath != "" {
		if err := history.WriteFile(reportPath, result.Records); err != nil {
			return err
		}
	}
	if failOnError && result.HasFailures() {
		return fmt.Errorf("%d file(s) failed to convert", result.Failed)
	}
	return nil
}

// conversionConfig layers flags over the config file over the defaults.
func conversionConfig(cmd *cobra.Command) (types.ConversionConfig, error) {
	cfg := types.DefaultConversionConfig()
	cfg.Dir = stringSetting(cmd, "dir", "conversion.dir", cfg.Dir)
	cfg.Prefix = stringSetting(cmd, "prefix", "conversion.prefix", cfg.Prefix)
	cfg.Ext = stringSetting(cmd, "ext", "conversion.ext", cfg.Ext)
	cfg.DocExt = stringSetting(cmd, "", "conversion.doc_ext", cfg.DocExt)
	cfg.Backend = types.Backend(stringSetting(cmd, "backend", "conversion.backend", string(cfg.Backend)))
	cfg.Strict = boolSetting(cmd, "strict", "conversion.strict", cfg.Strict)
	cfg.Incremental = boolSetting(cmd, "incremental", "conversion.incremental", cfg.Incremental)
	cfg.HistoryPath = stringSetting(cmd, "history", "conversion.history_path", cfg.HistoryPath)
	if cfg.Incremental && cfg.HistoryPath == "" {
		cfg.HistoryPath = history.DefaultPath
	}

	if viper.IsSet("conversion.layout") {
		err := viper.UnmarshalKey("conversion.layout", &cfg.Layout, func(dc *mapstructure.DecoderConfig) {
			dc.TagName = "yaml"
		})
		if err != nil {
			return cfg, fmt.Errorf("reading conversion.layout: %w", err)
		}
	}
	return cfg, nil
}

// stringSetting returns the flag value when it was set on the command line,
// else the config value for key, else def.
func stringSetting(cmd *cobra.Command, flag, key, def string) string {
	if flag != "" {
		if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
			return f.Value.String()
		}
	}
	if viper.IsSet(key) {
		return viper.GetString(key)
	}
	return def
}

func boolSetting(cmd *cobra.Command, flag, key string, def bool) bool {
	if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
		v, _ := cmd.Flags().GetBool(flag)
		return v
	}
	if viper.IsSet(key) {
		return viper.GetBool(key)
	}
	return def
}

func init() {
	addConvertFlags(convertCmd)
	rootCmd.AddCommand(convertCmd)
}
