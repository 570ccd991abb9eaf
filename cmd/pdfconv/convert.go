// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/pdiddy/pdfconv/internal/convert"
	"github.com/pdiddy/pdfconv/internal/fetch"
	"github.com/pdiddy/pdfconv/internal/history"
	"github.com/pdiddy/pdfconv/internal/report"
	"github.com/pdiddy/pdfconv/internal/secrets"
	"github.com/pdiddy/pdfconv/pkg/types"
)

var convertCmd = &cobra.Command{
	Use:   "convert [pdfs...]",
	Short: "Convert PDF files to text, Word, HTML, Markdown, or images",
	Long: `Convert validates each PDF and converts it to the format named by --to.

Single-file formats (text, word, html, markdown) write to --out, or to the
default output directory as <name>.<ext>. Image output writes one file per
page into a directory named after the source, or into --out.

Inputs may be local paths or http(s) URLs; URLs are downloaded first.
With several inputs --out names a directory. Files are converted one at a
time; interrupting the command keeps the pages already rendered.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().String("to", "text", "output format: text, word, html, markdown, or image")
	convertCmd.Flags().StringP("out", "o", "", "output file, or directory for image output and batches")
	convertCmd.Flags().String("preset", "", "image quality preset: low, medium, high, ultra, or custom (default from config)")
	convertCmd.Flags().Int("dpi", 0, "custom image resolution (36-600)")
	convertCmd.Flags().String("encoding", "", "custom image encoding: jpeg or png")
	convertCmd.Flags().Int("compression", 0, "custom JPEG quality (1-100)")
	convertCmd.Flags().String("stem", "", "file name stem for page images (default: source name)")
	convertCmd.Flags().String("password", "", "password for encrypted PDFs")
	convertCmd.Flags().String("password-dir", ".passwords", "directory of password files named after the PDFs")
	convertCmd.Flags().Int("workers", 0, "parallel page renderers (default from config, 0 = auto)")
	convertCmd.Flags().String("report", "", "write a YAML report of the run to this path")
	convertCmd.Flags().Bool("no-history", false, "do not record this run in the history database")

	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	to, _ := cmd.Flags().GetString("to")
	kind, err := types.ParseOutputKind(to)
	if err != nil {
		return err
	}

	var q types.QualityConfiguration
	if kind == types.OutputImage {
		if q, err = qualityFromFlags(cmd, cfg.Defaults.Preset); err != nil {
			return err
		}
	}

	out, _ := cmd.Flags().GetString("out")
	stem, _ := cmd.Flags().GetString("stem")
	password, _ := cmd.Flags().GetString("password")
	passwordDir, _ := cmd.Flags().GetString("password-dir")
	reportPath, _ := cmd.Flags().GetString("report")
	noHistory, _ := cmd.Flags().GetBool("no-history")

	batch := len(args) > 1
	if batch && stem != "" {
		return &types.InvalidConfigurationError{Field: "image_stem", Reason: "--stem applies to a single input"}
	}
	if batch && out != "" && kind != types.OutputImage {
		if err := os.MkdirAll(out, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sources, cleanup, err := localSources(ctx, args)
	if err != nil {
		return err
	}
	defer cleanup()

	passwords, err := secrets.Load(passwordDir)
	if err != nil {
		return err
	}

	runCfg := cfg
	if cmd.Flags().Changed("workers") {
		runCfg.Conversion.Workers, _ = cmd.Flags().GetInt("workers")
	}
	orch, err := convert.NewFromConfig(runCfg, logger)
	if err != nil {
		return err
	}

	optsFor := func(source string) types.ConversionOptions {
		pw := password
		if pw == "" {
			pw = passwords.PasswordFor(source)
		}
		opts := types.ConversionOptions{
			Kind:        kind,
			Quality:     q,
			Destination: destinationFor(source, kind, out, cfg.Defaults.OutputDir, batch),
			ImageStem:   stem,
			Password:    pw,
		}
		return opts
	}

	if kind == types.OutputImage {
		logger.Info().Str("quality", q.String()).Msg("rendering pages")
	}
	result, used := runBatch(ctx, orch, sources, optsFor, os.Stdout)

	for _, res := range result.Results {
		if res.Estimate != nil {
			logger.Debug().
				Str("source", res.Source).
				Str("estimated", humanize.IBytes(uint64(res.Estimate.Expected))).
				Str("actual", humanize.IBytes(uint64(res.ActualBytes))).
				Msg("size estimate")
		}
	}

	if !noHistory && cfg.History.Enabled {
		recordHistory(result.Results, used)
	}
	if reportPath != "" {
		if err := writeReport(reportPath, result.Results, used); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Report written to %s\n", reportPath)
	}

	switch {
	case result.Cancelled > 0:
		return &exitError{code: exitCancelled, err: types.ErrCancelled}
	case result.Failed > 0:
		return &exitError{code: exitFailure, err: fmt.Errorf("%d of %d file(s) failed conversion", result.Failed, result.Total())}
	}
	return nil
}

// runBatch converts sources and also returns the options each attempted
// source was converted with, index-aligned with result.Results. Results
// carry the validated absolute path, so they cannot be matched to options
// by source name.
func runBatch(ctx context.Context, orch *convert.Orchestrator, sources []string, optsFor convert.OptionsFunc, w io.Writer) (convert.BatchResult, []types.ConversionOptions) {
	used := make([]types.ConversionOptions, 0, len(sources))
	result := orch.ConvertBatch(ctx, sources, func(source string) types.ConversionOptions {
		opts := optsFor(source)
		used = append(used, opts)
		return opts
	}, w)
	return result, used[:len(result.Results)]
}

func writeReport(path string, results []*types.ConversionResult, opts []types.ConversionOptions) error {
	rep := report.New(version, time.Now())
	for i, res := range results {
		rep.Add(opts[i], res)
	}
	return rep.Write(path)
}

// localSources downloads http(s) arguments into a temporary directory and
// returns the local paths in argument order. cleanup removes the downloads.
func localSources(ctx context.Context, args []string) (sources []string, cleanup func(), err error) {
	cleanup = func() {}
	var dir string
	var fetcher *fetch.Fetcher
	for _, arg := range args {
		if !fetch.IsRemote(arg) {
			sources = append(sources, arg)
			continue
		}
		if fetcher == nil {
			if dir, err = os.MkdirTemp(cfg.Conversion.ScratchDir, "pdfconv-fetch-*"); err != nil {
				return nil, cleanup, fmt.Errorf("creating download directory: %w", err)
			}
			cleanup = func() { os.RemoveAll(dir) }
			fetcher = fetch.New(nil, cfg.Fetch)
		}
		logger.Info().Str("url", arg).Msg("downloading")
		path, err := fetcher.Download(ctx, arg, dir)
		if err != nil {
			cleanup()
			return nil, func() {}, fmt.Errorf("fetching %s: %w", arg, err)
		}
		sources = append(sources, path)
	}
	return sources, cleanup, nil
}

// recordHistory stores each result. History problems are reported as
// warnings and never change the command's outcome.
func recordHistory(results []*types.ConversionResult, opts []types.ConversionOptions) {
	store, err := history.Open(cfg.History)
	if err != nil {
		logger.Warn().Err(err).Msg("history unavailable")
		return
	}
	defer store.Close()

	ctx := context.Background()
	for i, res := range results {
		started := time.Now().Add(-res.Duration)
		if _, err := store.Record(ctx, started, opts[i], res); err != nil {
			logger.Warn().Err(err).Str("source", res.Source).Msg("recording history")
		}
	}
}
