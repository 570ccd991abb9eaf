// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/pdiddy/pdfconv/internal/pdf"
	"github.com/pdiddy/pdfconv/internal/quality"
	"github.com/pdiddy/pdfconv/internal/validate"
	"github.com/pdiddy/pdfconv/pkg/types"
)

var estimateCmd = &cobra.Command{
	Use:   "estimate <pages|pdf>",
	Short: "Estimate the size of image output",
	Long: `Estimate prints the approximate total size of rendering a document to
images with the given quality settings. The argument is either a page count
or a PDF whose pages are counted. Estimates are advisory; actual sizes depend
on page content.`,
	Args: cobra.ExactArgs(1),
	RunE: runEstimate,
}

func init() {
	estimateCmd.Flags().String("preset", "", "quality preset: low, medium, high, ultra, or custom (default from config)")
	estimateCmd.Flags().Int("dpi", 0, "custom image resolution (36-600)")
	estimateCmd.Flags().String("encoding", "", "custom image encoding: jpeg or png")
	estimateCmd.Flags().Int("compression", 0, "custom JPEG quality (1-100)")
	estimateCmd.Flags().String("password", "", "password for an encrypted PDF")
	estimateCmd.Flags().Bool("all", false, "show the estimate for every preset")

	rootCmd.AddCommand(estimateCmd)
}

func runEstimate(cmd *cobra.Command, args []string) error {
	pages, err := pageCount(cmd, args[0])
	if err != nil {
		return err
	}

	all, _ := cmd.Flags().GetBool("all")
	if all {
		for _, p := range types.Presets {
			q, err := quality.Resolve(p)
			if err != nil {
				return err
			}
			printEstimate(pages, q)
		}
		return nil
	}

	q, err := qualityFromFlags(cmd, cfg.Defaults.Preset)
	if err != nil {
		return err
	}
	printEstimate(pages, q)
	return nil
}

// pageCount interprets arg as a page count, or validates it as a PDF and
// returns its page count.
func pageCount(cmd *cobra.Command, arg string) (int, error) {
	if n, err := strconv.Atoi(arg); err == nil {
		if n < 1 {
			return 0, &types.InvalidConfigurationError{Field: "pages", Reason: "must be at least 1"}
		}
		return n, nil
	}

	password, _ := cmd.Flags().GetString("password")
	scratch, err := os.MkdirTemp(cfg.Conversion.ScratchDir, "pdfconv-estimate-*")
	if err != nil {
		return 0, fmt.Errorf("creating scratch directory: %w", err)
	}
	defer os.RemoveAll(scratch)

	cpu := pdf.NewPDFCPU()
	v := validate.New(pdf.NewFitzEngine(), cpu, cpu, cfg.Conversion.StrictValidation)
	doc, err := v.Validate(arg, validate.Options{Password: password, ScratchDir: scratch})
	if err != nil {
		return 0, err
	}
	return doc.PageCount, nil
}

func printEstimate(pages int, q types.QualityConfiguration) {
	r := quality.Estimate(pages, q)
	fmt.Printf("%-28s %d pages: ~%s (%s - %s)\n", q.String(), pages,
		humanize.IBytes(uint64(r.Expected)), humanize.IBytes(uint64(r.Min)), humanize.IBytes(uint64(r.Max)))
}
