// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pdfconv/internal/quality"
	"github.com/pdiddy/pdfconv/pkg/types"
)

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List quality presets and output formats",
	RunE: func(cmd *cobra.Command, args []string) error {
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "PRESET\tDPI\tENCODING\tQUALITY\tPER PAGE")
		for _, p := range types.Presets {
			q, err := quality.Resolve(p)
			if err != nil {
				return err
			}
			comp := "-"
			if q.Encoding == types.EncodingJPEG {
				comp = fmt.Sprintf("%d", q.Compression)
			}
			fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t~%s\n", p, q.DPI, q.Encoding, comp,
				formatBytes(quality.PerPageBytes(q)))
		}
		if err := tw.Flush(); err != nil {
			return err
		}

		fmt.Println()
		tw = tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "FORMAT\tOUTPUT\tCONVERTER")
		for _, k := range types.OutputKinds {
			ext, via := k.Extension(), "built in"
			if k == types.OutputImage {
				ext = "one .jpg/.png per page"
			}
			if k.Delegated() {
				via = "pandoc"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\n", k, ext, via)
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(presetsCmd)
}
