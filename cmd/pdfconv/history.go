// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/pdiddy/pdfconv/internal/history"
	"github.com/pdiddy/pdfconv/pkg/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past conversions",
	Long: `History lists conversions recorded by earlier convert runs, newest first.
Use --stats for totals by outcome and --prune to drop old entries.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().Int("limit", 20, "maximum number of entries")
	historyCmd.Flags().String("source", "", "only entries whose source path contains this text")
	historyCmd.Flags().String("status", "", "only entries with this status: converted, partial, failed, or cancelled")
	historyCmd.Flags().Bool("stats", false, "print totals instead of entries")
	historyCmd.Flags().Duration("prune", 0, "delete entries older than this age (e.g. 720h)")
	historyCmd.Flags().Bool("json", false, "output entries as JSON")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	store, err := history.Open(cfg.History)
	if err != nil {
		return err
	}
	defer store.Close()
	ctx := cmd.Context()

	if age, _ := cmd.Flags().GetDuration("prune"); age > 0 {
		n, err := store.Prune(ctx, time.Now().Add(-age))
		if err != nil {
			return err
		}
		fmt.Printf("Pruned %d entries older than %s\n", n, age)
		return nil
	}

	if stats, _ := cmd.Flags().GetBool("stats"); stats {
		sum, err := store.Stats(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Total conversions: %d (%s written)\n", sum.Total, humanize.IBytes(uint64(sum.Bytes)))
		for _, s := range []types.ConversionStatus{types.ConversionDone, types.ConversionPartial, types.ConversionFailed, types.ConversionCancelled} {
			fmt.Printf("  %-10s %d\n", s, sum.Status[s])
		}
		return nil
	}

	limit, _ := cmd.Flags().GetInt("limit")
	source, _ := cmd.Flags().GetString("source")
	status, _ := cmd.Flags().GetString("status")
	entries, err := store.Recent(ctx, history.QueryOptions{
		Source: source,
		Status: types.ConversionStatus(status),
		Limit:  limit,
	})
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		fmt.Println("No conversions recorded.")
		return nil
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tWHEN\tSOURCE\tFORMAT\tSTATUS\tFILES\tSIZE\tERROR")
	for _, e := range entries {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			e.ID, humanize.Time(e.StartedAt), filepath.Base(e.Source), e.Kind, e.Status,
			e.Artifacts, humanize.IBytes(uint64(e.Bytes)), e.ErrorKind)
	}
	return tw.Flush()
}

// formatBytes renders an approximate byte count.
func formatBytes(n float64) string {
	return humanize.IBytes(uint64(math.Round(n)))
}
