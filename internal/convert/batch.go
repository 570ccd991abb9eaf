// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"github.com/pdiddy/pdfconv/pkg/types"
)

// BatchResult holds the outcome of a batch conversion run.
type BatchResult struct {
	Converted int
	Partial   int
	Failed    int
	Cancelled int

	// Results holds one result per attempted source, in input order.
	Results []*types.ConversionResult
}

// Total returns the number of sources attempted.
func (r BatchResult) Total() int {
	return r.Converted + r.Partial + r.Failed + r.Cancelled
}

// HasFailures reports whether any source failed or was cancelled.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0 || r.Cancelled > 0
}

// OptionsFunc builds the options for one source of a batch.
type OptionsFunc func(source string) types.ConversionOptions

// ConvertBatch converts sources one at a time, printing per-file status to
// w and returning a summary. A cancelled request stops the batch.
func (o *Orchestrator) ConvertBatch(ctx context.Context, sources []string, opts OptionsFunc, w io.Writer) BatchResult {
	var result BatchResult
	for _, src := range sources {
		res, err := o.Convert(ctx, src, opts(src))
		result.Results = append(result.Results, res)
		name := filepath.Base(src)

		switch res.Status {
		case types.ConversionDone:
			result.Converted++
			fmt.Fprintf(w, "converted: %s (%d artifacts, %s)\n", name, len(res.Artifacts), humanize.IBytes(uint64(res.ActualBytes)))
		case types.ConversionPartial:
			result.Partial++
			fmt.Fprintf(w, "partial:   %s (pages %v failed)\n", name, res.FailedPages())
		case types.ConversionCancelled:
			result.Cancelled++
			fmt.Fprintf(w, "cancelled: %s (%d artifacts kept)\n", name, len(res.Artifacts))
		default:
			result.Failed++
			fmt.Fprintf(w, "failed:    %s (%v)\n", name, err)
		}
		if res.Status == types.ConversionCancelled {
			break
		}
	}
	fmt.Fprintf(w, "\nBatch summary: %d converted, %d partial, %d failed, %d cancelled (total: %d)\n",
		result.Converted, result.Partial, result.Failed, result.Cancelled, result.Total())
	return result
}
