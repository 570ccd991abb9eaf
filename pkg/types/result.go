// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// ConversionStatus is the overall outcome of a conversion request.
type ConversionStatus string

const (
	ConversionDone      ConversionStatus = "converted"
	ConversionPartial   ConversionStatus = "partial"
	ConversionFailed    ConversionStatus = "failed"
	ConversionCancelled ConversionStatus = "cancelled"
)

// Phase is a state of the conversion orchestrator.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseValidating Phase = "validating"
	PhaseSelecting  Phase = "strategy_selection"
	PhaseConverting Phase = "converting"
	PhaseWriting    Phase = "writing"
	PhaseCompleted  Phase = "completed"
	PhaseFailed     Phase = "failed"
	PhaseCancelled  Phase = "cancelled"
)

// SizeRange is an advisory output size estimate in bytes.
type SizeRange struct {
	Min      int64 `json:"min" yaml:"min"`
	Expected int64 `json:"expected" yaml:"expected"`
	Max      int64 `json:"max" yaml:"max"`
}

// Contains reports whether n falls inside the range.
func (r SizeRange) Contains(n int64) bool {
	return n >= r.Min && n <= r.Max
}

// PageOutcome records what happened to one page of a multi-page conversion.
type PageOutcome struct {
	// Page is 1-based.
	Page int

	// Artifact is the final path of the page image, empty on failure or for
	// text-like outputs.
	Artifact string

	// Width and Height are the rendered pixel dimensions (Image mode only).
	Width  int
	Height int

	// Err is non-nil when the page failed.
	Err error
}

// OK reports whether the page converted.
func (p PageOutcome) OK() bool { return p.Err == nil }

// ConversionResult is produced once per request and owned by the caller.
type ConversionResult struct {
	Source  string
	Kind    OutputKind
	Success bool
	Status  ConversionStatus

	// Phase is the terminal phase; FailedPhase is the phase that was active
	// when the request failed or was cancelled.
	Phase       Phase
	FailedPhase Phase

	// Artifacts lists written files in page order.
	Artifacts []string

	// Pages holds per-page outcomes, in page order, when the strategy works
	// page by page.
	Pages []PageOutcome

	Estimate    *SizeRange
	ActualBytes int64

	Err      error
	Duration time.Duration
}

// FailedPages returns the 1-based numbers of pages that did not convert.
func (r *ConversionResult) FailedPages() []int {
	var failed []int
	for _, p := range r.Pages {
		if !p.OK() {
			failed = append(failed, p.Page)
		}
	}
	return failed
}
