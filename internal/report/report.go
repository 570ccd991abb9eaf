// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report writes a YAML summary of a CLI run: one entry per source
// with its outcome, artifacts, size estimate, and per-page failures.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/pdfconv/pkg/types"
)

// Report is the document written by Write.
type Report struct {
	GeneratedAt time.Time    `yaml:"generated_at"`
	Version     string       `yaml:"version"`
	Summary     Summary      `yaml:"summary"`
	Conversions []Conversion `yaml:"conversions"`
}

// Summary counts conversions by status.
type Summary struct {
	Converted int   `yaml:"converted"`
	Partial   int   `yaml:"partial"`
	Failed    int   `yaml:"failed"`
	Cancelled int   `yaml:"cancelled"`
	Bytes     int64 `yaml:"bytes"`
}

// Conversion describes one request.
type Conversion struct {
	Source      string                      `yaml:"source"`
	Kind        types.OutputKind            `yaml:"kind"`
	Status      types.ConversionStatus      `yaml:"status"`
	Phase       types.Phase                 `yaml:"phase"`
	FailedPhase types.Phase                 `yaml:"failed_phase,omitempty"`
	Quality     *types.QualityConfiguration `yaml:"quality,omitempty"`
	Artifacts   []string                    `yaml:"artifacts,omitempty"`
	Bytes       int64                       `yaml:"bytes"`
	Estimate    *types.SizeRange            `yaml:"estimate,omitempty"`
	Pages       []Page                      `yaml:"failed_pages,omitempty"`
	ErrorKind   string                      `yaml:"error_kind,omitempty"`
	Error       string                      `yaml:"error,omitempty"`
	Duration    string                      `yaml:"duration"`
}

// Page is a page that did not convert.
type Page struct {
	Page  int    `yaml:"page"`
	Error string `yaml:"error"`
}

// New returns an empty report.
func New(version string, now time.Time) *Report {
	return &Report{GeneratedAt: now.UTC(), Version: version}
}

// Add appends the outcome of one request.
func (r *Report) Add(opts types.ConversionOptions, res *types.ConversionResult) {
	c := Conversion{
		Source:      res.Source,
		Kind:        opts.Kind,
		Status:      res.Status,
		Phase:       res.Phase,
		FailedPhase: res.FailedPhase,
		Artifacts:   res.Artifacts,
		Bytes:       res.ActualBytes,
		Estimate:    res.Estimate,
		ErrorKind:   types.ErrorKind(res.Err),
		Duration:    res.Duration.Round(time.Millisecond).String(),
	}
	if opts.Kind == types.OutputImage {
		q := opts.Quality
		c.Quality = &q
	}
	if res.Err != nil {
		c.Error = res.Err.Error()
	}
	for _, p := range res.Pages {
		if !p.OK() {
			c.Pages = append(c.Pages, Page{Page: p.Page, Error: p.Err.Error()})
		}
	}
	r.Conversions = append(r.Conversions, c)

	switch res.Status {
	case types.ConversionDone:
		r.Summary.Converted++
	case types.ConversionPartial:
		r.Summary.Partial++
	case types.ConversionCancelled:
		r.Summary.Cancelled++
	default:
		r.Summary.Failed++
	}
	r.Summary.Bytes += res.ActualBytes
}

// Write marshals the report to path, creating parent directories.
func (r *Report) Write(path string) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating report directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing report %s: %w", path, err)
	}
	return nil
}
