// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert implements the conversion pipeline: it validates a PDF,
// selects the strategy for the requested output kind, runs it in a
// per-request scratch directory, and moves the artifacts to their
// destination. Each request walks the phase machine
// Idle → Validating → StrategySelection → Converting → Writing → Completed,
// ending in Failed or Cancelled when it cannot finish.
package convert

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/felixgeelhaar/statekit"
	"github.com/rs/zerolog"

	"github.com/pdiddy/pdfconv/internal/container"
	"github.com/pdiddy/pdfconv/internal/docconv"
	"github.com/pdiddy/pdfconv/internal/pdf"
	"github.com/pdiddy/pdfconv/internal/quality"
	"github.com/pdiddy/pdfconv/internal/validate"
	"github.com/pdiddy/pdfconv/pkg/types"
)

// DocumentValidator is the part of validate.Validator the orchestrator uses.
type DocumentValidator interface {
	Validate(path string, opts validate.Options) (*types.PDFDocument, error)
}

// Orchestrator runs conversion requests. It holds no per-request state and
// may be reused, but requests on the same document should be serialized.
type Orchestrator struct {
	cfg       types.ConversionConfig
	validator DocumentValidator
	selector  *Selector
	machine   *statekit.MachineConfig[*phaseLog]
	log       zerolog.Logger
}

// New returns an Orchestrator.
func New(cfg types.ConversionConfig, validator DocumentValidator, selector *Selector, log zerolog.Logger) (*Orchestrator, error) {
	machine, err := newPhaseMachine()
	if err != nil {
		return nil, fmt.Errorf("building phase machine: %w", err)
	}
	return &Orchestrator{
		cfg:       cfg,
		validator: validator,
		selector:  selector,
		machine:   machine,
		log:       log,
	}, nil
}

// NewFromConfig wires the production collaborators: go-fitz for rendering
// and text, pdfcpu for structural checks and decryption, and pandoc
// (detected lazily) for document formats.
func NewFromConfig(cfg types.Config, log zerolog.Logger) (*Orchestrator, error) {
	engine := pdf.NewFitzEngine()
	cpu := pdf.NewPDFCPU()
	validator := validate.New(engine, cpu, cpu, cfg.Conversion.StrictValidation)

	converter := OnceConverter(func(ctx context.Context) (docconv.Converter, error) {
		return docconv.Detect(ctx, cfg.Converter, container.OSExecutor{})
	})
	selector := NewSelector(engine, converter, cfg.Conversion)
	return New(cfg.Conversion, validator, selector, log)
}

// Convert converts the PDF at source according to opts. The result is never
// nil; its Err is the same error Convert returns. On failure no artifacts
// remain at the destination. On cancellation the artifacts of pages that
// completed are kept and listed.
func (o *Orchestrator) Convert(ctx context.Context, source string, opts types.ConversionOptions) (*types.ConversionResult, error) {
	start := time.Now()
	if o.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.cfg.RequestTimeout)
		defer cancel()
	}

	log := o.log.With().Str("source", source).Str("kind", string(opts.Kind)).Logger()
	r := &request{
		o:      o,
		ctx:    ctx,
		log:    log,
		phases: startPhases(o.machine, log),
		res:    &types.ConversionResult{Source: source, Kind: opts.Kind},
	}
	defer r.phases.stop()

	r.run(source, opts)

	r.res.Phase = r.phases.current()
	r.res.Duration = time.Since(start)
	r.summarize()
	return r.res, r.res.Err
}

// request is the state of one Convert call.
type request struct {
	o      *Orchestrator
	ctx    context.Context
	log    zerolog.Logger
	phases *phases
	res    *types.ConversionResult
}

func (r *request) run(source string, opts types.ConversionOptions) {
	scratch, err := os.MkdirTemp(r.o.cfg.ScratchDir, "pdfconv-*")
	if err != nil {
		r.fail(&types.WriteError{Path: r.o.cfg.ScratchDir, Err: fmt.Errorf("creating scratch directory: %w", err)})
		return
	}
	defer removeAll(scratch, r.log)

	// Validating
	r.phases.send(evValidate)
	if r.cancelled() {
		return
	}
	doc, err := r.o.validator.Validate(source, validate.Options{Password: opts.Password, ScratchDir: scratch})
	if err != nil {
		r.fail(err)
		return
	}
	r.res.Source = doc.Path
	r.log.Debug().Int("pages", doc.PageCount).Bool("encrypted", doc.Encrypted).Msg("document validated")

	// StrategySelection
	r.phases.send(evSelect)
	if r.cancelled() {
		return
	}
	strategy, err := r.o.selector.Select(r.ctx, opts.Kind, opts.Quality)
	if err != nil {
		if !r.cancelled() {
			r.fail(err)
		}
		return
	}
	dest, stem, err := planDestination(doc, opts)
	if err != nil {
		r.fail(err)
		return
	}
	if opts.Kind == types.OutputImage {
		est := quality.Estimate(doc.PageCount, opts.Quality)
		r.res.Estimate = &est
	}
	r.log.Debug().Str("strategy", strategy.Name()).Str("destination", dest).Msg("strategy selected")

	// Converting
	r.phases.send(evConvert)
	if r.cancelled() {
		return
	}
	out, err := strategy.run(r.ctx, &job{doc: doc, scratch: scratch, dest: dest, stem: stem, log: r.log})
	if out != nil {
		r.res.Pages = out.pages
	}
	if err != nil {
		if errors.Is(err, types.ErrCancelled) && out != nil && r.timedOut() == nil {
			r.keepPartial(out)
		}
		if !r.cancelled() {
			r.fail(err)
		}
		return
	}

	// Writing
	r.phases.send(evWrite)
	paths, total, err := writeArtifacts(out.artifacts)
	if err != nil {
		r.fail(err)
		return
	}
	r.res.Artifacts = paths
	r.res.ActualBytes = total
	r.res.Success = true
	r.res.Status = types.ConversionDone
	if len(r.res.FailedPages()) > 0 {
		r.res.Status = types.ConversionPartial
	}
	r.phases.send(evComplete)
}

// cancelled moves the request to Cancelled, or to Failed with a
// TimeoutError when the request deadline passed, and reports whether it
// did either.
func (r *request) cancelled() bool {
	if r.ctx.Err() == nil {
		return false
	}
	if err := r.timedOut(); err != nil {
		r.fail(err)
		return true
	}
	r.res.FailedPhase = r.phases.current()
	r.res.Status = types.ConversionCancelled
	r.res.Err = types.ErrCancelled
	r.phases.send(evCancel)
	return true
}

func (r *request) timedOut() error {
	if !errors.Is(r.ctx.Err(), context.DeadlineExceeded) {
		return nil
	}
	return &types.TimeoutError{Operation: "conversion request", After: r.o.cfg.RequestTimeout}
}

// keepPartial writes the artifacts of pages that completed before the
// request was cancelled.
func (r *request) keepPartial(out *output) {
	paths, total, err := writeArtifacts(out.artifacts)
	if err != nil {
		r.log.Warn().Err(err).Msg("writing partial artifacts")
		return
	}
	r.res.Artifacts = paths
	r.res.ActualBytes = total
}

func (r *request) fail(err error) {
	r.res.FailedPhase = r.phases.current()
	r.res.Success = false
	r.res.Status = types.ConversionFailed
	r.res.Err = err
	r.phases.send(evFail)
}

func (r *request) summarize() {
	res := r.res
	ev := r.log.Info()
	if res.Err != nil && res.Status != types.ConversionCancelled {
		ev = r.log.Error().Err(res.Err).Str("failed_phase", string(res.FailedPhase))
	}
	ev = ev.Str("status", string(res.Status)).
		Int("artifacts", len(res.Artifacts)).
		Int64("bytes", res.ActualBytes).
		Dur("duration", res.Duration)
	if failed := res.FailedPages(); len(failed) > 0 {
		ev = ev.Ints("failed_pages", failed)
	}
	ev.Msg("conversion finished")
}
