// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/pdiddy/pdfconv/internal/docconv"
	"github.com/pdiddy/pdfconv/internal/pdf"
	"github.com/pdiddy/pdfconv/pkg/types"
)

// Strategy is a conversion routine bound to its validated inputs. The set
// of strategies is closed: Select is the only constructor.
type Strategy interface {
	// Kind is the output kind the strategy produces.
	Kind() types.OutputKind

	// Name describes the strategy in logs and reports.
	Name() string

	// run converts j.doc into the request's scratch directory.
	run(ctx context.Context, j *job) (*output, error)
}

// ConverterFunc returns the external document converter, or an error when
// none is usable. It is called only for delegated kinds.
type ConverterFunc func(ctx context.Context) (docconv.Converter, error)

// OnceConverter wraps fn so a detection result is reused by later calls.
// A failure caused by the caller's context ending, or by detection timing
// out, is not kept and the next call detects again.
func OnceConverter(fn ConverterFunc) ConverterFunc {
	var (
		mu   sync.Mutex
		done bool
		conv docconv.Converter
		err  error
	)
	return func(ctx context.Context) (docconv.Converter, error) {
		mu.Lock()
		defer mu.Unlock()
		if done {
			return conv, err
		}
		c, e := fn(ctx)
		var timeout *types.TimeoutError
		if e != nil && (ctx.Err() != nil || errors.As(e, &timeout)) {
			return c, e
		}
		conv, err, done = c, e, true
		return conv, err
	}
}

// Selector routes an output kind to its strategy. It performs no conversion.
type Selector struct {
	engine          pdf.Engine
	converter       ConverterFunc
	workers         int
	delegateTimeout time.Duration
	perPageTimeout  time.Duration
}

// NewSelector returns a Selector. converter may be nil, in which case the
// Word, HTML, and Markdown kinds report a missing dependency.
func NewSelector(engine pdf.Engine, converter ConverterFunc, cfg types.ConversionConfig) *Selector {
	return &Selector{
		engine:          engine,
		converter:       converter,
		workers:         cfg.Workers,
		delegateTimeout: cfg.DelegateTimeout,
		perPageTimeout:  cfg.PerPageTimeout,
	}
}

// Select returns the strategy for kind. Image strategies are bound to q,
// which must be valid.
func (s *Selector) Select(ctx context.Context, kind types.OutputKind, q types.QualityConfiguration) (Strategy, error) {
	switch kind {
	case types.OutputText:
		return &textStrategy{engine: s.engine}, nil

	case types.OutputImage:
		if err := q.Validate(); err != nil {
			return nil, err
		}
		workers, err := s.workerCount()
		if err != nil {
			return nil, err
		}
		return &imageStrategy{engine: s.engine, quality: q, workers: workers}, nil

	case types.OutputWord, types.OutputHTML, types.OutputMarkdown:
		conv, err := s.documentConverter(ctx)
		if err != nil {
			return nil, err
		}
		return &documentStrategy{
			engine:    s.engine,
			kind:      kind,
			converter: conv,
			base:      orDefault(s.delegateTimeout, types.DefaultDelegateTimeout),
			perPage:   orDefault(s.perPageTimeout, types.DefaultPerPageTimeout),
		}, nil
	}
	return nil, &types.UnsupportedFormatError{Kind: string(kind)}
}

func (s *Selector) documentConverter(ctx context.Context) (docconv.Converter, error) {
	if s.converter == nil {
		return nil, &types.MissingDependencyError{Tool: docconv.Tool, Detail: "no document converter configured"}
	}
	conv, err := s.converter(ctx)
	if err != nil {
		var (
			missing *types.MissingDependencyError
			invCfg  *types.InvalidConfigurationError
		)
		if errors.As(err, &missing) || errors.As(err, &invCfg) {
			return nil, err
		}
		return nil, &types.MissingDependencyError{Tool: docconv.Tool, Err: err}
	}
	if conv == nil {
		return nil, &types.MissingDependencyError{Tool: docconv.Tool, Detail: "no document converter configured"}
	}
	return conv, nil
}

// workerCount resolves the configured pool size; 0 means min(NumCPU, 8).
func (s *Selector) workerCount() (int, error) {
	switch {
	case s.workers < 0:
		return 0, &types.InvalidConfigurationError{
			Field:  "conversion.workers",
			Reason: fmt.Sprintf("%d is negative", s.workers),
		}
	case s.workers == 0:
		return min(runtime.NumCPU(), types.MaxWorkers), nil
	}
	return s.workers, nil
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
