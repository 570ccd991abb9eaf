// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/pdiddy/pdfconv/internal/docconv"
	"github.com/pdiddy/pdfconv/internal/pdf"
	"github.com/pdiddy/pdfconv/pkg/types"
)

const intermediateName = "intermediate.md"

// documentStrategy extracts a Markdown intermediate and delegates Word,
// HTML, or Markdown generation to the external converter.
type documentStrategy struct {
	engine    pdf.Engine
	kind      types.OutputKind
	converter docconv.Converter
	base      time.Duration
	perPage   time.Duration
}

func (s *documentStrategy) Kind() types.OutputKind { return s.kind }

func (s *documentStrategy) Name() string {
	return "delegated " + string(s.kind) + " via " + s.converter.Name()
}

// timeout bounds the converter call: a base allowance plus a per-page share.
func (s *documentStrategy) timeout(pages int) time.Duration {
	return s.base + time.Duration(pages)*s.perPage
}

func (s *documentStrategy) run(ctx context.Context, j *job) (*output, error) {
	pages, err := extractText(ctx, s.engine, j.doc)
	if err != nil {
		return &output{pages: textOutcomes(pages)}, err
	}

	data, err := buildIntermediate(j.doc, j.stem, pages)
	if err != nil {
		return nil, err
	}
	ir := filepath.Join(j.scratch, intermediateName)
	if err := os.WriteFile(ir, data, 0o644); err != nil {
		return nil, &types.WriteError{Path: ir, Err: err}
	}

	limit := s.timeout(j.doc.PageCount)
	dctx, cancel := context.WithTimeout(ctx, limit)
	defer cancel()

	out := filepath.Join(j.scratch, "output"+s.kind.Extension())
	j.log.Debug().Str("converter", s.converter.Name()).Dur("timeout", limit).Msg("delegating document conversion")
	if err := s.converter.Convert(dctx, ir, s.kind, out); err != nil {
		switch {
		case ctx.Err() != nil:
			return nil, types.ErrCancelled
		case errors.Is(dctx.Err(), context.DeadlineExceeded):
			return nil, &types.TimeoutError{Operation: "document conversion", After: limit}
		}
		return nil, &types.DelegationError{Tool: s.converter.Name(), Err: err}
	}

	return &output{
		artifacts: []artifact{{scratch: out, final: j.dest}},
		pages:     textOutcomes(pages),
	}, nil
}
