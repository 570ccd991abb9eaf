// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"

	"github.com/sourcegraph/conc/pool"

	"github.com/pdiddy/pdfconv/internal/pdf"
	"github.com/pdiddy/pdfconv/pkg/types"
)

// imageStrategy rasterizes every page into its own image file. Pages render
// in parallel on a bounded pool; each worker uses its own document handle
// since the engine's documents are not safe for concurrent use.
type imageStrategy struct {
	engine  pdf.Engine
	quality types.QualityConfiguration
	workers int
}

func (s *imageStrategy) Kind() types.OutputKind { return types.OutputImage }

func (s *imageStrategy) Name() string { return "image-rasterization " + s.quality.String() }

func (s *imageStrategy) run(ctx context.Context, j *job) (*output, error) {
	total := j.doc.PageCount
	workers := max(1, min(s.workers, total))

	handles := make(chan pdf.Document, workers)
	defer func() {
		close(handles)
		for d := range handles {
			d.Close()
		}
	}()
	for i := 0; i < workers; i++ {
		d, err := s.engine.Open(j.doc.OpenPath)
		if err != nil {
			return nil, &types.ExtractionError{Err: fmt.Errorf("opening document: %w", err)}
		}
		handles <- d
	}

	// Each task writes only its own index, so results come back in page
	// order whatever order the workers finish in.
	outcomes := make([]types.PageOutcome, total)
	attempted := make([]bool, total)

	p := pool.New().WithMaxGoroutines(workers).WithErrors().WithFirstError()
	for i := 0; i < total; i++ {
		if ctx.Err() != nil {
			break
		}
		p.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			d := <-handles
			defer func() { handles <- d }()

			out, err := s.renderPage(d, i, total, j)
			if ctx.Err() != nil {
				// Pages still rendering when the request was cancelled are
				// discarded; only pages finished before it are kept.
				if out.Artifact != "" {
					os.Remove(filepath.Join(j.scratch, filepath.Base(out.Artifact)))
				}
				return nil
			}
			attempted[i] = true
			outcomes[i] = out
			return err
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}

	res := &output{}
	failed, skipped := 0, 0
	for i, ok := range attempted {
		if !ok {
			skipped++
			continue
		}
		o := outcomes[i]
		res.pages = append(res.pages, o)
		if !o.OK() {
			failed++
			j.log.Warn().Int("page", o.Page).Err(o.Err).Msg("page failed to rasterize")
			continue
		}
		res.artifacts = append(res.artifacts, artifact{
			scratch: filepath.Join(j.scratch, filepath.Base(o.Artifact)),
			final:   o.Artifact,
		})
	}

	if skipped > 0 {
		return res, types.ErrCancelled
	}
	if failed == total {
		return res, &types.ExtractionError{
			Err: fmt.Errorf("all %d pages failed to rasterize: %w", total, res.pages[0].Err),
		}
	}
	return res, nil
}

// renderPage rasterizes the 0-based page index i into scratch. Render and
// encode failures are recorded on the outcome; only a failure to write the
// scratch file is returned.
func (s *imageStrategy) renderPage(d pdf.Document, i, total int, j *job) (types.PageOutcome, error) {
	page := i + 1
	out := types.PageOutcome{Page: page}

	img, err := d.Render(i, float64(s.quality.DPI))
	if err != nil {
		out.Err = &types.ExtractionError{Page: page, Err: err}
		return out, nil
	}
	var buf bytes.Buffer
	if err := encodeImage(&buf, img, s.quality); err != nil {
		out.Err = &types.ExtractionError{Page: page, Err: fmt.Errorf("encoding: %w", err)}
		return out, nil
	}

	name := pageFileName(j.stem, page, total, s.quality.Encoding)
	scratch := filepath.Join(j.scratch, name)
	if err := os.WriteFile(scratch, buf.Bytes(), 0o644); err != nil {
		return out, &types.WriteError{Path: scratch, Err: err}
	}

	bounds := img.Bounds()
	out.Artifact = filepath.Join(j.dest, name)
	out.Width = bounds.Dx()
	out.Height = bounds.Dy()
	return out, nil
}

// encodeImage writes img in the configured encoding. Compression is the
// JPEG quality; PNG is lossless.
func encodeImage(buf *bytes.Buffer, img image.Image, q types.QualityConfiguration) error {
	if q.Encoding == types.EncodingPNG {
		return png.Encode(buf, img)
	}
	return jpeg.Encode(buf, img, &jpeg.Options{Quality: q.Compression})
}
