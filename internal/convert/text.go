// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/pdfconv/internal/pdf"
	"github.com/pdiddy/pdfconv/pkg/types"
)

// noTextPlaceholder stands in for a page without a text layer so page
// numbering in the output stays intact.
const noTextPlaceholder = "[no extractable text on this page]"

// pageText is the text of one page. err is an ExtractionError when the page
// has no usable text.
type pageText struct {
	page int
	text string
	err  error
}

// extractText reads the text layer of every page in order, checking for
// cancellation between pages. It fails only when no page has text.
func extractText(ctx context.Context, engine pdf.Engine, doc *types.PDFDocument) ([]pageText, error) {
	d, err := engine.Open(doc.OpenPath)
	if err != nil {
		return nil, &types.ExtractionError{Err: fmt.Errorf("opening document: %w", err)}
	}
	defer d.Close()

	pages := make([]pageText, 0, doc.PageCount)
	withText := 0
	for i := 0; i < doc.PageCount; i++ {
		if ctx.Err() != nil {
			return nil, types.ErrCancelled
		}
		pt := pageText{page: i + 1}
		text, err := d.Text(i)
		text = strings.TrimSpace(strings.ReplaceAll(text, "\r\n", "\n"))
		switch {
		case err != nil:
			pt.err = &types.ExtractionError{Page: pt.page, Err: err}
		case text == "":
			pt.err = &types.ExtractionError{Page: pt.page, Err: types.ErrNoTextLayer}
		default:
			pt.text = text
			withText++
		}
		pages = append(pages, pt)
	}

	if withText == 0 {
		return pages, &types.ExtractionError{
			Err: fmt.Errorf("none of %d pages has text, the document may be scanned images: %w", doc.PageCount, types.ErrNoTextLayer),
		}
	}
	return pages, nil
}

func textOutcomes(pages []pageText) []types.PageOutcome {
	out := make([]types.PageOutcome, len(pages))
	for i, p := range pages {
		out[i] = types.PageOutcome{Page: p.page, Err: p.err}
	}
	return out
}

// renderText joins pages with page-break markers. The output depends only
// on the page texts, so repeated runs are byte-identical.
func renderText(pages []pageText) string {
	var b strings.Builder
	for i, p := range pages {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "--- Page %d ---\n", p.page)
		if p.err != nil {
			b.WriteString(noTextPlaceholder)
		} else {
			b.WriteString(p.text)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// textStrategy extracts the embedded text of every page into one file.
type textStrategy struct {
	engine pdf.Engine
}

func (s *textStrategy) Kind() types.OutputKind { return types.OutputText }

func (s *textStrategy) Name() string { return "text-extraction" }

func (s *textStrategy) run(ctx context.Context, j *job) (*output, error) {
	pages, err := extractText(ctx, s.engine, j.doc)
	if err != nil {
		return &output{pages: textOutcomes(pages)}, err
	}
	for _, p := range pages {
		if p.err != nil {
			j.log.Warn().Int("page", p.page).Err(p.err).Msg("page has no text")
		}
	}

	path := filepath.Join(j.scratch, "output"+types.OutputText.Extension())
	if err := os.WriteFile(path, []byte(renderText(pages)), 0o644); err != nil {
		return nil, &types.WriteError{Path: path, Err: err}
	}
	return &output{
		artifacts: []artifact{{scratch: path, final: j.dest}},
		pages:     textOutcomes(pages),
	}, nil
}
