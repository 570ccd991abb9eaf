// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pdftest

import (
	"errors"
	"image"
	"sync"

	"github.com/pdiddy/pdfconv/internal/pdf"
)

// FakeEngine is an in-memory pdf.Engine. Pages holds the text layer of each
// page; renders produce a white US Letter image scaled to the requested dpi.
type FakeEngine struct {
	Pages     []string
	Meta      map[string]string
	OpenErr   error
	PageErr   bool // NumPage reports -1
	TextErr   map[int]error
	RenderErr map[int]error

	// OnRender, when set, runs before each render with the 0-based page.
	OnRender func(page int)

	mu     sync.Mutex
	opened int
	closed int
}

// Open implements pdf.Engine.
func (e *FakeEngine) Open(string) (pdf.Document, error) {
	if e.OpenErr != nil {
		return nil, e.OpenErr
	}
	e.mu.Lock()
	e.opened++
	e.mu.Unlock()
	return &fakeDocument{engine: e}, nil
}

// Handles returns how many documents were opened and closed.
func (e *FakeEngine) Handles() (opened, closed int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.opened, e.closed
}

type fakeDocument struct {
	engine *FakeEngine
}

func (d *fakeDocument) NumPage() int {
	if d.engine.PageErr {
		return -1
	}
	return len(d.engine.Pages)
}

func (d *fakeDocument) Metadata() map[string]string {
	if d.engine.Meta == nil {
		return map[string]string{}
	}
	return d.engine.Meta
}

func (d *fakeDocument) Text(page int) (string, error) {
	if err := d.engine.TextErr[page]; err != nil {
		return "", err
	}
	if page < 0 || page >= len(d.engine.Pages) {
		return "", errors.New("page out of range")
	}
	return d.engine.Pages[page], nil
}

func (d *fakeDocument) Render(page int, dpi float64) (image.Image, error) {
	if d.engine.OnRender != nil {
		d.engine.OnRender(page)
	}
	if err := d.engine.RenderErr[page]; err != nil {
		return nil, err
	}
	w := int(float64(PageWidth) * dpi / 72)
	h := int(float64(PageHeight) * dpi / 72)
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	return img, nil
}

func (d *fakeDocument) Close() error {
	d.engine.mu.Lock()
	d.engine.closed++
	d.engine.mu.Unlock()
	return nil
}
