// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pdf wraps the PDF libraries the pipeline treats as opaque
// services: go-fitz (MuPDF) for opening, text extraction, and page
// rasterization, and pdfcpu for structural validation and decryption.
package pdf

import (
	"errors"
	"fmt"
	"image"
	"os"

	"github.com/gen2brain/go-fitz"
)

// ErrNeedsPassword is returned by Engine.Open for documents that cannot be
// read without a user password.
var ErrNeedsPassword = errors.New("document needs a password")

// Engine opens PDF documents.
type Engine interface {
	Open(path string) (Document, error)
}

// Document is an open PDF. Page indexes are 0-based. A Document is not
// safe for concurrent use; open one per goroutine.
type Document interface {
	// NumPage returns the page count, or a negative value when the page
	// tree cannot be enumerated.
	NumPage() int

	// Metadata returns the info dictionary entries (title, producer, ...).
	Metadata() map[string]string

	// Text extracts the text layer of a page.
	Text(page int) (string, error)

	// Render rasterizes a page at the given resolution.
	Render(page int, dpi float64) (image.Image, error)

	Close() error
}

// FitzEngine is the production Engine backed by MuPDF through go-fitz.
type FitzEngine struct{}

// NewFitzEngine returns an Engine backed by go-fitz.
func NewFitzEngine() *FitzEngine {
	return &FitzEngine{}
}

// Open opens the PDF at path.
func (FitzEngine) Open(path string) (Document, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	doc, err := fitz.New(path)
	if err != nil {
		if errors.Is(err, fitz.ErrNeedsPassword) {
			return nil, ErrNeedsPassword
		}
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	return &fitzDocument{doc: doc}, nil
}

type fitzDocument struct {
	doc *fitz.Document
}

func (d *fitzDocument) NumPage() int { return d.doc.NumPage() }

func (d *fitzDocument) Metadata() map[string]string { return d.doc.Metadata() }

func (d *fitzDocument) Text(page int) (string, error) {
	text, err := d.doc.Text(page)
	if err != nil {
		return "", fmt.Errorf("extracting text from page %d: %w", page+1, err)
	}
	return text, nil
}

func (d *fitzDocument) Render(page int, dpi float64) (image.Image, error) {
	img, err := d.doc.ImageDPI(page, dpi)
	if err != nil {
		return nil, fmt.Errorf("rendering page %d: %w", page+1, err)
	}
	return img, nil
}

func (d *fitzDocument) Close() error { return d.doc.Close() }
