// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package validate confirms that an input file is a readable, well-formed,
// unencrypted (or decryptable) PDF with at least one page, and extracts the
// page count and display metadata the rest of the pipeline needs.
package validate

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/pdfconv/internal/pdf"
	"github.com/pdiddy/pdfconv/pkg/types"
)

// decryptedName is the scratch file a password-protected source is
// decrypted into.
const decryptedName = "decrypted.pdf"

// Options carries per-request validation inputs.
type Options struct {
	// Password unlocks an encrypted source.
	Password string

	// ScratchDir receives the decrypted copy of an encrypted source. It is
	// required only when Password is set.
	ScratchDir string
}

// Validator checks input documents. It never modifies the source file.
type Validator struct {
	engine    pdf.Engine
	checker   pdf.Checker
	decrypter pdf.Decrypter
	strict    bool
}

// New returns a Validator. checker may be nil; it is consulted only when
// strict is true.
func New(engine pdf.Engine, checker pdf.Checker, decrypter pdf.Decrypter, strict bool) *Validator {
	return &Validator{
		engine:    engine,
		checker:   checker,
		decrypter: decrypter,
		strict:    strict,
	}
}

// Validate opens path and returns the validated document, or an
// InvalidDocumentError describing why it cannot be converted.
func (v *Validator) Validate(path string, opts Options) (*types.PDFDocument, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, invalid(path, types.ReasonUnreadable, "", err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, invalid(abs, types.ReasonUnreadable, "cannot access file", err)
	}
	if info.IsDir() {
		return nil, invalid(abs, types.ReasonUnreadable, "path is a directory", nil)
	}

	if err := checkHeader(abs); err != nil {
		return nil, err
	}

	openPath := abs
	encrypted := false
	doc, err := v.engine.Open(abs)
	if errors.Is(err, pdf.ErrNeedsPassword) {
		encrypted = true
		if opts.Password == "" {
			return nil, invalid(abs, types.ReasonEncrypted, "password required", nil)
		}
		openPath, err = v.decrypt(abs, opts)
		if err != nil {
			return nil, err
		}
		doc, err = v.engine.Open(openPath)
	}
	if err != nil {
		return nil, invalid(abs, types.ReasonCorrupted, "cannot open document", err)
	}
	defer doc.Close()

	pages := doc.NumPage()
	if pages < 0 {
		return nil, invalid(abs, types.ReasonCorrupted, "cannot enumerate pages", nil)
	}
	if pages == 0 {
		return nil, invalid(abs, types.ReasonEmpty, "document has no pages", nil)
	}

	if v.strict && v.checker != nil {
		if err := v.checker.Check(openPath); err != nil {
			return nil, invalid(abs, types.ReasonCorrupted, "structural validation failed", err)
		}
	}

	meta := doc.Metadata()
	return &types.PDFDocument{
		Path:      abs,
		OpenPath:  openPath,
		PageCount: pages,
		Encrypted: encrypted,
		Title:     strings.TrimSpace(meta["title"]),
		Producer:  strings.TrimSpace(meta["producer"]),
		Size:      info.Size(),
	}, nil
}

func (v *Validator) decrypt(abs string, opts Options) (string, error) {
	if v.decrypter == nil || opts.ScratchDir == "" {
		return "", invalid(abs, types.ReasonEncrypted, "decryption unavailable", nil)
	}
	out := filepath.Join(opts.ScratchDir, decryptedName)
	if err := v.decrypter.Decrypt(abs, out, opts.Password); err != nil {
		return "", invalid(abs, types.ReasonEncrypted, "password rejected", err)
	}
	return out, nil
}

func checkHeader(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return invalid(path, types.ReasonUnreadable, "cannot open file", err)
	}
	defer f.Close()

	ok, err := pdf.HasHeader(f)
	if err != nil {
		return invalid(path, types.ReasonUnreadable, "cannot read file", err)
	}
	if !ok {
		return invalid(path, types.ReasonNotAPDF, fmt.Sprintf("no PDF header in %s", filepath.Base(path)), nil)
	}
	return nil
}

func invalid(path string, reason types.InvalidReason, detail string, err error) *types.InvalidDocumentError {
	return &types.InvalidDocumentError{Path: path, Reason: reason, Detail: detail, Err: err}
}
