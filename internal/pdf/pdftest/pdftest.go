// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pdftest builds small, well-formed PDF files for tests. Each page
// is US Letter (612 x 792 pt) and carries one line of Helvetica text; an
// empty string produces a page with no text layer.
package pdftest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Page dimensions in points.
const (
	PageWidth  = 612
	PageHeight = 792
)

// Build returns the bytes of a PDF with one page per entry in pages.
func Build(pages ...string) []byte {
	// Object layout: 1 catalog, 2 page tree, 3 font, then a page object and
	// a content stream for every page.
	n := len(pages)
	objs := make([]string, 0, 3+2*n)

	kids := make([]string, n)
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	objs = append(objs,
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), n),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
	)
	for i, text := range pages {
		content := ""
		if text != "" {
			content = fmt.Sprintf("BT /F1 18 Tf 72 700 Td (%s) Tj ET", escape(text))
		}
		objs = append(objs,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %d %d] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>",
				PageWidth, PageHeight, 5+2*i),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
		)
	}

	var b bytes.Buffer
	b.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, body := range objs {
		offsets[i] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}
	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n", len(objs)+1)
	b.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)
	return b.Bytes()
}

// Write builds a PDF into dir/name and returns its path.
func Write(t testing.TB, dir, name string, pages ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, Build(pages...), 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	return path
}

// WriteEncrypted builds a PDF and encrypts it with AES-256 using password
// for both the user and owner password.
func WriteEncrypted(t testing.TB, dir, name, password string, pages ...string) string {
	t.Helper()
	plain := Write(t, dir, "plain-"+name, pages...)
	path := filepath.Join(dir, name)
	conf := model.NewAESConfiguration(password, password, 256)
	if err := api.EncryptFile(plain, path, conf); err != nil {
		t.Fatalf("encrypting %s: %v", plain, err)
	}
	return path
}

func escape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return r.Replace(s)
}
