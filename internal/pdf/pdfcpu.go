// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pdf

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// headerWindow is how far into a file the %PDF- marker may appear.
const headerWindow = 1024

var pdfMagic = []byte("%PDF-")

// HasHeader reports whether r starts (within the first 1024 bytes) with a
// PDF header.
func HasHeader(r io.Reader) (bool, error) {
	buf := make([]byte, headerWindow)
	n, err := io.ReadFull(r, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return false, err
	}
	return bytes.Contains(buf[:n], pdfMagic), nil
}

// Checker performs a structural validation of a PDF file.
type Checker interface {
	Check(path string) error
}

// Decrypter writes a decrypted copy of an encrypted PDF.
type Decrypter interface {
	Decrypt(inPath, outPath, password string) error
}

// PDFCPU implements Checker and Decrypter with pdfcpu.
type PDFCPU struct{}

// NewPDFCPU returns a pdfcpu-backed Checker and Decrypter.
func NewPDFCPU() *PDFCPU {
	return &PDFCPU{}
}

// Check validates the cross-reference table, object graph, and page tree
// in relaxed mode.
func (PDFCPU) Check(path string) error {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	if err := api.ValidateFile(path, conf); err != nil {
		return fmt.Errorf("validating %s: %w", path, err)
	}
	return nil
}

// Decrypt removes encryption from inPath using password as the user (and
// owner) password and writes the result to outPath.
func (PDFCPU) Decrypt(inPath, outPath, password string) error {
	conf := model.NewDefaultConfiguration()
	conf.UserPW = password
	conf.OwnerPW = password
	if err := api.DecryptFile(inPath, outPath, conf); err != nil {
		os.Remove(outPath)
		return fmt.Errorf("decrypting %s: %w", inPath, err)
	}
	return nil
}
