// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the shared data model for the pdfconv pipeline:
// validated documents, conversion options, quality configurations, results,
// the error taxonomy, and the configuration structs loaded by the CLI.
package types

import (
	"fmt"
	"strings"
)

// PDFDocument is a validated input document. The validator creates it and
// nothing mutates it afterwards; it lives only for a single conversion run.
type PDFDocument struct {
	// Path is the absolute path of the source file.
	Path string `json:"path" yaml:"path"`

	// OpenPath is the file the PDF engine reads. It equals Path unless the
	// source was decrypted into the request's scratch directory.
	OpenPath string `json:"-" yaml:"-"`

	// PageCount is the number of pages; always >= 1 for a valid document.
	PageCount int `json:"page_count" yaml:"page_count"`

	// Encrypted reports whether the source was password-protected.
	Encrypted bool `json:"encrypted" yaml:"encrypted"`

	// Title and Producer come from the document info dictionary and are
	// used for display only.
	Title    string `json:"title,omitempty" yaml:"title,omitempty"`
	Producer string `json:"producer,omitempty" yaml:"producer,omitempty"`

	// Size is the source file size in bytes.
	Size int64 `json:"size" yaml:"size"`
}

// OutputKind selects the representation a PDF is converted into.
type OutputKind string

const (
	OutputText     OutputKind = "text"
	OutputWord     OutputKind = "word"
	OutputHTML     OutputKind = "html"
	OutputMarkdown OutputKind = "markdown"
	OutputImage    OutputKind = "image"
)

// OutputKinds lists every supported output kind in display order.
var OutputKinds = []OutputKind{OutputText, OutputWord, OutputHTML, OutputMarkdown, OutputImage}

// ParseOutputKind maps a user-supplied name (case-insensitive, with a few
// common aliases) to an OutputKind.
func ParseOutputKind(s string) (OutputKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text", "txt":
		return OutputText, nil
	case "word", "docx":
		return OutputWord, nil
	case "html", "htm":
		return OutputHTML, nil
	case "markdown", "md":
		return OutputMarkdown, nil
	case "image", "images", "img":
		return OutputImage, nil
	}
	return "", &UnsupportedFormatError{Kind: s}
}

// Extension returns the file extension used for single-file outputs of this
// kind. Image outputs derive their extension from the encoding instead.
func (k OutputKind) Extension() string {
	switch k {
	case OutputText:
		return ".txt"
	case OutputWord:
		return ".docx"
	case OutputHTML:
		return ".html"
	case OutputMarkdown:
		return ".md"
	}
	return ""
}

// Delegated reports whether the kind is produced by the external document
// converter.
func (k OutputKind) Delegated() bool {
	return k == OutputWord || k == OutputHTML || k == OutputMarkdown
}

// Encoding is the raster image encoding used in Image mode.
type Encoding string

const (
	EncodingJPEG Encoding = "jpeg"
	EncodingPNG  Encoding = "png"
)

// ParseEncoding maps "jpeg", "jpg" or "png" (any case) to an Encoding.
func ParseEncoding(s string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "jpeg", "jpg":
		return EncodingJPEG, nil
	case "png":
		return EncodingPNG, nil
	}
	return "", &InvalidConfigurationError{Field: "encoding", Reason: fmt.Sprintf("unknown encoding %q (want jpeg or png)", s)}
}

// Extension returns the image file extension for the encoding.
func (e Encoding) Extension() string {
	if e == EncodingPNG {
		return ".png"
	}
	return ".jpg"
}

// Preset names a fixed bundle of quality parameters.
type Preset string

const (
	PresetLow    Preset = "low"
	PresetMedium Preset = "medium"
	PresetHigh   Preset = "high"
	PresetUltra  Preset = "ultra"
	PresetCustom Preset = "custom"
)

// Presets lists the named presets from smallest to largest output.
var Presets = []Preset{PresetLow, PresetMedium, PresetHigh, PresetUltra}

// Bounds for QualityConfiguration fields.
const (
	MinDPI         = 36
	MaxDPI         = 600
	MinCompression = 1
	MaxCompression = 100
)

// QualityConfiguration is a concrete image-rendering configuration.
// Compression is meaningful only for JPEG; PNG output is lossless and
// carries Compression == 0.
type QualityConfiguration struct {
	Preset      Preset   `json:"preset" yaml:"preset"`
	DPI         int      `json:"dpi" yaml:"dpi"`
	Encoding    Encoding `json:"encoding" yaml:"encoding"`
	Compression int      `json:"compression,omitempty" yaml:"compression,omitempty"`
}

// Validate checks every field against its bound and returns the first
// violation as an InvalidConfigurationError. Values are never clamped.
func (q QualityConfiguration) Validate() error {
	if q.DPI < MinDPI || q.DPI > MaxDPI {
		return &InvalidConfigurationError{
			Field:  "dpi",
			Reason: fmt.Sprintf("%d is outside %d-%d", q.DPI, MinDPI, MaxDPI),
		}
	}
	switch q.Encoding {
	case EncodingJPEG:
		if q.Compression < MinCompression || q.Compression > MaxCompression {
			return &InvalidConfigurationError{
				Field:  "compression",
				Reason: fmt.Sprintf("%d is outside %d-%d", q.Compression, MinCompression, MaxCompression),
			}
		}
	case EncodingPNG:
	default:
		return &InvalidConfigurationError{
			Field:  "encoding",
			Reason: fmt.Sprintf("unknown encoding %q (want jpeg or png)", q.Encoding),
		}
	}
	return nil
}

func (q QualityConfiguration) String() string {
	if q.Encoding == EncodingPNG {
		return fmt.Sprintf("%s (%d dpi, png)", q.Preset, q.DPI)
	}
	return fmt.Sprintf("%s (%d dpi, jpeg %d%%)", q.Preset, q.DPI, q.Compression)
}

// ConversionOptions carries everything one conversion request needs besides
// the source path. Treat a value as immutable once built; callers construct
// a fresh one per request.
type ConversionOptions struct {
	// Kind selects the output representation.
	Kind OutputKind `json:"kind" yaml:"kind"`

	// Quality is the resolved image configuration. Only Image mode uses it.
	Quality QualityConfiguration `json:"quality" yaml:"quality"`

	// Destination is the output file for single-file kinds or the output
	// directory for Image mode.
	Destination string `json:"destination" yaml:"destination"`

	// ImageStem is the filename stem for page images; empty means the
	// source file's base name.
	ImageStem string `json:"image_stem,omitempty" yaml:"image_stem,omitempty"`

	// Password unlocks an encrypted source. Empty means none supplied.
	Password string `json:"-" yaml:"-"`
}
