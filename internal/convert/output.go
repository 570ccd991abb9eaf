// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pdiddy/pdfconv/pkg/types"
)

// job is one bound conversion: the validated document, where scratch
// output goes, and where artifacts will end up.
type job struct {
	doc     *types.PDFDocument
	scratch string

	// dest is the output file for single-file kinds and the output
	// directory for Image mode.
	dest string
	stem string
	log  zerolog.Logger
}

// artifact is a file produced in scratch and its final location.
type artifact struct {
	scratch string
	final   string
}

// output is what a strategy hands back for writing.
type output struct {
	artifacts []artifact // page order
	pages     []types.PageOutcome
}

// planDestination resolves where the artifacts of a request go and the
// filename stem for page images.
func planDestination(doc *types.PDFDocument, opts types.ConversionOptions) (dest, stem string, err error) {
	stem = opts.ImageStem
	if stem == "" {
		stem = strings.TrimSuffix(filepath.Base(doc.Path), filepath.Ext(doc.Path))
	}
	if strings.ContainsAny(stem, `/\`) || stem == "." || stem == ".." {
		return "", "", &types.InvalidConfigurationError{Field: "image_stem", Reason: fmt.Sprintf("%q is not a plain file name", stem)}
	}

	if opts.Destination == "" {
		return "", "", &types.InvalidConfigurationError{Field: "destination", Reason: "no destination given"}
	}
	dest, err = filepath.Abs(opts.Destination)
	if err != nil {
		return "", "", &types.InvalidConfigurationError{Field: "destination", Reason: err.Error()}
	}
	info, statErr := os.Stat(dest)

	if opts.Kind == types.OutputImage {
		switch {
		case statErr == nil && !info.IsDir():
			return "", "", &types.InvalidConfigurationError{Field: "destination", Reason: dest + " is a file; image output needs a directory"}
		case statErr != nil && filepath.Ext(dest) != "":
			// A new path that looks like a file name, such as out/page.png,
			// places the images next to it.
			dest = filepath.Dir(dest)
		}
		return dest, stem, nil
	}

	switch {
	case statErr == nil && info.IsDir():
		base := strings.TrimSuffix(filepath.Base(doc.Path), filepath.Ext(doc.Path))
		dest = filepath.Join(dest, base+opts.Kind.Extension())
	case filepath.Ext(dest) == "":
		dest += opts.Kind.Extension()
	}
	if dest == doc.Path {
		return "", "", &types.InvalidConfigurationError{Field: "destination", Reason: "destination would overwrite the source document"}
	}
	return dest, stem, nil
}

// pageFileName returns the image name for a 1-based page of a total-page
// document. Indexes are zero-padded to at least three digits so names sort
// in page order.
func pageFileName(stem string, page, total int, enc types.Encoding) string {
	width := max(3, len(strconv.Itoa(total)))
	return fmt.Sprintf("%s_page_%0*d%s", stem, width, page, enc.Extension())
}

// writeArtifacts moves artifacts from scratch to their final paths,
// creating directories as needed. On failure every artifact already
// written is removed and the error is a WriteError.
func writeArtifacts(arts []artifact) (paths []string, total int64, err error) {
	written := make([]string, 0, len(arts))
	defer func() {
		if err != nil {
			for _, p := range written {
				os.Remove(p)
			}
		}
	}()

	for _, a := range arts {
		if err := os.MkdirAll(filepath.Dir(a.final), 0o755); err != nil {
			return nil, 0, &types.WriteError{Path: filepath.Dir(a.final), Err: err}
		}
		if err := moveFile(a.scratch, a.final); err != nil {
			return nil, 0, &types.WriteError{Path: a.final, Err: err}
		}
		written = append(written, a.final)

		info, err := os.Stat(a.final)
		if err != nil {
			return nil, 0, &types.WriteError{Path: a.final, Err: err}
		}
		total += info.Size()
	}
	return written, total, nil
}

// moveFile renames src to dst, copying when the two are on different
// filesystems.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	if info, err := os.Stat(dst); err == nil && info.IsDir() {
		return fmt.Errorf("%s is a directory", dst)
	}
	return copyFile(src, dst)
}

func copyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(dst)
		}
	}()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}

// removeAll deletes dir, logging instead of failing.
func removeAll(dir string, log zerolog.Logger) {
	if dir == "" {
		return
	}
	if err := os.RemoveAll(dir); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Str("dir", dir).Msg("removing scratch directory")
	}
}
