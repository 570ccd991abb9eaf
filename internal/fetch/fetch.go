// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch downloads remote PDF sources so the CLI can convert
// http(s) URLs like local files.
package fetch

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/pdiddy/pdfconv/pkg/types"
)

const userAgent = "pdfconv/1"

// Fetcher downloads PDFs over HTTP.
type Fetcher struct {
	client    *http.Client
	cfg       types.FetchConfig
	retryBase time.Duration
}

// New returns a Fetcher using cfg. A nil client gets one with cfg.Timeout.
func New(client *http.Client, cfg types.FetchConfig) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &Fetcher{client: client, cfg: cfg, retryBase: 2 * time.Second}
}

// IsRemote reports whether source is an http or https URL.
func IsRemote(source string) bool {
	u, err := url.Parse(source)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// FileName returns the local file name used for a downloaded URL: the last
// path element when it has a .pdf extension, otherwise a name derived from
// a hash of the URL.
func FileName(rawURL string) string {
	if u, err := url.Parse(rawURL); err == nil {
		base := filepath.Base(u.Path)
		if strings.EqualFold(filepath.Ext(base), ".pdf") && base != ".pdf" {
			return base
		}
	}
	h := sha256.Sum256([]byte(rawURL))
	return fmt.Sprintf("url-%x.pdf", h[:8])
}

// Download fetches rawURL into dir and returns the local path. The file
// appears under its final name only once the whole body has been written.
func (f *Fetcher) Download(ctx context.Context, rawURL, dir string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/pdf")

	resp, err := doWithRetry(ctx, f.client, req, f.cfg.MaxRetries, f.retryBase)
	if err != nil {
		return "", fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d from %s", resp.StatusCode, rawURL)
	}
	if f.cfg.MaxBytes > 0 && resp.ContentLength > f.cfg.MaxBytes {
		return "", fmt.Errorf("%s is %s, over the %s limit", rawURL,
			humanize.IBytes(uint64(resp.ContentLength)), humanize.IBytes(uint64(f.cfg.MaxBytes)))
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating download directory: %w", err)
	}
	tmpFile, err := os.CreateTemp(dir, ".fetch-*.tmp")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	var body io.Reader = resp.Body
	if f.cfg.MaxBytes > 0 {
		body = io.LimitReader(resp.Body, f.cfg.MaxBytes+1)
	}
	n, copyErr := io.Copy(tmpFile, body)
	closeErr := tmpFile.Close()
	switch {
	case copyErr != nil:
		os.Remove(tmpPath)
		return "", fmt.Errorf("writing download: %w", copyErr)
	case closeErr != nil:
		os.Remove(tmpPath)
		return "", fmt.Errorf("closing temp file: %w", closeErr)
	case f.cfg.MaxBytes > 0 && n > f.cfg.MaxBytes:
		os.Remove(tmpPath)
		return "", fmt.Errorf("%s exceeds the %s limit", rawURL, humanize.IBytes(uint64(f.cfg.MaxBytes)))
	}

	dest := filepath.Join(dir, FileName(rawURL))
	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("renaming temp file: %w", err)
	}
	return dest, nil
}
