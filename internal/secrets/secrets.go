// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads document passwords from a directory of plain-text
// files. Each file holds the password for one source PDF: the file name is
// the PDF's base name (report.pdf) or its stem (report), and the trimmed
// contents are the password. A file named "default" applies to every PDF
// without its own entry.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultKey names the fallback password file.
const DefaultKey = "default"

// Store is a loaded password directory.
type Store map[string]string

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty store.
// Unreadable files produce a warning on stderr but do not abort.
func Load(dir string) (Store, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Store{}, nil
		}
		return nil, fmt.Errorf("reading password directory %s: %w", dir, err)
	}

	store := make(Store)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read password file %s: %v\n", name, err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			store[name] = value
		}
	}

	return store, nil
}

// PasswordFor returns the password for the PDF at source: an entry for its
// base name, then its stem, then the default. It returns "" when none match.
func (s Store) PasswordFor(source string) string {
	base := filepath.Base(source)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	for _, key := range []string{base, stem, DefaultKey} {
		if pw, ok := s[key]; ok {
			return pw
		}
	}
	return ""
}
