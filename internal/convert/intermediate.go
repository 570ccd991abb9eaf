// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/pdfconv/pkg/types"
)

// frontmatter is the YAML metadata block at the top of the intermediate.
// Pandoc reads title from it for the output document's title.
type frontmatter struct {
	Title    string `yaml:"title"`
	Producer string `yaml:"producer,omitempty"`
	Source   string `yaml:"source"`
	Pages    int    `yaml:"pages"`
}

var (
	inlineEscaper = strings.NewReplacer(
		`\`, `\\`,
		"`", "\\`",
		"*", `\*`,
		"_", `\_`,
		"[", `\[`,
		"]", `\]`,
		"<", `\<`,
		">", `\>`,
		"#", `\#`,
		"|", `\|`,
	)
	orderedMarker = regexp.MustCompile(`^(\d+)([.)])(\s|$)`)
)

// escapeMarkdown makes extracted text literal in Markdown so characters
// like * or a leading "1." are not read as markup.
func escapeMarkdown(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		line = inlineEscaper.Replace(strings.TrimRight(line, " \t"))
		trimmed := strings.TrimLeft(line, " \t")
		indent := line[:len(line)-len(trimmed)]
		switch {
		case strings.HasPrefix(trimmed, "-"), strings.HasPrefix(trimmed, "+"), strings.HasPrefix(trimmed, "="):
			trimmed = `\` + trimmed
		case orderedMarker.MatchString(trimmed):
			trimmed = orderedMarker.ReplaceAllString(trimmed, `$1\$2$3`)
		}
		lines[i] = indent + trimmed
	}
	return strings.Join(lines, "\n")
}

// buildIntermediate renders the Markdown handed to the document converter:
// a metadata block, then one section per page separated by thematic breaks.
func buildIntermediate(doc *types.PDFDocument, stem string, pages []pageText) ([]byte, error) {
	title := doc.Title
	if title == "" {
		title = stem
	}
	meta, err := yaml.Marshal(frontmatter{
		Title:    title,
		Producer: doc.Producer,
		Source:   filepath.Base(doc.Path),
		Pages:    doc.PageCount,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling metadata: %w", err)
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.Write(meta)
	b.WriteString("---\n\n")
	for i, p := range pages {
		if i > 0 {
			b.WriteString("\n* * *\n\n")
		}
		fmt.Fprintf(&b, "## Page %d\n\n", p.page)
		if p.err != nil {
			b.WriteString("_No extractable text on this page._\n")
			continue
		}
		b.WriteString(escapeMarkdown(p.text))
		b.WriteString("\n")
	}
	return []byte(b.String()), nil
}
