package parser

import (
	"io"
	"strings"

	"github.com/dgallion1/regindex/internal/doctree"
)

// TextParser handles plain text files. Form feeds separate pages, which is
// what `pdftotext` emits.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) ([]doctree.Page, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	return numberPages(splitPages(text)), nil
}

func splitPages(text string) []string {
	pages := strings.Split(text, "\f")
	// A trailing form feed does not start another page.
	if len(pages) > 1 && strings.TrimSpace(pages[len(pages)-1]) == "" {
		pages = pages[:len(pages)-1]
	}
	return pages
}
