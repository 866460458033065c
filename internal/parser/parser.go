package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/regindex/internal/doctree"
	"github.com/dgallion1/regindex/internal/textnorm"
)

// Parser converts raw document bytes into an ordered sequence of pages.
type Parser interface {
	Parse(r io.Reader, filename string) ([]doctree.Page, error)
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// Options tunes parsers that have optional behavior.
type Options struct {
	PDFFallbackPdftotext bool
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string, opts Options) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".pdf":
		return &PDFParser{FallbackPdftotext: opts.PDFFallbackPdftotext}, nil
	case ".docx":
		return &DOCXParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// numberPages normalizes raw page texts and numbers them from 1. Empty pages
// keep their slot so page numbers match the physical document.
func numberPages(raw []string) []doctree.Page {
	pages := make([]doctree.Page, len(raw))
	for i, text := range raw {
		pages[i] = doctree.Page{Number: i + 1, Text: textnorm.Normalize(text)}
	}
	return pages
}
