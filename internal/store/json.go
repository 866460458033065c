package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dgallion1/regindex/internal/doctree"
)

// SaveJSON writes idx to path as indented JSON, creating parent directories.
// The file is written to a temp sibling and renamed so readers never see a
// partial index.
func SaveJSON(path string, idx doctree.Index) error {
	if idx.Chunks == nil {
		idx.Chunks = []doctree.Chunk{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(idx); err != nil {
		return fmt.Errorf("encode index: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create index directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".regindex-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename index: %w", err)
	}
	return nil
}

// LoadJSON reads an index written by SaveJSON.
func LoadJSON(path string) (doctree.Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return doctree.Index{}, fmt.Errorf("read index: %w", err)
	}
	var idx doctree.Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return doctree.Index{}, fmt.Errorf("decode index: %w", err)
	}
	if idx.Chunks == nil {
		idx.Chunks = []doctree.Chunk{}
	}
	return idx, nil
}
