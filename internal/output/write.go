package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dataoneorg/d1logdigest/internal/model"
)

// WriteText renders the report into dir and returns the file path.
func WriteText(dir string, r Report, f *TextFormatter) (string, []byte, error) {
	var buf bytes.Buffer
	if err := f.Format(&buf, r); err != nil {
		return "", nil, err
	}
	path := filepath.Join(dir, Filename(r.Generated, r.Regex))
	if err := writeAtomic(path, buf.Bytes()); err != nil {
		return "", nil, err
	}
	return path, buf.Bytes(), nil
}

// WriteJSON writes the records next to a text digest as one JSON object per line.
func WriteJSON(textPath string, records []model.LogRecord) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			return "", err
		}
	}
	path := strings.TrimSuffix(textPath, ".txt") + ".jsonl"
	return path, writeAtomic(path, buf.Bytes())
}

// writeAtomic writes to a temp file in the target directory, then renames it.
func writeAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
