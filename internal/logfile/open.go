package logfile

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"

	"github.com/dataoneorg/d1logdigest/internal/model"
)

// maxLineBytes bounds a single physical line.
const maxLineBytes = 4 * 1024 * 1024

// Reader is a decoded line source over one log file.
type Reader struct {
	file *os.File
	gz   *gzip.Reader
	r    io.Reader
}

// Open opens a log file for forward reading, decompressing gzip files and
// replacing ill-formed UTF-8 sequences.
func Open(lf model.LogFile) (*Reader, error) {
	f, err := os.Open(lf.Path)
	if err != nil {
		return nil, err
	}

	rd := &Reader{file: f, r: f}
	if lf.Compressed {
		gz, err := gzip.NewReader(bufio.NewReader(f))
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("gzip %s: %w", lf.Path, err)
		}
		rd.gz = gz
		rd.r = gz
	}
	rd.r = transform.NewReader(rd.r, runes.ReplaceIllFormed())
	return rd, nil
}

func (r *Reader) Read(p []byte) (int, error) {
	return r.r.Read(p)
}

// Close releases the decompressor and the file handle.
func (r *Reader) Close() error {
	if r.gz != nil {
		r.gz.Close()
	}
	return r.file.Close()
}

// Lines calls fn for every physical line until fn returns false or the input
// ends. Line terminators are stripped.
func Lines(r io.Reader, fn func(line string) bool) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		if !fn(trimCR(scanner.Text())) {
			return nil
		}
	}
	return scanner.Err()
}

func trimCR(s string) string {
	if n := len(s); n > 0 && s[n-1] == '\r' {
		return s[:n-1]
	}
	return s
}
