package logfile

import (
	"bytes"
	"io"
	"os"

	"golang.org/x/text/runes"

	"github.com/dataoneorg/d1logdigest/internal/model"
)

// chunkSize is the backward read step.
const chunkSize = 4096

// TailLines returns up to limit physical lines from the end of the file, last
// line first. Plain files are read backward in fixed-size chunks; compressed
// files cannot seek and are streamed into a bounded ring instead.
func TailLines(lf model.LogFile, limit int) ([]string, error) {
	if limit <= 0 {
		return nil, nil
	}
	if lf.Compressed {
		return tailStream(lf, limit)
	}

	f, err := os.Open(lf.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []string
	err = ReverseLines(f, func(line string) bool {
		out = append(out, line)
		return len(out) < limit
	})
	return out, err
}

// ReverseLines calls fn for every line of r from last to first until fn
// returns false. A trailing newline does not produce an empty last line.
func ReverseLines(r io.ReadSeeker, fn func(line string) bool) error {
	end, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return err
	}

	var (
		carry   []byte // partial line from the previous (later) chunk
		buf     = make([]byte, chunkSize)
		pos     = end
		first   = true
		repair  = runes.ReplaceIllFormed()
		emitOne = func(b []byte) bool {
			return fn(trimCR(repair.String(string(b))))
		}
	)

	for pos > 0 {
		n := int64(chunkSize)
		if pos < n {
			n = pos
		}
		pos -= n
		if _, err := r.Seek(pos, io.SeekStart); err != nil {
			return err
		}
		if _, err := io.ReadFull(r, buf[:n]); err != nil {
			return err
		}

		chunk := append(append([]byte(nil), buf[:n]...), carry...)
		if first {
			chunk = bytes.TrimSuffix(chunk, []byte("\n"))
			first = false
		}

		for {
			i := bytes.LastIndexByte(chunk, '\n')
			if i < 0 {
				break
			}
			if !emitOne(chunk[i+1:]) {
				return nil
			}
			chunk = chunk[:i]
		}
		carry = chunk
	}

	if len(carry) > 0 || end > 0 {
		emitOne(carry)
	}
	return nil
}

// tailStream keeps the last limit lines of a forward-only stream.
func tailStream(lf model.LogFile, limit int) ([]string, error) {
	rd, err := Open(lf)
	if err != nil {
		return nil, err
	}
	defer rd.Close()

	ring := make([]string, 0, limit)
	next := 0
	err = Lines(rd, func(line string) bool {
		if len(ring) < limit {
			ring = append(ring, line)
		} else {
			ring[next] = line
			next = (next + 1) % limit
		}
		return true
	})
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(ring))
	for i := len(ring) - 1; i >= 0; i-- {
		out = append(out, ring[(next+i)%len(ring)])
	}
	return out, nil
}
