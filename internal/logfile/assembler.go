package logfile

import (
	"io"
	"strings"
)

// DefaultMaxLines caps the physical lines of one logical record.
const DefaultMaxLines = 200

// HeaderDetector recognizes lines that begin a new logical record.
type HeaderDetector interface {
	IsHeader(line string) bool
}

// Assembler joins physical lines into logical records. A record starts at a
// header line; continuation lines such as stack traces are appended until
// the next header or until the record reaches maxLines.
type Assembler struct {
	headers  HeaderDetector
	maxLines int
}

// NewAssembler returns an Assembler. A non-positive maxLines selects DefaultMaxLines.
func NewAssembler(h HeaderDetector, maxLines int) *Assembler {
	if maxLines <= 0 {
		maxLines = DefaultMaxLines
	}
	return &Assembler{headers: h, maxLines: maxLines}
}

// Records calls fn with each newline-joined logical record read from r until
// fn returns false or the input ends.
//
// Lines seen before the first header are held aside: they are dropped when a
// header arrives, and emitted as a record of their own only when they fill
// the line cap or the input ends without any header.
func (a *Assembler) Records(r io.Reader, fn func(record string) bool) error {
	var (
		buf      []string
		headless = true
		stopped  bool
	)

	flush := func() {
		if len(buf) == 0 {
			return
		}
		if !fn(strings.Join(buf, "\n")) {
			stopped = true
		}
		buf = buf[:0]
	}

	err := Lines(r, func(line string) bool {
		switch {
		case a.headers.IsHeader(line):
			if headless {
				buf = buf[:0]
				headless = false
			} else {
				flush()
			}
			buf = append(buf, line)
		case len(buf) >= a.maxLines:
			flush()
			buf = append(buf, line)
		default:
			buf = append(buf, line)
		}
		return !stopped
	})
	if err != nil {
		return err
	}
	if !stopped {
		flush()
	}
	return nil
}
