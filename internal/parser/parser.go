package parser

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/dataoneorg/d1logdigest/internal/model"
)

// ErrUnrecognized is returned when a record matches none of the known header formats.
var ErrUnrecognized = errors.New("unrecognized log header")

// Parser converts logical records into structured LogRecords and recognizes
// the header lines that start them. HeaderParser is the only implementation.
type Parser interface {
	Parse(record string, source string) (model.LogRecord, error)
	IsHeader(line string) bool
	Timestamp(line string) (time.Time, bool)
}

var _ Parser = (*HeaderParser)(nil)

// ---------------------------------------------------------------------------
// Header formats
// ---------------------------------------------------------------------------

// Format describes one recognized header layout.
// The pattern must expose "ts" and "msg" groups and may expose "level".
type Format struct {
	Name         string
	re           *regexp.Regexp
	layout       string
	defaultLevel string
}

func newFormat(name, pattern, layout, defaultLevel string) *Format {
	return &Format{
		Name:         name,
		re:           regexp.MustCompile(pattern),
		layout:       layout,
		defaultLevel: defaultLevel,
	}
}

// match returns the parsed record or false when the header does not apply.
func (f *Format) match(record, source string) (model.LogRecord, bool) {
	m := f.re.FindStringSubmatch(record)
	if m == nil {
		return model.LogRecord{}, false
	}

	var ts, level, msg string
	for i, name := range f.re.SubexpNames() {
		switch name {
		case "ts":
			ts = m[i]
		case "level":
			level = m[i]
		case "msg":
			msg = m[i]
		}
	}

	t, err := time.ParseInLocation(f.layout, ts, time.UTC)
	if err != nil {
		return model.LogRecord{}, false
	}

	if level == "" {
		level = f.defaultLevel
	}

	return model.LogRecord{
		Timestamp: t,
		Source:    source,
		Level:     normalizeLevel(level),
		Message:   msg,
	}, true
}

// Formats are tried in this order; the first match wins.
var Formats = []*Format{
	// [ ERROR] 2023-01-01 00:00:00,000 message
	newFormat("bracketed",
		`(?s)^\[\s*(?P<level>[^\]]+?)\s*\]\s+(?P<ts>\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2},\d{3})\s?(?P<msg>.*)$`,
		"2006-01-02 15:04:05,000", ""),
	// 2023-01-01 00:00:00 UTC: message
	newFormat("utc",
		`(?s)^(?P<ts>\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}) UTC:\s?(?P<msg>.*)$`,
		"2006-01-02 15:04:05", "debug"),
	// metacat 20230101-00:00:00: [ERROR]: message
	newFormat("metacat-compact",
		`(?s)^\S+ (?P<ts>\d{8}-\d{2}:\d{2}:\d{2}): \[\s*(?P<level>[^\]]+?)\s*\]:\s?(?P<msg>.*)$`,
		"20060102-15:04:05", ""),
	// metacat 2023-01-01T00:00:00: [ERROR]: message
	newFormat("metacat-iso",
		`(?s)^\S+ (?P<ts>\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}): \[\s*(?P<level>[^\]]+?)\s*\]:\s?(?P<msg>.*)$`,
		"2006-01-02T15:04:05", ""),
}

// ---------------------------------------------------------------------------
// Header parser
// ---------------------------------------------------------------------------

// HeaderParser tries each known header format in order.
type HeaderParser struct {
	formats []*Format
}

// New returns a HeaderParser over the default format list.
func New() *HeaderParser {
	return &HeaderParser{formats: Formats}
}

// Parse extracts the header fields of a logical record. Only the first line
// is examined for the header; the remaining lines become part of the message.
func (p *HeaderParser) Parse(record string, source string) (model.LogRecord, error) {
	for _, f := range p.formats {
		if rec, ok := f.match(record, source); ok {
			return rec, nil
		}
	}
	return model.LogRecord{}, ErrUnrecognized
}

// IsHeader reports whether a physical line starts a new logical record.
func (p *HeaderParser) IsHeader(line string) bool {
	for _, f := range p.formats {
		if _, ok := f.match(line, ""); ok {
			return true
		}
	}
	return false
}

// Timestamp returns the header timestamp of a single line, if any.
func (p *HeaderParser) Timestamp(line string) (time.Time, bool) {
	rec, err := p.Parse(line, "")
	if err != nil {
		return time.Time{}, false
	}
	return rec.Timestamp, true
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// normalizeLevel lower-cases the free-text severity token.
func normalizeLevel(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
