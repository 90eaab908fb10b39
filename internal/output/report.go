package output

import (
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/x/ansi"

	"github.com/dataoneorg/d1logdigest/internal/aggregator"
	"github.com/dataoneorg/d1logdigest/internal/model"
)

// DefaultWidth is the wrap width of message bodies.
const DefaultWidth = 120

const (
	timeLayout   = "2006-01-02 15:04:05"
	headerLayout = time.RFC3339
	bodyIndent   = "    "
)

// Report is a rendered digest.
type Report struct {
	Generated  time.Time
	Regex      string
	Window     model.Window
	MaxPerType int
	Stats      aggregator.Stats
	Records    []model.LogRecord
}

// SortNewestFirst orders records by timestamp, newest first. Ties keep their
// relative order.
func SortNewestFirst(records []model.LogRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp.After(records[j].Timestamp)
	})
}

// TextFormatter renders a Report as fixed-width plain text.
type TextFormatter struct {
	Width int
}

// NewTextFormatter returns a formatter wrapping messages at width columns.
func NewTextFormatter(width int) *TextFormatter {
	if width <= 0 {
		width = DefaultWidth
	}
	return &TextFormatter{Width: width}
}

// Format writes the report header followed by one block per record.
func (f *TextFormatter) Format(w io.Writer, r Report) error {
	var b strings.Builder
	rule := strings.Repeat("=", f.Width)
	sep := strings.Repeat("-", f.Width)

	fmt.Fprintln(&b, rule)
	fmt.Fprintf(&b, "Log digest generated %s\n", r.Generated.UTC().Format(headerLayout))
	fmt.Fprintf(&b, "%-14s %s\n", "Regex:", r.Regex)
	fmt.Fprintf(&b, "%-14s %s\n", "Elapsed:", r.Stats.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(&b, "%-14s %s\n", "From:", bound(r.Window.From))
	fmt.Fprintf(&b, "%-14s %s\n", "To:", bound(r.Window.To))
	fmt.Fprintf(&b, "%-14s %d eligible of %d located\n", "Files:", r.Stats.FilesEligible, r.Stats.FilesLocated)
	fmt.Fprintf(&b, "%-14s %d\n", "Log types:", len(r.Stats.Types))
	fmt.Fprintf(&b, "%-14s %d\n", "Max per type:", r.MaxPerType)
	fmt.Fprintf(&b, "%-14s %d\n", "Records:", len(r.Records))

	if len(r.Stats.Types) > 0 {
		fmt.Fprintln(&b)
		for _, ts := range r.Stats.Types {
			fmt.Fprintf(&b, "  %-40s files %3d  matched %5d  kept %3d  truncated %5d  similar %3d\n",
				ts.Type, ts.Files, ts.Matched, ts.Kept, ts.Truncated, ts.Similar)
		}
	}
	fmt.Fprintln(&b, rule)

	for _, rec := range r.Records {
		fmt.Fprintln(&b, f.recordHeader(rec, r.Generated))
		for _, line := range f.wrap(rec.Message) {
			fmt.Fprintln(&b, line)
		}
		fmt.Fprintln(&b, sep)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func (f *TextFormatter) recordHeader(rec model.LogRecord, now time.Time) string {
	h := fmt.Sprintf("%s  %s  %s  %s",
		FormatAge(rec.Age(now)),
		rec.Timestamp.UTC().Format(timeLayout),
		rec.Source,
		rec.Level)
	if rec.SimilarCount > 0 {
		h += fmt.Sprintf("  (+%d similar)", rec.SimilarCount)
	}
	return h
}

// wrap word-wraps each message line, indenting continuation lines to the
// line's own leading whitespace.
func (f *TextFormatter) wrap(message string) []string {
	var out []string
	for _, line := range strings.Split(message, "\n") {
		body := strings.TrimLeft(line, " \t")
		indent := strings.ReplaceAll(line[:len(line)-len(body)], "\t", "    ")
		prefix := bodyIndent + indent

		limit := f.Width - len(prefix)
		if limit < 20 {
			limit = 20
		}
		if body == "" {
			out = append(out, strings.TrimRight(prefix, " "))
			continue
		}
		for _, part := range strings.Split(ansi.Wrap(body, limit, ""), "\n") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, prefix+part)
			}
		}
	}
	return out
}

// FormatAge renders a duration as days, hours and minutes.
func FormatAge(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	days := int(d / (24 * time.Hour))
	d -= time.Duration(days) * 24 * time.Hour
	hours := int(d / time.Hour)
	d -= time.Duration(hours) * time.Hour
	mins := int(d / time.Minute)
	return fmt.Sprintf("%3dd %02dh %02dm", days, hours, mins)
}

func bound(t *time.Time) string {
	if t == nil {
		return "unbounded"
	}
	return t.UTC().Format(headerLayout)
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Filename returns the digest file name for a generation time and regex.
func Filename(generated time.Time, regex string) string {
	return fmt.Sprintf("%s_%s.logdigest.txt", generated.UTC().Format("2006-01-02T15:04:05"), Sanitize(regex))
}

// Sanitize reduces a regex to characters safe in a file name.
func Sanitize(regex string) string {
	s := strings.Trim(unsafeChars.ReplaceAllString(regex, "_"), "_.")
	if len(s) > 64 {
		s = s[:64]
	}
	if s == "" {
		return "all"
	}
	return s
}
