package eligibility

import (
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/dataoneorg/d1logdigest/internal/logfile"
	"github.com/dataoneorg/d1logdigest/internal/model"
	"github.com/dataoneorg/d1logdigest/internal/parser"
)

// SampleLimit bounds how many records are read from the head and how many
// lines from the tail of a file while sampling timestamps.
const SampleLimit = 100

var errNoTimestamp = errors.New("no parseable timestamp")

// Span is the timestamp range observed at a file's head and tail. Last is
// zero when no timestamp was found near the tail, as happens when a long
// stack trace ends the file.
type Span struct {
	First time.Time
	Last  time.Time
}

// Filter decides whether a file may contain records inside a time window.
type Filter struct {
	parser   parser.Parser
	maxLines int
	log      zerolog.Logger
}

// New creates a Filter. maxLines is the per-record line cap used while
// assembling head records.
func New(p parser.Parser, maxLines int, log zerolog.Logger) *Filter {
	return &Filter{
		parser:   p,
		maxLines: maxLines,
		log:      log.With().Str("component", "eligibility").Logger(),
	}
}

// Eligible reports whether lf should be scanned for w. Files that cannot be
// opened or hold no recognizable timestamp near the head are excluded.
func (f *Filter) Eligible(lf model.LogFile, w model.Window) bool {
	log := f.log.With().Str("file", lf.Path).Logger()

	span, err := f.Sample(lf)
	if err != nil {
		if errors.Is(err, errNoTimestamp) {
			log.Debug().Int("limit", SampleLimit).Msg("no parseable record near file head")
		} else {
			log.Info().Err(err).Msg("skipping unreadable file")
		}
		return false
	}

	ok := span.Overlaps(w)
	log.Debug().
		Time("first", span.First).
		Time("last", span.Last).
		Bool("eligible", ok).
		Msg("sampled file")
	return ok
}

// Sample reads the first parseable timestamp from the head of the file and
// the last one from its tail. Last stays zero when the tail yields nothing.
func (f *Filter) Sample(lf model.LogFile) (Span, error) {
	first, err := f.head(lf)
	if err != nil {
		return Span{}, err
	}

	span := Span{First: first}

	tail, err := logfile.TailLines(lf, SampleLimit)
	if err != nil {
		return Span{}, err
	}
	for _, line := range tail {
		if ts, ok := f.parser.Timestamp(line); ok {
			span.Last = ts
			break
		}
	}
	return span, nil
}

func (f *Filter) head(lf model.LogFile) (time.Time, error) {
	rd, err := logfile.Open(lf)
	if err != nil {
		return time.Time{}, err
	}
	defer rd.Close()

	var (
		first time.Time
		found bool
		seen  int
	)
	err = logfile.NewAssembler(f.parser, f.maxLines).Records(rd, func(rec string) bool {
		seen++
		if r, err := f.parser.Parse(rec, lf.Type); err == nil {
			first = r.Timestamp
			found = true
			return false
		}
		return seen < SampleLimit
	})
	if err != nil {
		return time.Time{}, err
	}
	if !found {
		return time.Time{}, errNoTimestamp
	}
	return first, nil
}

// Overlaps applies the bound tests. The lower bound passes when the file
// starts or ends at or after it, or when its end is unknown; the upper bound
// passes when the file starts at or before it. An unset bound always passes.
func (s Span) Overlaps(w model.Window) bool {
	if w.From != nil && s.First.Before(*w.From) && !s.Last.IsZero() && s.Last.Before(*w.From) {
		return false
	}
	if w.To != nil && s.First.After(*w.To) {
		return false
	}
	return true
}
