package scanner

import (
	"context"
	"regexp"
	"runtime"
	"sync"

	"github.com/rs/zerolog"

	"github.com/dataoneorg/d1logdigest/internal/logfile"
	"github.com/dataoneorg/d1logdigest/internal/model"
	"github.com/dataoneorg/d1logdigest/internal/parser"
)

// DefaultMaxPerType is the number of records kept per log type.
const DefaultMaxPerType = 25

// Options controls record selection.
type Options struct {
	Window     model.Window
	Pattern    *regexp.Regexp // matched against the message body only
	MaxLines   int
	MaxPerType int
	Workers    int // defaults to the number of CPUs
}

// Progress receives one tick per scanned file.
type Progress interface {
	Add(n int) error
}

// TypeResult holds the records selected for one log type.
type TypeResult struct {
	Type      string
	Files     int
	Matched   int
	Truncated int
	Records   []model.LogRecord
}

// Scanner extracts matching records from log files using a fixed worker pool.
type Scanner struct {
	parser   parser.Parser
	opts     Options
	progress Progress
	log      zerolog.Logger
}

// New creates a Scanner. progress may be nil.
func New(p parser.Parser, opts Options, progress Progress, log zerolog.Logger) *Scanner {
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.MaxPerType <= 0 {
		opts.MaxPerType = DefaultMaxPerType
	}
	return &Scanner{
		parser:   p,
		opts:     opts,
		progress: progress,
		log:      log.With().Str("component", "scanner").Logger(),
	}
}

// job is one file; its result lands in slot idx so workers never share state.
type job struct {
	idx  int
	file model.LogFile
}

// Scan processes every file of every family and returns one result per type
// in sorted type order. It blocks until all files are done or ctx is cancelled.
func (s *Scanner) Scan(ctx context.Context, fam model.Families) ([]TypeResult, error) {
	types := fam.Types()

	var jobs []job
	for _, t := range types {
		for _, f := range fam[t] {
			jobs = append(jobs, job{idx: len(jobs), file: f})
		}
	}

	slots := make([][]model.LogRecord, len(jobs))
	queue := make(chan job)

	var wg sync.WaitGroup
	for w := 0; w < s.opts.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range queue {
				slots[j.idx] = s.scanFile(ctx, j.file)
				if s.progress != nil {
					_ = s.progress.Add(1)
				}
			}
		}()
	}

dispatch:
	for _, j := range jobs {
		select {
		case <-ctx.Done():
			break dispatch
		case queue <- j:
		}
	}
	close(queue)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Merge in family order, then cap.
	results := make([]TypeResult, 0, len(types))
	next := 0
	for _, t := range types {
		res := TypeResult{Type: t, Files: len(fam[t])}
		for range fam[t] {
			res.Records = append(res.Records, slots[next]...)
			next++
		}
		res.Matched = len(res.Records)
		if res.Matched > s.opts.MaxPerType {
			res.Truncated = res.Matched - s.opts.MaxPerType
			res.Records = res.Records[res.Truncated:]
			s.log.Info().
				Str("type", t).
				Int("matched", res.Matched).
				Int("kept", s.opts.MaxPerType).
				Msg("truncated records for log type")
		}
		results = append(results, res)
	}
	return results, nil
}

// scanFile assembles, parses and filters the records of one file. Failures
// are logged and yield whatever was collected so far.
func (s *Scanner) scanFile(ctx context.Context, lf model.LogFile) []model.LogRecord {
	log := s.log.With().Str("file", lf.Path).Logger()

	rd, err := logfile.Open(lf)
	if err != nil {
		log.Info().Err(err).Msg("skipping unreadable file")
		return nil
	}
	defer rd.Close()

	var (
		out      []model.LogRecord
		rejected int
	)
	err = logfile.NewAssembler(s.parser, s.opts.MaxLines).Records(rd, func(text string) bool {
		if ctx.Err() != nil {
			return false
		}
		rec, err := s.parser.Parse(text, lf.Type)
		if err != nil {
			rejected++
			return true
		}
		if !s.opts.Window.Contains(rec.Timestamp) {
			return true
		}
		if s.opts.Pattern != nil && s.opts.Pattern.FindStringIndex(rec.Message) == nil {
			return true
		}
		out = append(out, rec)
		return true
	})
	if err != nil {
		log.Info().Err(err).Msg("read error")
	}

	log.Debug().Int("matched", len(out)).Int("unparsed", rejected).Msg("scanned file")
	return out
}
