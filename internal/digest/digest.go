package digest

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"time"

	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"

	"github.com/dataoneorg/d1logdigest/internal/aggregator"
	"github.com/dataoneorg/d1logdigest/internal/eligibility"
	"github.com/dataoneorg/d1logdigest/internal/locator"
	"github.com/dataoneorg/d1logdigest/internal/model"
	"github.com/dataoneorg/d1logdigest/internal/output"
	"github.com/dataoneorg/d1logdigest/internal/parser"
	"github.com/dataoneorg/d1logdigest/internal/scanner"
	"github.com/dataoneorg/d1logdigest/internal/similarity"
)

// Options configures one digest run.
type Options struct {
	Regex       string
	Roots       []string
	OutputDir   string
	MaxRecord   float64 // hours before now; <= 0 leaves the lower bound open
	MinRecord   float64 // hours before now; <= 0 leaves the upper bound open
	MaxLines    int
	MaxPerType  int
	Width       int
	Workers     int
	Similar     bool
	Similarity  float64
	JSON        bool
	MetricsFile string

	// Progress receives a progress bar while files are scanned; nil disables it.
	Progress io.Writer
	// Now overrides the clock.
	Now func() time.Time
}

// Result describes the files written by a run.
type Result struct {
	Report      output.Report
	Path        string
	JSONPath    string
	MetricsPath string
}

// Run executes the digest pipeline: locate, filter eligible files, scan them
// in parallel, cap, group similar records, sort and write the report.
// Per-file problems are logged and skipped; only configuration errors,
// output errors and cancellation are returned.
func Run(ctx context.Context, opts Options, log zerolog.Logger) (*Result, error) {
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	started := now()

	pattern, err := regexp.Compile(opts.Regex)
	if err != nil {
		return nil, fmt.Errorf("invalid regex %q: %w", opts.Regex, err)
	}
	window, err := model.WindowFromHours(started, opts.MaxRecord, opts.MinRecord)
	if err != nil {
		return nil, err
	}

	agg := aggregator.New(started)
	p := parser.New()

	// Locate.
	files := locator.New(log).Find(opts.Roots)
	agg.Located(len(files))

	// Eligibility is checked serially before any work is dispatched.
	filter := eligibility.New(p, opts.MaxLines, log)
	var eligible []model.LogFile
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if filter.Eligible(f, window) {
			eligible = append(eligible, f)
		}
	}
	fam := model.Group(eligible)
	agg.Eligible(fam.Files())
	log.Info().Int("located", len(files)).Int("eligible", fam.Files()).Int("types", len(fam)).Msg("selected log files")

	// Scan.
	var progress scanner.Progress
	if opts.Progress != nil && len(eligible) > 0 {
		progress = newProgressBar(opts.Progress, len(eligible))
	}
	sc := scanner.New(p, scanner.Options{
		Window:     window,
		Pattern:    pattern,
		MaxLines:   opts.MaxLines,
		MaxPerType: opts.MaxPerType,
		Workers:    opts.Workers,
	}, progress, log)

	results, err := sc.Scan(ctx, fam)
	if err != nil {
		return nil, err
	}

	// Merge, group and sort.
	var records []model.LogRecord
	for _, res := range results {
		agg.Type(res.Type, res.Files, res.Matched, res.Truncated)

		recs := res.Records
		output.SortNewestFirst(recs)
		if opts.Similar {
			similarity.Group(recs, opts.Similarity)
		}
		for _, r := range recs {
			agg.Record(r)
		}
		records = append(records, similarity.Visible(recs)...)
	}
	output.SortNewestFirst(records)

	generated := now()
	report := output.Report{
		Generated:  generated,
		Regex:      opts.Regex,
		Window:     window,
		MaxPerType: maxPerType(opts.MaxPerType),
		Stats:      agg.Snapshot(generated),
		Records:    records,
	}

	path, body, err := output.WriteText(opts.OutputDir, report, output.NewTextFormatter(opts.Width))
	if err != nil {
		return nil, fmt.Errorf("write digest: %w", err)
	}
	log.Debug().Msg("digest contents:\n" + string(body))

	res := &Result{Report: report, Path: path}
	if opts.JSON {
		if res.JSONPath, err = output.WriteJSON(path, records); err != nil {
			return nil, fmt.Errorf("write json sidecar: %w", err)
		}
	}
	if opts.MetricsFile != "" {
		if err := aggregator.WriteTextfile(opts.MetricsFile, report.Stats, generated); err != nil {
			return nil, fmt.Errorf("write metrics: %w", err)
		}
		res.MetricsPath = opts.MetricsFile
	}

	log.Info().
		Str("path", path).
		Int("records", len(records)).
		Dur("elapsed", report.Stats.Elapsed).
		Msg("digest written")
	return res, nil
}

func maxPerType(n int) int {
	if n <= 0 {
		return scanner.DefaultMaxPerType
	}
	return n
}

func newProgressBar(w io.Writer, n int) *progressbar.ProgressBar {
	return progressbar.NewOptions(n,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("scanning log files"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}
