package aggregator

import (
	"fmt"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dataoneorg/d1logdigest/internal/model"
)

// TypeStats summarizes one log type in a digest run.
type TypeStats struct {
	Type      string         `json:"type"`
	Files     int            `json:"files"`
	Matched   int            `json:"matched"`
	Kept      int            `json:"kept"`
	Truncated int            `json:"truncated"`
	Similar   int            `json:"similar"`
	Levels    map[string]int `json:"levels"`
}

// Stats holds the totals of a digest run.
type Stats struct {
	Elapsed       time.Duration `json:"elapsed"`
	FilesLocated  int           `json:"files_located"`
	FilesEligible int           `json:"files_eligible"`
	Types         []TypeStats   `json:"types"`
}

// Aggregator accumulates per-type counts while a digest is assembled.
type Aggregator struct {
	start  time.Time
	stats  Stats
	byType map[string]*TypeStats
}

// New starts an Aggregator clock at the given time.
func New(start time.Time) *Aggregator {
	return &Aggregator{
		start:  start,
		byType: make(map[string]*TypeStats),
	}
}

// Located records the number of files found by the locator.
func (a *Aggregator) Located(n int) { a.stats.FilesLocated = n }

// Eligible records the number of files that passed the eligibility filter.
func (a *Aggregator) Eligible(n int) { a.stats.FilesEligible = n }

// Type records the scan outcome for one log type.
func (a *Aggregator) Type(typ string, files, matched, truncated int) {
	ts := a.get(typ)
	ts.Files = files
	ts.Matched = matched
	ts.Truncated = truncated
}

// Record counts one kept record.
func (a *Aggregator) Record(r model.LogRecord) {
	ts := a.get(r.Source)
	ts.Kept++
	ts.Levels[r.Level]++
	if r.CountedAsSimilar {
		ts.Similar++
	}
}

func (a *Aggregator) get(typ string) *TypeStats {
	ts, ok := a.byType[typ]
	if !ok {
		ts = &TypeStats{Type: typ, Levels: make(map[string]int)}
		a.byType[typ] = ts
	}
	return ts
}

// Snapshot returns the totals with types sorted by name.
func (a *Aggregator) Snapshot(now time.Time) Stats {
	s := a.stats
	s.Elapsed = now.Sub(a.start)
	s.Types = make([]TypeStats, 0, len(a.byType))
	for _, ts := range a.byType {
		cp := *ts
		cp.Levels = make(map[string]int, len(ts.Levels))
		for k, v := range ts.Levels {
			cp.Levels[k] = v
		}
		s.Types = append(s.Types, cp)
	}
	sort.Slice(s.Types, func(i, j int) bool { return s.Types[i].Type < s.Types[j].Type })
	return s
}

// Registry builds a Prometheus registry describing a snapshot.
func Registry(s Stats, generated time.Time) (*prometheus.Registry, error) {
	reg := prometheus.NewRegistry()

	elapsed := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "d1logdigest",
		Name:      "elapsed_seconds",
		Help:      "Wall time of the last digest run.",
	})
	lastRun := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "d1logdigest",
		Name:      "last_run_timestamp_seconds",
		Help:      "Unix time the last digest was generated.",
	})
	files := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "d1logdigest",
		Name:      "files",
		Help:      "Log files seen by the last digest run, by stage.",
	}, []string{"stage"})
	records := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "d1logdigest",
		Name:      "records",
		Help:      "Records in the last digest run, by log type and outcome.",
	}, []string{"type", "outcome"})
	levels := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "d1logdigest",
		Name:      "kept_records_by_level",
		Help:      "Records kept in the last digest run, by log type and level.",
	}, []string{"type", "level"})

	for _, c := range []prometheus.Collector{elapsed, lastRun, files, records, levels} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register collector: %w", err)
		}
	}

	elapsed.Set(s.Elapsed.Seconds())
	lastRun.Set(float64(generated.Unix()))
	files.WithLabelValues("located").Set(float64(s.FilesLocated))
	files.WithLabelValues("eligible").Set(float64(s.FilesEligible))
	for _, ts := range s.Types {
		records.WithLabelValues(ts.Type, "matched").Set(float64(ts.Matched))
		records.WithLabelValues(ts.Type, "kept").Set(float64(ts.Kept))
		records.WithLabelValues(ts.Type, "truncated").Set(float64(ts.Truncated))
		records.WithLabelValues(ts.Type, "similar").Set(float64(ts.Similar))
		for lvl, n := range ts.Levels {
			levels.WithLabelValues(ts.Type, lvl).Set(float64(n))
		}
	}
	return reg, nil
}

// WriteTextfile writes a snapshot in the node_exporter textfile format.
func WriteTextfile(path string, s Stats, generated time.Time) error {
	reg, err := Registry(s, generated)
	if err != nil {
		return err
	}
	return prometheus.WriteToTextfile(path, reg)
}
