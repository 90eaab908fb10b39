package aggregator

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/dataoneorg/d1logdigest/internal/model"
)

var start = time.Date(2026, 2, 17, 12, 0, 0, 0, time.UTC)

func sampleStats() Stats {
	a := New(start)
	a.Located(5)
	a.Eligible(3)
	a.Type("cn.log", 2, 30, 5)
	a.Type("db.err", 1, 1, 0)
	a.Record(model.LogRecord{Source: "cn.log", Level: "error"})
	a.Record(model.LogRecord{Source: "cn.log", Level: "error", CountedAsSimilar: true})
	a.Record(model.LogRecord{Source: "cn.log", Level: "warn"})
	a.Record(model.LogRecord{Source: "db.err", Level: "info"})
	return a.Snapshot(start.Add(1500 * time.Millisecond))
}

func TestSnapshot(t *testing.T) {
	s := sampleStats()

	if s.Elapsed != 1500*time.Millisecond {
		t.Errorf("expected 1.5s elapsed, got %v", s.Elapsed)
	}
	if s.FilesLocated != 5 || s.FilesEligible != 3 {
		t.Errorf("unexpected file counts: %+v", s)
	}
	if len(s.Types) != 2 || s.Types[0].Type != "cn.log" {
		t.Fatalf("unexpected types: %+v", s.Types)
	}

	cn := s.Types[0]
	if cn.Kept != 3 || cn.Similar != 1 || cn.Truncated != 5 || cn.Matched != 30 {
		t.Errorf("unexpected cn.log stats: %+v", cn)
	}
	if cn.Levels["error"] != 2 || cn.Levels["warn"] != 1 {
		t.Errorf("unexpected level counts: %v", cn.Levels)
	}
}

func TestRegistry(t *testing.T) {
	reg, err := Registry(sampleStats(), start)
	if err != nil {
		t.Fatal(err)
	}

	expected := `
# HELP d1logdigest_files Log files seen by the last digest run, by stage.
# TYPE d1logdigest_files gauge
d1logdigest_files{stage="eligible"} 3
d1logdigest_files{stage="located"} 5
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "d1logdigest_files"); err != nil {
		t.Error(err)
	}
}

func TestWriteTextfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "d1logdigest.prom")
	if err := WriteTextfile(path, sampleStats(), start); err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	out := string(raw)
	for _, want := range []string{
		`d1logdigest_records{outcome="truncated",type="cn.log"} 5`,
		`d1logdigest_kept_records_by_level{level="error",type="cn.log"} 2`,
		`d1logdigest_elapsed_seconds 1.5`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in textfile:\n%s", want, out)
		}
	}
}
