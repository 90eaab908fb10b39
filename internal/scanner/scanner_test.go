package scanner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dataoneorg/d1logdigest/internal/model"
	"github.com/dataoneorg/d1logdigest/internal/parser"
)

var base = time.Date(2026, 2, 17, 12, 0, 0, 0, time.UTC)

type counter struct{ n atomic.Int64 }

func (c *counter) Add(n int) error {
	c.n.Add(int64(n))
	return nil
}

func line(level string, t time.Time, msg string) string {
	return fmt.Sprintf("[%s] %s %s", level, t.Format("2006-01-02 15:04:05,000"), msg)
}

func writeFile(t *testing.T, dir, name, typ string, rotation int, lines ...string) model.LogFile {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0644))
	return model.LogFile{Path: path, Type: typ, Rotation: rotation}
}

func TestScanFiltersWindowAndPattern(t *testing.T) {
	dir := t.TempDir()
	lf := writeFile(t, dir, "app.log", "app.log", 0,
		line("ERROR", base.Add(-3*time.Hour), "timeout talking to cn"),
		line("ERROR", base.Add(-30*time.Minute), "timeout talking to mn"),
		line("INFO", base.Add(-20*time.Minute), "all good"),
		line("WARN", base.Add(-10*time.Minute), "retry after timeout"),
		"\tat Frame.call(Frame.java:7)",
	)

	from := base.Add(-time.Hour)
	w, err := model.NewWindow(&from, nil)
	require.NoError(t, err)

	progress := &counter{}
	s := New(parser.New(), Options{
		Window:  w,
		Pattern: regexp.MustCompile(`timeout`),
		Workers: 2,
	}, progress, zerolog.Nop())

	results, err := s.Scan(context.Background(), model.Group([]model.LogFile{lf}))
	require.NoError(t, err)
	require.Len(t, results, 1)

	res := results[0]
	assert.Equal(t, "app.log", res.Type)
	require.Len(t, res.Records, 2)
	for _, r := range res.Records {
		assert.True(t, w.Contains(r.Timestamp))
		assert.Contains(t, r.Message, "timeout")
	}
	assert.Equal(t, "warn", res.Records[1].Level)
	assert.Equal(t, "retry after timeout\n\tat Frame.call(Frame.java:7)", res.Records[1].Message)
	assert.EqualValues(t, 1, progress.n.Load())
}

func TestScanPatternIgnoresHeader(t *testing.T) {
	dir := t.TempDir()
	lf := writeFile(t, dir, "app.log", "app.log", 0, line("ERROR", base, "boom"))

	s := New(parser.New(), Options{Pattern: regexp.MustCompile(`ERROR`)}, nil, zerolog.Nop())
	results, err := s.Scan(context.Background(), model.Group([]model.LogFile{lf}))
	require.NoError(t, err)
	assert.Empty(t, results[0].Records)
}

func TestScanCapsPerTypeKeepingLastAppended(t *testing.T) {
	dir := t.TempDir()

	var older, newer []string
	for i := 0; i < 10; i++ {
		older = append(older, line("INFO", base.Add(time.Duration(i)*time.Minute), fmt.Sprintf("old %d", i)))
		newer = append(newer, line("INFO", base.Add(time.Hour+time.Duration(i)*time.Minute), fmt.Sprintf("new %d", i)))
	}
	files := []model.LogFile{
		writeFile(t, dir, "app.log", "app.log", 0, newer...),
		writeFile(t, dir, "app.log.1", "app.log", 1, older...),
		writeFile(t, dir, "db.log", "db.log", 0, line("INFO", base, "only one")),
	}

	s := New(parser.New(), Options{MaxPerType: 4, Workers: 3}, nil, zerolog.Nop())
	results, err := s.Scan(context.Background(), model.Group(files))
	require.NoError(t, err)
	require.Len(t, results, 2)

	app := results[0]
	assert.Equal(t, 20, app.Matched)
	assert.Equal(t, 16, app.Truncated)
	require.Len(t, app.Records, 4)
	for i, r := range app.Records {
		assert.Equal(t, fmt.Sprintf("new %d", 6+i), r.Message)
	}

	db := results[1]
	assert.Equal(t, "db.log", db.Type)
	assert.Len(t, db.Records, 1)
	assert.Zero(t, db.Truncated)
}

func TestScanSkipsUnreadableFile(t *testing.T) {
	dir := t.TempDir()
	files := []model.LogFile{
		{Path: filepath.Join(dir, "missing.log"), Type: "missing.log"},
		writeFile(t, dir, "ok.log", "ok.log", 0, line("INFO", base, "fine")),
	}

	s := New(parser.New(), Options{}, nil, zerolog.Nop())
	results, err := s.Scan(context.Background(), model.Group(files))
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Empty(t, results[0].Records)
	assert.Len(t, results[1].Records, 1)
}

func TestScanCancelled(t *testing.T) {
	dir := t.TempDir()
	lf := writeFile(t, dir, "app.log", "app.log", 0, line("INFO", base, "x"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := New(parser.New(), Options{}, nil, zerolog.Nop())
	_, err := s.Scan(ctx, model.Group([]model.LogFile{lf}))
	assert.ErrorIs(t, err, context.Canceled)
}

// levelOverride reports every record at a fixed level.
type levelOverride struct {
	parser.Parser
	level string
}

func (p levelOverride) Parse(record, source string) (model.LogRecord, error) {
	r, err := p.Parser.Parse(record, source)
	r.Level = p.level
	return r, err
}

func TestScanUsesSuppliedParser(t *testing.T) {
	dir := t.TempDir()
	lf := writeFile(t, dir, "app.log", "app.log", 0,
		line("INFO", base, "first"),
		"continued",
		line("WARN", base.Add(time.Minute), "second"),
	)

	s := New(levelOverride{Parser: parser.New(), level: "fatal"}, Options{}, nil, zerolog.Nop())
	results, err := s.Scan(context.Background(), model.Group([]model.LogFile{lf}))
	require.NoError(t, err)
	require.Len(t, results[0].Records, 2)
	for _, r := range results[0].Records {
		assert.Equal(t, "fatal", r.Level)
	}
	assert.Equal(t, "first\ncontinued", results[0].Records[0].Message)
}
