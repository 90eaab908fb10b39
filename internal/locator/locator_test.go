package locator

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestDescribe(t *testing.T) {
	tests := []struct {
		name       string
		ok         bool
		typ        string
		rotation   int
		compressed bool
	}{
		{"cn.log", true, "cn.log", 0, false},
		{"cn.log.3", true, "cn.log", 3, false},
		{"cn.log.12.gz", true, "cn.log", 12, true},
		{"cn.log.gz", true, "cn.log", 0, true},
		{"catalina.err.1", true, "catalina.err", 1, false},
		{"d1-index-task.processor.log.2", true, "d1-index-task.processor.log", 2, false},
		{"notes.txt", false, "", 0, false},
		{"cn.log.old", false, "", 0, false},
		{"cn.logs", false, "", 0, false},
		{".log", false, "", 0, false},
	}

	for _, tt := range tests {
		lf, ok := Describe(filepath.Join("/var/log/dataone", tt.name))
		if ok != tt.ok {
			t.Errorf("%s: expected ok=%v, got %v", tt.name, tt.ok, ok)
			continue
		}
		if !ok {
			continue
		}
		if lf.Type != tt.typ || lf.Rotation != tt.rotation || lf.Compressed != tt.compressed {
			t.Errorf("%s: got %+v", tt.name, lf)
		}
	}
}

func TestFindWalksDirectoriesAndGlobs(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "tomcat")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{
		filepath.Join(dir, "cn.log"),
		filepath.Join(dir, "cn.log.1.gz"),
		filepath.Join(dir, "README"),
		filepath.Join(sub, "catalina.err"),
	} {
		if err := os.WriteFile(name, []byte("x\n"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	l := New(zerolog.Nop())

	files := l.Find([]string{dir})
	if len(files) != 3 {
		t.Fatalf("expected 3 files, got %d: %+v", len(files), files)
	}

	// Overlapping roots must not duplicate files.
	files = l.Find([]string{dir, filepath.Join(dir, "*.log*")})
	if len(files) != 3 {
		t.Fatalf("expected 3 files with overlapping roots, got %d", len(files))
	}

	files = l.Find([]string{filepath.Join(dir, "**", "*.err")})
	if len(files) != 1 || files[0].Type != "catalina.err" {
		t.Fatalf("unexpected glob result: %+v", files)
	}
}

func TestFindDirectoryWithMetaInName(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs[1]")
	if err := os.MkdirAll(filepath.Join(dir, "solr"), 0755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{
		filepath.Join(dir, "cn.log"),
		filepath.Join(dir, "solr", "solr.log.2"),
	} {
		if err := os.WriteFile(name, []byte("x\n"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	files := New(zerolog.Nop()).Find([]string{dir})
	if len(files) != 2 {
		t.Fatalf("expected 2 files, got %d: %+v", len(files), files)
	}
	for _, lf := range files {
		if !strings.HasPrefix(lf.Path, dir+string(filepath.Separator)) {
			t.Errorf("path %q is not below %q", lf.Path, dir)
		}
	}
}

func TestFindMissingRoot(t *testing.T) {
	var buf bytes.Buffer
	missing := filepath.Join(t.TempDir(), "missing")

	files := New(zerolog.New(&buf)).Find([]string{missing})
	if len(files) != 0 {
		t.Fatalf("expected no files, got %+v", files)
	}
	out := buf.String()
	if !strings.Contains(out, `"level":"warn"`) || !strings.Contains(out, missing) {
		t.Fatalf("expected a warning naming the missing root, got %q", out)
	}
}

func TestFindUnmatchedGlobIsQuiet(t *testing.T) {
	var buf bytes.Buffer
	files := New(zerolog.New(&buf)).Find([]string{filepath.Join(t.TempDir(), "*.log")})
	if len(files) != 0 {
		t.Fatalf("expected no files, got %+v", files)
	}
	if strings.Contains(buf.String(), `"level":"warn"`) {
		t.Fatalf("unexpected warning: %q", buf.String())
	}
}
