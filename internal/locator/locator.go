package locator

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"

	"github.com/dataoneorg/d1logdigest/internal/model"
)

// namePattern matches <type>.(log|err)[.<N>][.gz].
var namePattern = regexp.MustCompile(`^(.+\.(?:log|err))(?:\.(\d+))?(\.gz)?$`)

// Locator finds log files below a set of roots.
type Locator struct {
	log zerolog.Logger
}

// New creates a Locator.
func New(log zerolog.Logger) *Locator {
	return &Locator{log: log.With().Str("component", "locator").Logger()}
}

// Find resolves each root to the log files beneath it. A root is either a
// directory, which is searched recursively, or a doublestar glob pattern such
// as /var/log/**/*.log*. Files whose names do not follow the log naming
// convention are skipped.
func (l *Locator) Find(roots []string) []model.LogFile {
	seen := make(map[string]bool)
	var files []model.LogFile

	for _, root := range roots {
		matches, err := expand(root)
		if err != nil {
			if os.IsNotExist(err) {
				l.log.Warn().Str("root", root).Msg("log root does not exist")
				continue
			}
			l.log.Warn().Err(err).Str("root", root).Msg("cannot expand log root")
			continue
		}
		for _, m := range matches {
			abs, err := filepath.Abs(m)
			if err != nil {
				abs = m
			}
			if seen[abs] {
				continue
			}
			seen[abs] = true

			lf, ok := Describe(abs)
			if !ok {
				continue
			}
			files = append(files, lf)
		}
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	l.log.Debug().Int("files", len(files)).Strs("roots", roots).Msg("located log files")
	return files
}

// Describe parses a file path into a LogFile. It reports false when the base
// name does not follow the log naming convention.
func Describe(path string) (model.LogFile, bool) {
	m := namePattern.FindStringSubmatch(filepath.Base(path))
	if m == nil {
		return model.LogFile{}, false
	}

	lf := model.LogFile{
		Path:       path,
		Type:       m[1],
		Compressed: m[3] != "",
	}
	if m[2] != "" {
		n, err := strconv.Atoi(m[2])
		if err != nil {
			return model.LogFile{}, false
		}
		lf.Rotation = n
	}
	return lf, true
}

// expand resolves a root to regular files. A directory is walked relative to
// itself so that metacharacters in its own name are taken literally.
func expand(root string) ([]string, error) {
	info, err := os.Stat(root)
	switch {
	case err == nil && info.IsDir():
		matches, err := doublestar.Glob(os.DirFS(root), "**/*",
			doublestar.WithFilesOnly(), doublestar.WithFailOnIOErrors())
		if err != nil {
			return nil, err
		}
		for i, m := range matches {
			matches[i] = filepath.Join(root, filepath.FromSlash(m))
		}
		return matches, nil
	case err != nil && os.IsNotExist(err) && !hasMeta(root):
		return nil, err
	case err != nil && !doublestar.ValidatePathPattern(root):
		return nil, err
	}
	return doublestar.FilepathGlob(root, doublestar.WithFilesOnly(), doublestar.WithFailOnIOErrors())
}

func hasMeta(path string) bool {
	return strings.ContainsAny(path, "*?[{\\")
}
