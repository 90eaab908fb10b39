package similarity

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/dataoneorg/d1logdigest/internal/model"
)

// DefaultThreshold is the ratio at or above which two messages count as similar.
const DefaultThreshold = 0.8

// Ratio returns the sequence-matcher similarity of a and b in [0, 1],
// computed over characters.
func Ratio(a, b string) float64 {
	if a == b {
		return 1
	}
	m := difflib.NewMatcher(chars(a), chars(b))
	return m.Ratio()
}

// Group collapses near-duplicate messages. records must be ordered newest
// first. Each record not yet absorbed is compared with every older record
// not yet absorbed; matches are marked CountedAsSimilar and counted on the
// newer anchor. The comparison is quadratic, so callers pass capped sets.
func Group(records []model.LogRecord, threshold float64) {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	for i := range records {
		if records[i].CountedAsSimilar {
			continue
		}
		for j := i + 1; j < len(records); j++ {
			if records[j].CountedAsSimilar {
				continue
			}
			if Ratio(records[i].Message, records[j].Message) >= threshold {
				records[j].CountedAsSimilar = true
				records[i].SimilarCount++
			}
		}
	}
}

// Visible returns the records not absorbed into a similar anchor.
func Visible(records []model.LogRecord) []model.LogRecord {
	out := make([]model.LogRecord, 0, len(records))
	for _, r := range records {
		if !r.CountedAsSimilar {
			out = append(out, r)
		}
	}
	return out
}

func chars(s string) []string {
	return strings.Split(s, "")
}
