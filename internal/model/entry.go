package model

import "time"

// LogRecord is one logical log entry, possibly spanning several physical lines.
type LogRecord struct {
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`  // log type the record came from
	Level     string    `json:"level"`   // lower-cased severity token
	Message   string    `json:"message"` // newline-joined body without the header

	SimilarCount     int  `json:"similar,omitempty"`
	CountedAsSimilar bool `json:"-"`
}

// Age returns how long before now the record was written.
func (r LogRecord) Age(now time.Time) time.Duration {
	return now.Sub(r.Timestamp)
}
