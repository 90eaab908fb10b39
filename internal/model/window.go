package model

import (
	"errors"
	"time"
)

// ErrInvertedWindow is returned when a window's lower bound is after its upper bound.
var ErrInvertedWindow = errors.New("time window lower bound is after upper bound")

// Window is a time range with optional bounds. A nil bound is unbounded.
type Window struct {
	From *time.Time
	To   *time.Time
}

// NewWindow validates and returns a window.
func NewWindow(from, to *time.Time) (Window, error) {
	if from != nil && to != nil && from.After(*to) {
		return Window{}, ErrInvertedWindow
	}
	return Window{From: from, To: to}, nil
}

// WindowFromHours derives a window from "hours before now" values. maxHours
// sets the lower bound and minHours the upper bound; a value <= 0 leaves the
// bound unset.
func WindowFromHours(now time.Time, maxHours, minHours float64) (Window, error) {
	var from, to *time.Time
	if maxHours > 0 {
		t := now.Add(-hours(maxHours))
		from = &t
	}
	if minHours > 0 {
		t := now.Add(-hours(minHours))
		to = &t
	}
	return NewWindow(from, to)
}

// Contains reports whether t lies inside the window, bounds inclusive.
func (w Window) Contains(t time.Time) bool {
	if w.From != nil && t.Before(*w.From) {
		return false
	}
	if w.To != nil && t.After(*w.To) {
		return false
	}
	return true
}

func hours(h float64) time.Duration {
	return time.Duration(h * float64(time.Hour))
}
