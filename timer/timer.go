// Package timer drives an external speedrun timer.
package timer

import (
	"fmt"
	"time"
)

// State is the timer phase as reported by the timer itself
type State int

const (
	NotRunning State = iota
	Running
	Paused
	Ended
)

func (s State) String() string {
	switch s {
	case NotRunning:
		return "NotRunning"
	case Running:
		return "Running"
	case Paused:
		return "Paused"
	case Ended:
		return "Ended"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// ParseState maps a timer phase name onto a State
func ParseState(s string) (State, error) {
	switch s {
	case "NotRunning":
		return NotRunning, nil
	case "Running":
		return Running, nil
	case "Paused":
		return Paused, nil
	case "Ended":
		return Ended, nil
	}
	return NotRunning, fmt.Errorf("unknown timer phase %q", s)
}

// Timer is the set of controls the autosplitter issues. Commands are fire
// and forget on the timer's side; the error only reports delivery.
type Timer interface {
	State() (State, error)
	Start() error
	Split() error
	Reset() error
	PauseGameTime() error
	ResumeGameTime() error
	SetGameTime(d time.Duration) error
}

// FormatGameTime renders d as H:MM:SS.fff
func FormatGameTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	d -= s * time.Second
	ms := d / time.Millisecond
	return fmt.Sprintf("%d:%02d:%02d.%03d", h, m, s, ms)
}
