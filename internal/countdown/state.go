// Package countdown renders a live countdown for one storefront timer.
//
// The package is UI-agnostic: a Widget turns wall-clock instants into Frames
// and a frontend draws them. The terminal frontend lives in countdown/term.
package countdown

import (
	"fmt"
	"time"
)

// State is the phase of a rendering instance.
type State int

const (
	// Pending means the window has not opened. The widget is hidden.
	Pending State = iota
	// Running means the window is open with more than UrgencyThreshold left.
	Running
	// Urgent means the window closes within UrgencyThreshold.
	Urgent
	// Expired is terminal. The widget is hidden and ticking stops.
	Expired
)

const (
	// UrgencyThreshold is the remaining time at which a countdown turns urgent.
	UrgencyThreshold = 5 * time.Minute
	// TickInterval is the fixed re-evaluation period.
	TickInterval = time.Second
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Running:
		return "running"
	case Urgent:
		return "urgent"
	case Expired:
		return "expired"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Visible reports whether a widget in this state is displayed.
func (s State) Visible() bool {
	return s == Running || s == Urgent
}

// Evaluate returns the state of a window [start, end] at now.
func Evaluate(start, end, now time.Time) State {
	if now.Before(start) {
		return Pending
	}
	remaining := end.Sub(now)
	if remaining <= 0 {
		return Expired
	}
	if remaining <= UrgencyThreshold {
		return Urgent
	}
	return Running
}

// FormatRemaining renders d as HH:MM:SS. Hours are not wrapped into days and
// may use more than two digits. Negative durations render as zero.
func FormatRemaining(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}
