// Package ledger derives the figures shown on the dashboard from a ledger
// snapshot. Every function is pure: inputs are never mutated and the current
// time is always passed in explicitly.
package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/flowly/internal/model"
)

// Window is a named date range used for net cash flow.
type Window string

// Cash flow windows.
const (
	WindowOverall Window = "overall"
	WindowDaily   Window = "daily"
	WindowWeekly  Window = "weekly"
	WindowMonthly Window = "monthly"
)

// Windows lists all windows in dashboard order.
var Windows = []Window{WindowOverall, WindowMonthly, WindowWeekly, WindowDaily}

// weeklySpan is how far back the weekly window reaches from today.
const weeklySpan = 7

// ParseWindow resolves a window name.
func ParseWindow(s string) (Window, error) {
	w := Window(strings.ToLower(strings.TrimSpace(s)))
	switch w {
	case WindowOverall, WindowDaily, WindowWeekly, WindowMonthly:
		return w, nil
	default:
		return "", fmt.Errorf("unknown window %q", s)
	}
}

// InWindow reports whether a calendar date falls in the window relative to
// now. now is reduced to its calendar date in its own location, so callers
// choose the user's time zone by choosing now's location. An unknown (zero)
// date belongs only to the overall window.
func InWindow(date time.Time, w Window, now time.Time) bool {
	if w == WindowOverall {
		return true
	}
	if date.IsZero() {
		return false
	}

	today := model.CalendarDate(now)
	date = model.CalendarDate(date)

	switch w {
	case WindowDaily:
		return date.Equal(today)
	case WindowWeekly:
		start := today.AddDate(0, 0, -weeklySpan)
		return !date.Before(start) && !date.After(today)
	case WindowMonthly:
		return date.Year() == today.Year() && date.Month() == today.Month()
	default:
		return false
	}
}
