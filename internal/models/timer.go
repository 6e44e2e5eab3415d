// Package models defines domain models for countdown.
package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Size controls the rendered font size and padding of a timer widget.
type Size string

const (
	SizeSmall  Size = "small"
	SizeMedium Size = "medium"
	SizeLarge  Size = "large"
)

// Valid returns true if s is a known size.
func (s Size) Valid() bool {
	switch s {
	case SizeSmall, SizeMedium, SizeLarge:
		return true
	}
	return false
}

// Position controls where the widget is pinned on the storefront page.
type Position string

const (
	PositionTop    Position = "top"
	PositionBottom Position = "bottom"
)

// Valid returns true if p is a known position.
func (p Position) Valid() bool {
	return p == PositionTop || p == PositionBottom
}

// Urgency selects the animation applied during the final minutes of a timer.
type Urgency string

const (
	UrgencyNone  Urgency = "none"
	UrgencyPulse Urgency = "pulse"
	UrgencyBlink Urgency = "blink"
)

// Valid returns true if u is a known urgency mode.
func (u Urgency) Valid() bool {
	switch u {
	case UrgencyNone, UrgencyPulse, UrgencyBlink:
		return true
	}
	return false
}

// Status is the lifecycle of a timer relative to its window.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusActive    Status = "active"
	StatusEnded     Status = "ended"
)

// Defaults applied to omitted fields at the write boundary.
const (
	DefaultSize     = SizeMedium
	DefaultPosition = PositionTop
	DefaultUrgency  = UrgencyPulse
	DefaultColor    = "#00ff00"
)

// Civil layouts for the date and time components of a window.
const (
	DateLayout        = "2006-01-02"
	TimeLayout        = "15:04"
	TimeLayoutSeconds = "15:04:05"
)

// Timer is a scheduled countdown promotion owned by one shop.
type Timer struct {
	ID          string    `json:"id"`
	Shop        string    `json:"shop"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	StartDate   string    `json:"startDate"`
	StartTime   string    `json:"startTime"`
	EndDate     string    `json:"endDate"`
	EndTime     string    `json:"endTime"`
	Size        Size      `json:"size"`
	Position    Position  `json:"position"`
	Urgency     Urgency   `json:"urgency"`
	Color       string    `json:"color"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Window returns the start and end instants of the timer interpreted in loc.
func (t *Timer) Window(loc *time.Location) (start, end time.Time, err error) {
	start, err = CombineCivil(t.StartDate, t.StartTime, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("start: %w", err)
	}
	end, err = CombineCivil(t.EndDate, t.EndTime, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("end: %w", err)
	}
	return start, end, nil
}

// IsCurrent reports whether the timer is enabled and now lies inside its
// window. Both bounds are inclusive. A timer whose end precedes its start,
// or whose window cannot be parsed, is never current.
func (t *Timer) IsCurrent(now time.Time, loc *time.Location) bool {
	if !t.IsActive {
		return false
	}
	start, end, err := t.Window(loc)
	if err != nil {
		return false
	}
	if end.Before(start) {
		return false
	}
	return !now.Before(start) && !now.After(end)
}

// Status returns the lifecycle status of the timer at now. The active flag is
// not considered; a window that cannot be parsed reports as ended.
func (t *Timer) Status(now time.Time, loc *time.Location) Status {
	start, end, err := t.Window(loc)
	if err != nil {
		return StatusEnded
	}
	if now.Before(start) {
		return StatusScheduled
	}
	if now.After(end) {
		return StatusEnded
	}
	return StatusActive
}

// CombineCivil builds a naive local timestamp from a YYYY-MM-DD date and a
// HH:MM or HH:MM:SS clock reading, interpreted in loc.
func CombineCivil(date, clock string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	d, err := time.ParseInLocation(DateLayout, strings.TrimSpace(date), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", date)
	}
	c, err := ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(d.Year(), d.Month(), d.Day(), c.Hour(), c.Minute(), c.Second(), 0, loc), nil
}

// ParseClock parses a HH:MM or HH:MM:SS clock reading.
func ParseClock(clock string) (time.Time, error) {
	clock = strings.TrimSpace(clock)
	layout := TimeLayout
	if strings.Count(clock, ":") == 2 {
		layout = TimeLayoutSeconds
	}
	c, err := time.Parse(layout, clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q", clock)
	}
	return c, nil
}

// ParseHexColor parses a #RGB or #RRGGBB color into its channels.
func ParseHexColor(s string) (r, g, b uint8, err error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return 0, 0, 0, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid color %q", s)
	}
	return uint8(v >> 16), uint8(v >> 8), uint8(v), nil
}

// PublicTimer is the storefront view of a timer. It omits ownership and
// bookkeeping fields.
type PublicTimer struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	StartDate   string   `json:"startDate"`
	StartTime   string   `json:"startTime"`
	EndDate     string   `json:"endDate"`
	EndTime     string   `json:"endTime"`
	Size        Size     `json:"size"`
	Position    Position `json:"position"`
	Urgency     Urgency  `json:"urgency"`
	Color       string   `json:"color,omitempty"`
}

// Public returns the storefront view of t.
func (t *Timer) Public() PublicTimer {
	return PublicTimer{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		StartDate:   t.StartDate,
		StartTime:   t.StartTime,
		EndDate:     t.EndDate,
		EndTime:     t.EndTime,
		Size:        t.Size,
		Position:    t.Position,
		Urgency:     t.Urgency,
		Color:       t.Color,
	}
}

// Window returns the start and end instants of the payload interpreted in loc.
func (p *PublicTimer) Window(loc *time.Location) (start, end time.Time, err error) {
	t := Timer{StartDate: p.StartDate, StartTime: p.StartTime, EndDate: p.EndDate, EndTime: p.EndTime}
	return t.Window(loc)
}
