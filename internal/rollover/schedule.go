package rollover

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ParseWeekday accepts an English weekday name in any case.
func ParseWeekday(s string) (time.Weekday, error) {
	d, ok := weekdays[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return 0, fmt.Errorf("invalid weekday %q", s)
	}
	return d, nil
}

// ParseClock parses "HH:MM" into minutes after midnight.
func ParseClock(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time %q (expected HH:MM)", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	return h*60 + m, nil
}

// Instant is a fixed wall-clock minute that recurs once a week.
type Instant struct {
	Weekday time.Weekday
	Hour    int
	Minute  int
}

func ParseInstant(weekday, clock string) (Instant, error) {
	d, err := ParseWeekday(weekday)
	if err != nil {
		return Instant{}, err
	}
	mins, err := ParseClock(clock)
	if err != nil {
		return Instant{}, err
	}
	return Instant{Weekday: d, Hour: mins / 60, Minute: mins % 60}, nil
}

// Next returns the first occurrence strictly after t, in t's location.
func (i Instant) Next(t time.Time) time.Time {
	days := (int(i.Weekday) - int(t.Weekday()) + 7) % 7
	c := time.Date(t.Year(), t.Month(), t.Day()+days, i.Hour, i.Minute, 0, 0, t.Location())
	if !c.After(t) {
		c = time.Date(t.Year(), t.Month(), t.Day()+days+7, i.Hour, i.Minute, 0, 0, t.Location())
	}
	return c
}

// Prev returns the latest occurrence at or before t.
func (i Instant) Prev(t time.Time) time.Time {
	n := i.Next(t)
	return time.Date(n.Year(), n.Month(), n.Day()-7, i.Hour, i.Minute, 0, 0, n.Location())
}

func (i Instant) String() string {
	return fmt.Sprintf("%s %02d:%02d", i.Weekday, i.Hour, i.Minute)
}

// Window is a weekly period [Start, End) on one weekday, in minutes after midnight.
type Window struct {
	Weekday time.Weekday
	Start   int
	End     int
}

func ParseWindow(weekday, start, end string) (Window, error) {
	d, err := ParseWeekday(weekday)
	if err != nil {
		return Window{}, err
	}
	s, err := ParseClock(start)
	if err != nil {
		return Window{}, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return Window{}, err
	}
	if e <= s {
		return Window{}, fmt.Errorf("window end %s must be after start %s", end, start)
	}
	return Window{Weekday: d, Start: s, End: e}, nil
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	if t.Weekday() != w.Weekday {
		return false
	}
	mins := t.Hour()*60 + t.Minute()
	return mins >= w.Start && mins < w.End
}

func (w Window) String() string {
	return fmt.Sprintf("%s %02d:%02d-%02d:%02d", w.Weekday, w.Start/60, w.Start%60, w.End/60, w.End%60)
}
