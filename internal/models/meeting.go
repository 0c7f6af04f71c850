package models

import (
	"strings"
	"time"
)

// DaySet is a bitmask of calendar weekdays, decoded from the compact
// weekday codes used by the registrar ("MR", "TR", "UW", ...).
type DaySet uint8

// dayCodes maps each recognised code letter to its weekday.
// U=Sunday through S=Saturday; note R=Thursday and T=Tuesday.
var dayCodes = map[rune]time.Weekday{
	'U': time.Sunday,
	'M': time.Monday,
	'T': time.Tuesday,
	'W': time.Wednesday,
	'R': time.Thursday,
	'F': time.Friday,
	'S': time.Saturday,
}

// DecodeDays translates a weekday-set code into the set of weekdays it
// denotes. Each character maps independently; unrecognised characters are
// ignored and an empty code yields the empty set.
func DecodeDays(code string) DaySet {
	var set DaySet
	for _, r := range code {
		if day, ok := dayCodes[r]; ok {
			set |= 1 << uint(day)
		}
	}
	return set
}

// Contains reports whether the set includes the given weekday.
func (s DaySet) Contains(day time.Weekday) bool {
	return s&(1<<uint(day)) != 0
}

// Intersects reports whether two day sets share any weekday.
func (s DaySet) Intersects(other DaySet) bool {
	return s&other != 0
}

// Weekdays expands the set into weekdays ordered Sunday through Saturday.
func (s DaySet) Weekdays() []time.Weekday {
	days := make([]time.Weekday, 0, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		if s.Contains(d) {
			days = append(days, d)
		}
	}
	return days
}

// String renders the set for display, e.g. "Monday/Thursday".
func (s DaySet) String() string {
	days := s.Weekdays()
	names := make([]string, len(days))
	for i, d := range days {
		names[i] = d.String()
	}
	return strings.Join(names, "/")
}

// TimeSlots lists the fixed daily meeting slots in timetable order. Sections
// meet at exactly one slot; the system does not model start/end times at any
// finer granularity, so two sections at different slot labels never conflict
// even if their wall-clock spans would overlap.
var TimeSlots = []string{"8:30 AM", "10:00 AM", "11:30 AM", "2:00 PM", "3:30 PM", "5:00 PM"}
