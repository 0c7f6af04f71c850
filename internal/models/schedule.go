package models

import "time"

// ScheduleEntry places one enrolled section into a weekly grid cell.
type ScheduleEntry struct {
	Day      time.Weekday `json:"-"`
	DayName  string       `json:"day"`
	TimeSlot string       `json:"time_slot"`
	Section  SectionView  `json:"section"`
}

// WeekSchedule is the weekly timetable projection for one student. Entries
// are ordered slot-major (timetable rows), then Sunday through Saturday.
type WeekSchedule struct {
	StudentID string          `json:"student_id"`
	Days      []string        `json:"days"`
	TimeSlots []string        `json:"time_slots"`
	Entries   []ScheduleEntry `json:"entries"`
}
