package models

import "time"

// SectionStatus summarises a section's availability for catalog display.
type SectionStatus string

// Possible section statuses.
const (
	SectionStatusOpen     SectionStatus = "OPEN"
	SectionStatusFull     SectionStatus = "FULL"
	SectionStatusWaitlist SectionStatus = "WAITLIST"
)

// Section is one schedule-specific offering of a course. The four counter
// fields are the authoritative resource state and are mutated only by the
// registration and admission services.
type Section struct {
	ID              string    `db:"id" json:"id"`
	CourseCode      string    `db:"course_code" json:"course_code"`
	CRN             int       `db:"crn" json:"crn"`
	Title           string    `db:"title" json:"title"`
	Instructor      string    `db:"instructor" json:"instructor"`
	Room            string    `db:"room" json:"room"`
	Days            string    `db:"days" json:"days"`
	TimeSlot        string    `db:"time_slot" json:"time_slot"`
	CapacityMax     int       `db:"capacity_max" json:"capacity_max"`
	CapacityCurrent int       `db:"capacity_current" json:"capacity_current"`
	WaitlistMax     int       `db:"waitlist_max" json:"waitlist_max"`
	WaitlistCurrent int       `db:"waitlist_current" json:"waitlist_current"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// MeetingDays decodes the section's weekday-set code.
func (s *Section) MeetingDays() DaySet {
	return DecodeDays(s.Days)
}

// IsFull reports whether enrollment has reached capacity.
func (s *Section) IsFull() bool {
	return s.CapacityCurrent >= s.CapacityMax
}

// IsWaitlistFull reports whether the waitlist has reached its limit.
func (s *Section) IsWaitlistFull() bool {
	return s.WaitlistCurrent >= s.WaitlistMax
}

// WaitlistActive reports whether anyone is queued for this section. An
// active waitlist closes the section to direct registration even if seats
// remain; admission goes through the waitlist.
func (s *Section) WaitlistActive() bool {
	return s.WaitlistCurrent > 0
}

// Status derives the catalog availability label.
func (s *Section) Status() SectionStatus {
	switch {
	case s.WaitlistActive():
		return SectionStatusWaitlist
	case s.IsFull():
		return SectionStatusFull
	default:
		return SectionStatusOpen
	}
}

// SectionView is a Section enriched with derived display fields returned by
// catalog and schedule endpoints.
type SectionView struct {
	Section
	MeetingDays  []string      `json:"meeting_days"`
	Availability SectionStatus `json:"availability"`
}

// NewSectionView builds the catalog projection for a section.
func NewSectionView(section Section) SectionView {
	days := section.MeetingDays().Weekdays()
	names := make([]string, len(days))
	for i, d := range days {
		names[i] = d.String()
	}
	return SectionView{
		Section:      section,
		MeetingDays:  names,
		Availability: section.Status(),
	}
}

// ConflictDetail identifies the enrolled section blocking a registration.
type ConflictDetail struct {
	SectionID  string `json:"section_id"`
	CourseCode string `json:"course_code"`
	Title      string `json:"title"`
	Days       string `json:"days"`
	TimeSlot   string `json:"time_slot"`
}

// SectionFilter captures list criteria for the catalog.
type SectionFilter struct {
	CourseCode string
	Status     SectionStatus
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}
