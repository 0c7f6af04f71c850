package service

import (
	"fmt"

	"github.com/YousefElmenshawy/University-Course-Registration-Website/internal/models"
)

// FindConflict returns the first enrolled section whose meeting pattern
// overlaps the candidate's: their weekday sets intersect and they meet at
// the identical time-slot label. Returns nil when the candidate fits.
//
// Callers must pass freshly fetched section records, not a cached schedule;
// a stale list lets a registration slip past a conflict recorded moments
// earlier.
func FindConflict(candidate models.Section, enrolled []models.Section) *models.Section {
	candidateDays := candidate.MeetingDays()
	for i := range enrolled {
		other := &enrolled[i]
		if candidateDays.Intersects(other.MeetingDays()) && candidate.TimeSlot == other.TimeSlot {
			return other
		}
	}
	return nil
}

// conflictMessage formats the student-facing schedule-conflict message.
func conflictMessage(conflicting *models.Section) string {
	return fmt.Sprintf("Time conflict detected with your enrolled course: %s (%s | %s)",
		conflicting.Title, conflicting.MeetingDays(), conflicting.TimeSlot)
}

func conflictDetail(conflicting *models.Section) models.ConflictDetail {
	return models.ConflictDetail{
		SectionID:  conflicting.ID,
		CourseCode: conflicting.CourseCode,
		Title:      conflicting.Title,
		Days:       conflicting.Days,
		TimeSlot:   conflicting.TimeSlot,
	}
}
