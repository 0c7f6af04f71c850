package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/YousefElmenshawy/University-Course-Registration-Website/internal/models"
	appErrors "github.com/YousefElmenshawy/University-Course-Registration-Website/pkg/errors"
	"github.com/YousefElmenshawy/University-Course-Registration-Website/pkg/export"
)

type scheduleStudentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type scheduleSectionRepository interface {
	FindByIDs(ctx context.Context, ids []string) ([]models.Section, error)
}

// Export formats supported by the schedule endpoints.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

var exportHeaders = []string{"Course", "Title", "Days", "Time", "Room", "Instructor", "CRN"}

// ScheduleService materializes a student's enrolled sections into a weekly
// timetable and renders it to downloadable documents.
type ScheduleService struct {
	students scheduleStudentRepository
	sections scheduleSectionRepository
	csv      *export.CSVExporter
	pdf      *export.PDFExporter
	logger   *zap.Logger
	now      func() time.Time
}

// NewScheduleService constructs ScheduleService.
func NewScheduleService(students scheduleStudentRepository, sections scheduleSectionRepository, logger *zap.Logger) *ScheduleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{
		students: students,
		sections: sections,
		csv:      export.NewCSVExporter(),
		pdf:      export.NewPDFExporter(),
		logger:   logger,
		now:      time.Now,
	}
}

// WeekSchedule builds the weekly grid for a student. With todayOnly set the
// grid collapses to the current weekday.
func (s *ScheduleService) WeekSchedule(ctx context.Context, studentID string, todayOnly bool) (*models.WeekSchedule, error) {
	sections, err := s.enrolledSections(ctx, studentID)
	if err != nil {
		return nil, err
	}

	days := make([]time.Weekday, 0, 7)
	if todayOnly {
		days = append(days, s.now().Weekday())
	} else {
		for d := time.Sunday; d <= time.Saturday; d++ {
			days = append(days, d)
		}
	}

	schedule := &models.WeekSchedule{
		StudentID: studentID,
		Days:      dayNames(days),
		TimeSlots: append([]string{}, models.TimeSlots...),
		Entries:   []models.ScheduleEntry{},
	}

	// Slot-major walk so entries come out in timetable row order.
	for _, slot := range models.TimeSlots {
		for _, day := range days {
			for _, section := range sections {
				if section.TimeSlot != slot || !section.MeetingDays().Contains(day) {
					continue
				}
				schedule.Entries = append(schedule.Entries, models.ScheduleEntry{
					Day:      day,
					DayName:  day.String(),
					TimeSlot: slot,
					Section:  models.NewSectionView(section),
				})
			}
		}
	}
	return schedule, nil
}

// Export renders the student's enrolled sections as a CSV or PDF document.
// It returns the document bytes, a suggested filename and the MIME type.
func (s *ScheduleService) Export(ctx context.Context, studentID, format string) ([]byte, string, string, error) {
	format = strings.ToLower(format)
	if format != ExportFormatCSV && format != ExportFormatPDF {
		return nil, "", "", appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	sections, err := s.enrolledSections(ctx, studentID)
	if err != nil {
		return nil, "", "", err
	}

	table := export.Table{Headers: exportHeaders}
	for _, section := range sections {
		table.Rows = append(table.Rows, []string{
			section.CourseCode,
			section.Title,
			section.MeetingDays().String(),
			section.TimeSlot,
			section.Room,
			section.Instructor,
			fmt.Sprintf("%d", section.CRN),
		})
	}

	switch format {
	case ExportFormatCSV:
		data, err := s.csv.Render(table)
		if err != nil {
			return nil, "", "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render schedule csv")
		}
		return data, "schedule.csv", "text/csv", nil
	default:
		data, err := s.pdf.Render(table, "Weekly Schedule")
		if err != nil {
			return nil, "", "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render schedule pdf")
		}
		return data, "schedule.pdf", "application/pdf", nil
	}
}

func (s *ScheduleService) enrolledSections(ctx context.Context, studentID string) ([]models.Section, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to load student")
	}
	if len(student.EnrolledSections) == 0 {
		return nil, nil
	}

	sections, err := s.sections.FindByIDs(ctx, student.EnrolledSections)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to load enrolled sections")
	}
	return sections, nil
}

func dayNames(days []time.Weekday) []string {
	names := make([]string, len(days))
	for i, d := range days {
		names[i] = d.String()
	}
	return names
}
