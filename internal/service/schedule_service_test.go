package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/YousefElmenshawy/University-Course-Registration-Website/pkg/errors"
)

func TestWeekSchedule(t *testing.T) {
	ctx := context.Background()

	algebra := openSection("sec1", 30, 2)
	algebra.Days = "MW"
	algebra.TimeSlot = "8:30 AM"
	physics := openSection("sec2", 30, 2)
	physics.Days = "TR"
	physics.TimeSlot = "8:30 AM"
	chemistry := openSection("sec3", 30, 2)
	chemistry.Days = "M"
	chemistry.TimeSlot = "2:00 PM"

	students := newMockStudentStore(student("s1", "sec1", "sec2", "sec3"))
	sections := newMockSectionStore(algebra, physics, chemistry)
	svc := NewScheduleService(students, sections, nil)

	t.Run("full week in slot-major order", func(t *testing.T) {
		schedule, err := svc.WeekSchedule(ctx, "s1", false)
		require.NoError(t, err)
		assert.Len(t, schedule.Days, 7)
		require.Len(t, schedule.Entries, 5)

		// All 8:30 entries precede the 2:00 entry; days ordered within a slot.
		var got []string
		for _, e := range schedule.Entries {
			got = append(got, e.TimeSlot+" "+e.DayName+" "+e.Section.ID)
		}
		assert.Equal(t, []string{
			"8:30 AM Monday sec1",
			"8:30 AM Tuesday sec2",
			"8:30 AM Wednesday sec1",
			"8:30 AM Thursday sec2",
			"2:00 PM Monday sec3",
		}, got)
	})

	t.Run("today only", func(t *testing.T) {
		svc.now = func() time.Time {
			return time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC) // a Monday
		}
		defer func() { svc.now = time.Now }()

		schedule, err := svc.WeekSchedule(ctx, "s1", true)
		require.NoError(t, err)
		assert.Equal(t, []string{"Monday"}, schedule.Days)
		require.Len(t, schedule.Entries, 2)
		assert.Equal(t, "sec1", schedule.Entries[0].Section.ID)
		assert.Equal(t, "sec3", schedule.Entries[1].Section.ID)
	})

	t.Run("empty ledger yields empty grid", func(t *testing.T) {
		empty := newMockStudentStore(student("s2"))
		svc := NewScheduleService(empty, sections, nil)
		schedule, err := svc.WeekSchedule(ctx, "s2", false)
		require.NoError(t, err)
		assert.Empty(t, schedule.Entries)
	})

	t.Run("unknown student", func(t *testing.T) {
		_, err := svc.WeekSchedule(ctx, "ghost", false)
		assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	})
}

func TestScheduleExport(t *testing.T) {
	ctx := context.Background()

	sec := openSection("sec1", 30, 1)
	sec.CourseCode = "MATH201"
	sec.Title = "Linear Algebra"
	sec.Days = "MR"
	sec.Room = "H204"
	sec.Instructor = "Dr. Hart"
	sec.CRN = 40123

	students := newMockStudentStore(student("s1", "sec1"))
	sections := newMockSectionStore(sec)
	svc := NewScheduleService(students, sections, nil)

	t.Run("csv", func(t *testing.T) {
		data, filename, contentType, err := svc.Export(ctx, "s1", "csv")
		require.NoError(t, err)
		assert.Equal(t, "schedule.csv", filename)
		assert.Equal(t, "text/csv", contentType)

		body := string(data)
		assert.True(t, strings.HasPrefix(body, "Course,Title,Days,Time,Room,Instructor,CRN"))
		assert.Contains(t, body, "MATH201,Linear Algebra,Monday/Thursday,10:00 AM,H204,Dr. Hart,40123")
	})

	t.Run("pdf", func(t *testing.T) {
		data, filename, contentType, err := svc.Export(ctx, "s1", "pdf")
		require.NoError(t, err)
		assert.Equal(t, "schedule.pdf", filename)
		assert.Equal(t, "application/pdf", contentType)
		assert.True(t, strings.HasPrefix(string(data), "%PDF"))
	})

	t.Run("unsupported format", func(t *testing.T) {
		_, _, _, err := svc.Export(ctx, "s1", "xlsx")
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	})
}
