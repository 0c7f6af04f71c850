package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YousefElmenshawy/University-Course-Registration-Website/internal/models"
	appErrors "github.com/YousefElmenshawy/University-Course-Registration-Website/pkg/errors"
)

func TestStudentSummary(t *testing.T) {
	ctx := context.Background()

	s := student("s1", "sec1", "sec2")
	s.WaitlistedIn = []string{"sec3"}
	full := openSection("sec2", 1, 1)
	students := newMockStudentStore(s)
	sections := newMockSectionStore(openSection("sec1", 30, 3), full, openSection("sec3", 1, 1))
	svc := NewStudentService(students, sections, nil)

	summary, err := svc.Summary(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, summary.Enrolled, 2)
	assert.Len(t, summary.Waitlisted, 1)
	assert.Equal(t, models.SectionStatusFull, summary.Enrolled[1].Availability)
	assert.Equal(t, 6, summary.TotalCredits)
}

func TestStudentSummaryEmptyLedger(t *testing.T) {
	ctx := context.Background()

	svc := NewStudentService(newMockStudentStore(student("s1")), newMockSectionStore(), nil)
	summary, err := svc.Summary(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, summary.Enrolled)
	assert.Empty(t, summary.Waitlisted)
	assert.Equal(t, 0, summary.TotalCredits)
}

func TestStudentSummaryNotFound(t *testing.T) {
	svc := NewStudentService(newMockStudentStore(), newMockSectionStore(), nil)
	_, err := svc.Summary(context.Background(), "ghost")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestStudentList(t *testing.T) {
	ctx := context.Background()

	svc := NewStudentService(newMockStudentStore(student("a"), student("b")), newMockSectionStore(), nil)
	students, pagination, err := svc.List(ctx, models.StudentFilter{})
	require.NoError(t, err)
	assert.Len(t, students, 2)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 20, pagination.PageSize)
	assert.Equal(t, 2, pagination.TotalCount)
}
