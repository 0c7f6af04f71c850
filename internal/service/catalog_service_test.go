package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YousefElmenshawy/University-Course-Registration-Website/internal/models"
	appErrors "github.com/YousefElmenshawy/University-Course-Registration-Website/pkg/errors"
)

// mockCacheStore implements the catalog cache over a map, round-tripping
// values through JSON like the real Redis cache does.
type mockCacheStore struct {
	values  map[string][]byte
	hits    int
	misses  int
	deletes int
}

func newMockCacheStore() *mockCacheStore {
	return &mockCacheStore{values: make(map[string][]byte)}
}

func (m *mockCacheStore) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.values[key]
	if !ok {
		m.misses++
		return appErrors.ErrCacheMiss
	}
	m.hits++
	return json.Unmarshal(raw, dest)
}

func (m *mockCacheStore) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.values[key] = raw
	return nil
}

func (m *mockCacheStore) DeleteByPattern(ctx context.Context, pattern string) error {
	m.deletes++
	m.values = make(map[string][]byte)
	return nil
}

func validCreateRequest() CreateSectionRequest {
	return CreateSectionRequest{
		CourseCode:  "CSE101",
		CRN:         30101,
		Title:       "Intro to Computing",
		Instructor:  "Dr. Nabil",
		Room:        "B110",
		Days:        "UMW",
		TimeSlot:    "10:00 AM",
		CapacityMax: 30,
		WaitlistMax: 5,
	}
}

// mockCatalogRepo wraps the section store with list/create/update/delete.
type mockCatalogRepo struct {
	*mockSectionStore
	listCalls int
}

func (m *mockCatalogRepo) List(ctx context.Context, filter models.SectionFilter) ([]models.Section, int, error) {
	m.listCalls++
	var out []models.Section
	for _, s := range m.sections {
		out = append(out, *s)
	}
	return out, len(out), nil
}

func (m *mockCatalogRepo) Create(ctx context.Context, section *models.Section) error {
	if section.ID == "" {
		section.ID = "new-section"
	}
	copied := *section
	m.sections[section.ID] = &copied
	return nil
}

func (m *mockCatalogRepo) Update(ctx context.Context, section *models.Section) error {
	copied := *section
	m.sections[section.ID] = &copied
	return nil
}

func (m *mockCatalogRepo) Delete(ctx context.Context, id string) error {
	delete(m.sections, id)
	return nil
}

func TestCatalogList(t *testing.T) {
	ctx := context.Background()

	repo := &mockCatalogRepo{mockSectionStore: newMockSectionStore(openSection("sec1", 30, 10))}
	cache := newMockCacheStore()
	svc := NewCatalogService(repo, cache, nil, nil, nil, time.Minute)

	page, err := svc.List(ctx, models.SectionFilter{})
	require.NoError(t, err)
	require.Len(t, page.Sections, 1)
	assert.Equal(t, models.SectionStatusOpen, page.Sections[0].Availability)
	assert.Equal(t, 1, page.Pagination.TotalCount)
	assert.Equal(t, 1, repo.listCalls)

	// Second read is served from the cache.
	_, err = svc.List(ctx, models.SectionFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, repo.listCalls)
	assert.Equal(t, 1, cache.hits)

	// A different filter is a different key.
	_, err = svc.List(ctx, models.SectionFilter{CourseCode: "CSE101"})
	require.NoError(t, err)
	assert.Equal(t, 2, repo.listCalls)
}

func TestCatalogGet(t *testing.T) {
	ctx := context.Background()

	sec := openSection("sec1", 1, 1)
	sec.WaitlistCurrent = 1
	repo := &mockCatalogRepo{mockSectionStore: newMockSectionStore(sec)}
	svc := NewCatalogService(repo, nil, nil, nil, nil, time.Minute)

	view, err := svc.Get(ctx, "sec1")
	require.NoError(t, err)
	assert.Equal(t, models.SectionStatusWaitlist, view.Availability)
	assert.Equal(t, []string{"Monday", "Wednesday"}, view.MeetingDays)

	_, err = svc.Get(ctx, "ghost")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCreateSection(t *testing.T) {
	ctx := context.Background()

	repo := &mockCatalogRepo{mockSectionStore: newMockSectionStore()}
	cache := newMockCacheStore()
	svc := NewCatalogService(repo, cache, nil, nil, nil, time.Minute)

	t.Run("success invalidates cache", func(t *testing.T) {
		view, err := svc.CreateSection(ctx, validCreateRequest())
		require.NoError(t, err)
		assert.NotEmpty(t, view.ID)
		assert.Equal(t, models.SectionStatusOpen, view.Availability)
		assert.Equal(t, 1, cache.deletes)
	})

	t.Run("rejects unknown time slot", func(t *testing.T) {
		req := validCreateRequest()
		req.TimeSlot = "9:15 AM"
		_, err := svc.CreateSection(ctx, req)
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	})

	t.Run("rejects day codes with no valid weekday", func(t *testing.T) {
		req := validCreateRequest()
		req.Days = "XYZ"
		_, err := svc.CreateSection(ctx, req)
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	})

	t.Run("rejects missing fields", func(t *testing.T) {
		req := validCreateRequest()
		req.Title = ""
		_, err := svc.CreateSection(ctx, req)
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	})
}

func TestUpdateSection(t *testing.T) {
	ctx := context.Background()

	sec := openSection("sec1", 30, 12)
	repo := &mockCatalogRepo{mockSectionStore: newMockSectionStore(sec)}
	svc := NewCatalogService(repo, nil, nil, nil, nil, time.Minute)

	req := UpdateSectionRequest{
		CourseCode:  "CSE102",
		CRN:         30102,
		Title:       "Data Structures",
		Instructor:  "Dr. Salma",
		Room:        "B210",
		Days:        "TR",
		TimeSlot:    "11:30 AM",
		CapacityMax: 40,
		WaitlistMax: 8,
	}
	view, err := svc.UpdateSection(ctx, "sec1", req)
	require.NoError(t, err)
	assert.Equal(t, "Data Structures", view.Title)
	// Live counters survive an update untouched.
	assert.Equal(t, 12, view.CapacityCurrent)

	_, err = svc.UpdateSection(ctx, "ghost", req)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestDeleteSection(t *testing.T) {
	ctx := context.Background()

	repo := &mockCatalogRepo{mockSectionStore: newMockSectionStore(openSection("sec1", 30, 0))}
	cache := newMockCacheStore()
	svc := NewCatalogService(repo, cache, nil, nil, nil, time.Minute)

	require.NoError(t, svc.DeleteSection(ctx, "sec1"))
	assert.Equal(t, 1, cache.deletes)
	assert.NotContains(t, repo.sections, "sec1")
}
