package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/YousefElmenshawy/University-Course-Registration-Website/internal/models"
	appErrors "github.com/YousefElmenshawy/University-Course-Registration-Website/pkg/errors"
)

type catalogSectionRepository interface {
	FindByID(ctx context.Context, id string) (*models.Section, error)
	List(ctx context.Context, filter models.SectionFilter) ([]models.Section, int, error)
	Create(ctx context.Context, section *models.Section) error
	Update(ctx context.Context, section *models.Section) error
	Delete(ctx context.Context, id string) error
}

type catalogCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// CreateSectionRequest carries section attributes for admin creation.
type CreateSectionRequest struct {
	CourseCode  string `json:"course_code" validate:"required"`
	CRN         int    `json:"crn" validate:"required,gt=0"`
	Title       string `json:"title" validate:"required"`
	Instructor  string `json:"instructor" validate:"required"`
	Room        string `json:"room" validate:"required"`
	Days        string `json:"days" validate:"required"`
	TimeSlot    string `json:"time_slot" validate:"required"`
	CapacityMax int    `json:"capacity_max" validate:"required,gt=0"`
	WaitlistMax int    `json:"waitlist_max" validate:"gte=0"`
}

// UpdateSectionRequest carries section attributes for admin updates. The
// live counters are deliberately absent; they belong to the registration
// flow and the reconciler.
type UpdateSectionRequest struct {
	CourseCode  string `json:"course_code" validate:"required"`
	CRN         int    `json:"crn" validate:"required,gt=0"`
	Title       string `json:"title" validate:"required"`
	Instructor  string `json:"instructor" validate:"required"`
	Room        string `json:"room" validate:"required"`
	Days        string `json:"days" validate:"required"`
	TimeSlot    string `json:"time_slot" validate:"required"`
	CapacityMax int    `json:"capacity_max" validate:"required,gt=0"`
	WaitlistMax int    `json:"waitlist_max" validate:"gte=0"`
}

// CatalogService serves the browsable course catalog and the admin CRUD
// surface behind it. Catalog reads go through Redis; any mutation anywhere
// in the system invalidates the "catalog:*" keyspace.
type CatalogService struct {
	sections  catalogSectionRepository
	cache     catalogCache
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cacheTTL  time.Duration
}

// NewCatalogService constructs CatalogService. cache and metrics may be nil.
func NewCatalogService(sections catalogSectionRepository, cache catalogCache, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cacheTTL time.Duration) *CatalogService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Second
	}
	return &CatalogService{
		sections:  sections,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cacheTTL:  cacheTTL,
	}
}

// CatalogPage is a cached page of catalog projections.
type CatalogPage struct {
	Sections   []models.SectionView `json:"sections"`
	Pagination models.Pagination    `json:"pagination"`
}

// List returns a page of the catalog, served from cache when fresh. The
// cached availability may lag the counters by up to the TTL; registration
// decisions never read it.
func (s *CatalogService) List(ctx context.Context, filter models.SectionFilter) (*CatalogPage, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}

	key := catalogKey(filter)
	if s.cache != nil {
		var page CatalogPage
		err := s.cache.Get(ctx, key, &page)
		if err == nil {
			s.metrics.ObserveCacheLookup(true)
			return &page, nil
		}
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("catalog cache read failed", zap.String("key", key), zap.Error(err))
		}
		s.metrics.ObserveCacheLookup(false)
	}

	sections, total, err := s.sections.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to list sections")
	}

	views := make([]models.SectionView, len(sections))
	for i, section := range sections {
		views[i] = models.NewSectionView(section)
	}
	page := &CatalogPage{
		Sections: views,
		Pagination: models.Pagination{
			Page:       filter.Page,
			PageSize:   filter.PageSize,
			TotalCount: total,
		},
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, page, s.cacheTTL); err != nil {
			s.logger.Warn("catalog cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return page, nil
}

// Get returns a single section projection, always from the database.
func (s *CatalogService) Get(ctx context.Context, id string) (*models.SectionView, error) {
	section, err := s.sections.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course section not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to load section")
	}
	view := models.NewSectionView(*section)
	return &view, nil
}

// CreateSection adds a section to the catalog with empty counters.
func (s *CatalogService) CreateSection(ctx context.Context, req CreateSectionRequest) (*models.SectionView, error) {
	if err := s.validateSection(req.Days, req.TimeSlot, s.validator.Struct(req)); err != nil {
		return nil, err
	}

	section := &models.Section{
		CourseCode:  req.CourseCode,
		CRN:         req.CRN,
		Title:       req.Title,
		Instructor:  req.Instructor,
		Room:        req.Room,
		Days:        req.Days,
		TimeSlot:    req.TimeSlot,
		CapacityMax: req.CapacityMax,
		WaitlistMax: req.WaitlistMax,
	}
	if err := s.sections.Create(ctx, section); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to create section")
	}

	s.invalidate(ctx)
	view := models.NewSectionView(*section)
	return &view, nil
}

// UpdateSection rewrites a section's descriptive attributes and limits.
func (s *CatalogService) UpdateSection(ctx context.Context, id string, req UpdateSectionRequest) (*models.SectionView, error) {
	if err := s.validateSection(req.Days, req.TimeSlot, s.validator.Struct(req)); err != nil {
		return nil, err
	}

	section, err := s.sections.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course section not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to load section")
	}

	section.CourseCode = req.CourseCode
	section.CRN = req.CRN
	section.Title = req.Title
	section.Instructor = req.Instructor
	section.Room = req.Room
	section.Days = req.Days
	section.TimeSlot = req.TimeSlot
	section.CapacityMax = req.CapacityMax
	section.WaitlistMax = req.WaitlistMax
	if err := s.sections.Update(ctx, section); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to update section")
	}

	s.invalidate(ctx)
	view := models.NewSectionView(*section)
	return &view, nil
}

// DeleteSection removes a section from the catalog.
func (s *CatalogService) DeleteSection(ctx context.Context, id string) error {
	if err := s.sections.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "course section not found")
		}
		return appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to delete section")
	}
	s.invalidate(ctx)
	return nil
}

func (s *CatalogService) validateSection(days, timeSlot string, structErr error) error {
	if structErr != nil {
		return appErrors.Wrap(structErr, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid section payload")
	}
	if models.DecodeDays(days) == 0 {
		return appErrors.Clone(appErrors.ErrValidation, "days must contain at least one valid weekday code")
	}
	if !validTimeSlot(timeSlot) {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("time_slot must be one of %v", models.TimeSlots))
	}
	return nil
}

func (s *CatalogService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, "catalog:*"); err != nil {
		s.logger.Warn("failed to invalidate catalog cache", zap.Error(err))
	}
}

func validTimeSlot(slot string) bool {
	for _, known := range models.TimeSlots {
		if slot == known {
			return true
		}
	}
	return false
}

func catalogKey(filter models.SectionFilter) string {
	return fmt.Sprintf("catalog:list:%s:%s:%d:%d:%s:%s",
		filter.CourseCode, filter.Status, filter.Page, filter.PageSize, filter.SortBy, filter.SortOrder)
}
