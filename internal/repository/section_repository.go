package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/YousefElmenshawy/University-Course-Registration-Website/internal/models"
)

// SectionRepository handles persistence of course sections and their
// capacity/waitlist counters.
type SectionRepository struct {
	db *sqlx.DB
}

// NewSectionRepository constructs the repository.
func NewSectionRepository(db *sqlx.DB) *SectionRepository {
	return &SectionRepository{db: db}
}

const sectionColumns = `id, course_code, crn, title, instructor, room, days, time_slot,
        capacity_max, capacity_current, waitlist_max, waitlist_current, created_at, updated_at`

// FindByID returns a section with its live counters. Callers deciding on
// capacity must call this immediately before the check rather than reusing a
// cached row.
func (r *SectionRepository) FindByID(ctx context.Context, id string) (*models.Section, error) {
	query := fmt.Sprintf(`SELECT %s FROM sections WHERE id = $1`, sectionColumns)
	var section models.Section
	if err := r.db.GetContext(ctx, &section, query, id); err != nil {
		return nil, err
	}
	return &section, nil
}

// FindByIDs returns the sections whose id is in the given set, used to
// materialize a student's enrolled sections for conflict checking.
func (r *SectionRepository) FindByIDs(ctx context.Context, ids []string) ([]models.Section, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	const chunkSize = 100
	sections := make([]models.Section, 0, len(ids))
	for start := 0; start < len(ids); start += chunkSize {
		end := start + chunkSize
		if end > len(ids) {
			end = len(ids)
		}
		chunk := ids[start:end]
		placeholders := make([]string, len(chunk))
		args := make([]interface{}, len(chunk))
		for i, id := range chunk {
			placeholders[i] = fmt.Sprintf("$%d", i+1)
			args[i] = id
		}
		query := fmt.Sprintf(`SELECT %s FROM sections WHERE id IN (%s)`, sectionColumns, strings.Join(placeholders, ","))
		var batch []models.Section
		if err := r.db.SelectContext(ctx, &batch, query, args...); err != nil {
			return nil, fmt.Errorf("batch fetch sections: %w", err)
		}
		sections = append(sections, batch...)
	}
	return sections, nil
}

// List returns sections filtered by the provided criteria.
func (r *SectionRepository) List(ctx context.Context, filter models.SectionFilter) ([]models.Section, int, error) {
	var conditions []string
	var args []interface{}

	if filter.CourseCode != "" {
		conditions = append(conditions, fmt.Sprintf("course_code = $%d", len(args)+1))
		args = append(args, filter.CourseCode)
	}

	// Availability is derived from the counters, mirroring Section.Status:
	// an active waitlist trumps FULL, and OPEN requires both headroom and an
	// empty waitlist.
	switch filter.Status {
	case models.SectionStatusOpen:
		conditions = append(conditions, "capacity_current < capacity_max AND waitlist_current = 0")
	case models.SectionStatusFull:
		conditions = append(conditions, "capacity_current >= capacity_max AND waitlist_current = 0")
	case models.SectionStatusWaitlist:
		conditions = append(conditions, "waitlist_current > 0")
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"course_code": "course_code",
		"title":       "title",
		"crn":         "crn",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "course_code"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s FROM sections%s ORDER BY %s %s, crn ASC LIMIT %d OFFSET %d`,
		sectionColumns, clause, orderBy, order, size, offset)

	var sections []models.Section
	if err := r.db.SelectContext(ctx, &sections, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list sections: %w", err)
	}

	countQuery := "SELECT COUNT(*) FROM sections" + clause
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count sections: %w", err)
	}
	return sections, total, nil
}

// Create persists a new section record.
func (r *SectionRepository) Create(ctx context.Context, section *models.Section) error {
	if section.ID == "" {
		section.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if section.CreatedAt.IsZero() {
		section.CreatedAt = now
	}
	section.UpdatedAt = now
	const query = `INSERT INTO sections (id, course_code, crn, title, instructor, room, days, time_slot,
        capacity_max, capacity_current, waitlist_max, waitlist_current, created_at, updated_at)
        VALUES (:id, :course_code, :crn, :title, :instructor, :room, :days, :time_slot,
        :capacity_max, :capacity_current, :waitlist_max, :waitlist_current, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, section); err != nil {
		return fmt.Errorf("create section: %w", err)
	}
	return nil
}

// Update persists section metadata and limits. It never touches the current
// counters; those move only through the reserve/release methods below.
func (r *SectionRepository) Update(ctx context.Context, section *models.Section) error {
	section.UpdatedAt = time.Now().UTC()
	const query = `UPDATE sections SET course_code = :course_code, crn = :crn, title = :title,
        instructor = :instructor, room = :room, days = :days, time_slot = :time_slot,
        capacity_max = :capacity_max, waitlist_max = :waitlist_max, updated_at = :updated_at
        WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, section); err != nil {
		return fmt.Errorf("update section: %w", err)
	}
	return nil
}

// Delete removes a section from the catalog.
func (r *SectionRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sections WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete section: %w", err)
	}
	return nil
}

// ReserveSeat claims one seat with a single conditional write. The guard in
// the WHERE clause closes the check-then-act window between reading the
// counters and incrementing them: concurrent callers racing for the last
// seat serialize on the row and at most capacity_max reservations succeed.
func (r *SectionRepository) ReserveSeat(ctx context.Context, id string) (bool, error) {
	const query = `UPDATE sections SET capacity_current = capacity_current + 1, updated_at = $2
        WHERE id = $1 AND capacity_current < capacity_max`
	return r.conditionalUpdate(ctx, query, "reserve seat", id)
}

// ReserveSeatIfOpen claims one seat only while the waitlist is empty. Direct
// registration is refused once a waitlist has formed; those students go to
// the back of the queue instead of jumping it.
func (r *SectionRepository) ReserveSeatIfOpen(ctx context.Context, id string) (bool, error) {
	const query = `UPDATE sections SET capacity_current = capacity_current + 1, updated_at = $2
        WHERE id = $1 AND capacity_current < capacity_max AND waitlist_current = 0`
	return r.conditionalUpdate(ctx, query, "reserve open seat", id)
}

// ReserveWaitlistSpot claims one waitlist spot, bounded by waitlist_max.
func (r *SectionRepository) ReserveWaitlistSpot(ctx context.Context, id string) (bool, error) {
	const query = `UPDATE sections SET waitlist_current = waitlist_current + 1, updated_at = $2
        WHERE id = $1 AND waitlist_current < waitlist_max`
	return r.conditionalUpdate(ctx, query, "reserve waitlist spot", id)
}

// ReleaseSeat returns one seat, floored at zero.
func (r *SectionRepository) ReleaseSeat(ctx context.Context, id string) error {
	const query = `UPDATE sections SET capacity_current = GREATEST(capacity_current - 1, 0), updated_at = $2
        WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("release seat: %w", err)
	}
	return nil
}

// ReleaseWaitlistSpot returns one waitlist spot, floored at zero.
func (r *SectionRepository) ReleaseWaitlistSpot(ctx context.Context, id string) error {
	const query = `UPDATE sections SET waitlist_current = GREATEST(waitlist_current - 1, 0), updated_at = $2
        WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("release waitlist spot: %w", err)
	}
	return nil
}

// SetCounters overwrites both counters, used by reconciliation after the
// authoritative values have been recomputed from the ledgers.
func (r *SectionRepository) SetCounters(ctx context.Context, id string, capacityCurrent, waitlistCurrent int) error {
	const query = `UPDATE sections SET capacity_current = $2, waitlist_current = $3, updated_at = $4
        WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, capacityCurrent, waitlistCurrent, time.Now().UTC()); err != nil {
		return fmt.Errorf("set section counters: %w", err)
	}
	return nil
}

func (r *SectionRepository) conditionalUpdate(ctx context.Context, query, op, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, query, id, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s affected rows: %w", op, err)
	}
	return affected > 0, nil
}
