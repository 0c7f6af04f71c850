package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/YousefElmenshawy/University-Course-Registration-Website/internal/models"
)

// StudentRepository handles persistence of student profiles and their
// enrollment ledgers.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

const studentColumns = `id, full_name, email, role, gpa, credits_earned, enrolled_sections, waitlisted_sections, created_at, updated_at`

// FindByID returns a student by ID. sql.ErrNoRows passes through so services
// can map it to NOT_FOUND.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	query := fmt.Sprintf(`SELECT %s FROM students WHERE id = $1`, studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// SetEnrolled replaces the student's enrolled-section ledger.
func (r *StudentRepository) SetEnrolled(ctx context.Context, id string, sectionIDs []string) error {
	const query = `UPDATE students SET enrolled_sections = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, pq.Array(sectionIDs), time.Now().UTC()); err != nil {
		return fmt.Errorf("update enrolled ledger: %w", err)
	}
	return nil
}

// SetWaitlisted replaces the student's waitlisted-section ledger.
func (r *StudentRepository) SetWaitlisted(ctx context.Context, id string, sectionIDs []string) error {
	const query = `UPDATE students SET waitlisted_sections = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, pq.Array(sectionIDs), time.Now().UTC()); err != nil {
		return fmt.Errorf("update waitlist ledger: %w", err)
	}
	return nil
}

// SetLedgers replaces both ledgers in one statement, used by admission where
// a section moves between the two membership sets.
func (r *StudentRepository) SetLedgers(ctx context.Context, id string, enrolled, waitlisted []string) error {
	const query = `UPDATE students SET enrolled_sections = $2, waitlisted_sections = $3, updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, pq.Array(enrolled), pq.Array(waitlisted), time.Now().UTC()); err != nil {
		return fmt.Errorf("update ledgers: %w", err)
	}
	return nil
}

// List returns students filtered by the provided criteria.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	var conditions []string
	var args []interface{}

	if filter.Role != nil {
		conditions = append(conditions, fmt.Sprintf("role = $%d", len(args)+1))
		args = append(args, *filter.Role)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(full_name ILIKE $%d OR email ILIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"full_name":  "full_name",
		"email":      "email",
		"created_at": "created_at",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "full_name"
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
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s FROM students%s ORDER BY %s %s LIMIT %d OFFSET %d`,
		studentColumns, clause, orderBy, order, size, offset)

	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	countQuery := "SELECT COUNT(*) FROM students" + clause
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// ListWaitlistedFor returns every student queued for the given section.
func (r *StudentRepository) ListWaitlistedFor(ctx context.Context, sectionID string) ([]models.Student, error) {
	query := fmt.Sprintf(`SELECT %s FROM students WHERE $1 = ANY(waitlisted_sections) ORDER BY updated_at`, studentColumns)
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, sectionID); err != nil {
		return nil, fmt.Errorf("list waitlisted students: %w", err)
	}
	return students, nil
}

// CountMemberships tallies ledger membership for a section. The ledgers are
// the authoritative state; reconciliation derives counter values from them.
func (r *StudentRepository) CountMemberships(ctx context.Context, sectionID string) (enrolled int, waitlisted int, err error) {
	const query = `SELECT
        COUNT(*) FILTER (WHERE $1 = ANY(enrolled_sections)) AS enrolled,
        COUNT(*) FILTER (WHERE $1 = ANY(waitlisted_sections)) AS waitlisted
        FROM students`
	row := r.db.QueryRowxContext(ctx, query, sectionID)
	if err := row.Scan(&enrolled, &waitlisted); err != nil {
		return 0, 0, fmt.Errorf("count section memberships: %w", err)
	}
	return enrolled, waitlisted, nil
}
