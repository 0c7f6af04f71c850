package models

import (
	"time"

	"github.com/lib/pq"
)

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleStudent   UserRole = "STUDENT"
	RoleProfessor UserRole = "PROFESSOR"
	RoleAdmin     UserRole = "ADMIN"
)

// Student holds a learner's profile together with their enrollment ledger.
// The enrolled/waitlisted arrays are the authoritative membership state;
// only the registration and admission services mutate them. GPA and earned
// credits are read-only academic metrics owned by the records office.
type Student struct {
	ID               string         `db:"id" json:"id"`
	FullName         string         `db:"full_name" json:"full_name"`
	Email            string         `db:"email" json:"email"`
	Role             UserRole       `db:"role" json:"role"`
	GPA              float64        `db:"gpa" json:"gpa"`
	CreditsEarned    int            `db:"credits_earned" json:"credits_earned"`
	EnrolledSections pq.StringArray `db:"enrolled_sections" json:"enrolled_sections"`
	WaitlistedIn     pq.StringArray `db:"waitlisted_sections" json:"waitlisted_sections"`
	CreatedAt        time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at" json:"updated_at"`
}

// IsEnrolledIn reports ledger membership for a section.
func (s *Student) IsEnrolledIn(sectionID string) bool {
	return containsID(s.EnrolledSections, sectionID)
}

// IsWaitlistedIn reports waitlist membership for a section.
func (s *Student) IsWaitlistedIn(sectionID string) bool {
	return containsID(s.WaitlistedIn, sectionID)
}

func containsID(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

// StudentSummary is the profile projection returned to the student home
// view: the ledger resolved to full section records plus the credit total.
type StudentSummary struct {
	Student
	Enrolled     []SectionView `json:"enrolled"`
	Waitlisted   []SectionView `json:"waitlisted"`
	TotalCredits int           `json:"total_credits"`
}

// StudentFilter captures admin roster listing criteria.
type StudentFilter struct {
	Role      *UserRole
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
