package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleAdmin      UserRole = "admin"
	RoleStudent    UserRole = "student"
	RoleFaculty    UserRole = "faculty"
	RoleConsultant UserRole = "consultant"
)

// User represents an application user stored in the users table. Students
// additionally carry a unique StudentID. IsActive plus DeactivatedUntil
// govern login eligibility: a deactivated-until timestamp in the future
// blocks login even when the account is otherwise active.
type User struct {
	ID                string     `db:"id" json:"id"`
	Name              string     `db:"name" json:"name"`
	Username          string     `db:"username" json:"username"`
	Email             string     `db:"email" json:"email"`
	PasswordHash      string     `db:"password_hash" json:"-"`
	Role              UserRole   `db:"role" json:"role"`
	StudentID         *string    `db:"student_id" json:"student_id,omitempty"`
	IsActive          bool       `db:"is_active" json:"is_active"`
	DeactivatedUntil  *time.Time `db:"deactivated_until" json:"deactivated_until,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
}

// CanLogin reports whether the account is currently eligible to log in.
func (u *User) CanLogin(now time.Time) bool {
	if !u.IsActive {
		return false
	}
	if u.DeactivatedUntil != nil && u.DeactivatedUntil.After(now) {
		return false
	}
	return true
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role      string
	Search    string
	Page      int
	Limit     int
	SortBy    string
	SortOrder string
}

// Pagination is the pagination block attached to list responses.
type Pagination struct {
	CurrentPage  int  `json:"currentPage"`
	TotalPages   int  `json:"totalPages"`
	TotalItems   int  `json:"totalItems"`
	ItemsPerPage int  `json:"itemsPerPage"`
	HasNextPage  bool `json:"hasNextPage"`
	HasPrevPage  bool `json:"hasPrevPage"`
}

// NewPagination derives the pagination block from a total row count.
func NewPagination(page, limit, total int) *Pagination {
	if limit <= 0 {
		limit = 1
	}
	totalPages := (total + limit - 1) / limit
	return &Pagination{
		CurrentPage:  page,
		TotalPages:   totalPages,
		TotalItems:   total,
		ItemsPerPage: limit,
		HasNextPage:  page < totalPages,
		HasPrevPage:  page > 1,
	}
}
