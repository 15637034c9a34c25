package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// FacultyStatus is the lifecycle state of a faculty profile.
type FacultyStatus string

// Faculty statuses.
const (
	FacultyStatusActive   FacultyStatus = "active"
	FacultyStatusOnLeave  FacultyStatus = "on_leave"
	FacultyStatusInactive FacultyStatus = "inactive"
)

// Faculty holds the profile row. Salary is derived from the member's active
// section assignments and only written by the salary recomputation engine.
type Faculty struct {
	ID           string          `db:"id" json:"id"`
	UserID       string          `db:"user_id" json:"user_id"`
	FacultyCode  string          `db:"faculty_code" json:"faculty_code"`
	FirstName    string          `db:"first_name" json:"first_name"`
	LastName     string          `db:"last_name" json:"last_name"`
	DepartmentID *string         `db:"department_id" json:"department_id,omitempty"`
	Phone        *string         `db:"phone" json:"phone,omitempty"`
	HireDate     time.Time       `db:"hire_date" json:"hire_date"`
	Status       FacultyStatus   `db:"status" json:"status"`
	Salary       decimal.Decimal `db:"salary" json:"salary"`
}
