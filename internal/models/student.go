package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// StudentStatus is the lifecycle state of a student profile.
type StudentStatus string

// Student statuses.
const (
	StudentStatusActive    StudentStatus = "active"
	StudentStatusSuspended StudentStatus = "suspended"
	StudentStatusGraduated StudentStatus = "graduated"
)

// Student holds the profile row. FeeBalance is derived — it is only ever
// written by the fee recomputation engine.
type Student struct {
	ID              string          `db:"id" json:"id"`
	UserID          string          `db:"user_id" json:"user_id"`
	StudentCode     string          `db:"student_code" json:"student_code"`
	FirstName       string          `db:"first_name" json:"first_name"`
	LastName        string          `db:"last_name" json:"last_name"`
	Phone           *string         `db:"phone" json:"phone,omitempty"`
	EnrollmentDate  time.Time       `db:"enrollment_date" json:"enrollment_date"`
	MajorDeptID     *string         `db:"major_dept_id" json:"major_dept_id,omitempty"`
	CurrentSemester int             `db:"current_semester" json:"current_semester"`
	Status          StudentStatus   `db:"status" json:"status"`
	FeeBalance      decimal.Decimal `db:"fee_balance" json:"fee_balance"`
}

// StudentFilter provides filters for listing students.
type StudentFilter struct {
	Status    StudentStatus
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
