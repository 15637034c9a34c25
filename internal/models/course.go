package models

import "github.com/shopspring/decimal"

// Course is the catalogue entry sections are scheduled from.
type Course struct {
	ID           string          `db:"id" json:"id"`
	CourseCode   string          `db:"course_code" json:"course_code"`
	CourseName   string          `db:"course_name" json:"course_name"`
	Credits      int             `db:"credits" json:"credits"`
	FeePerCredit decimal.Decimal `db:"fee_per_credit" json:"fee_per_credit"`
	DepartmentID *string         `db:"department_id" json:"department_id,omitempty"`
}

// CourseSection is one scheduled offering of a course. The capacity
// invariant (enrolled count never above MaxCapacity) is enforced by the
// enrollment repository under row locks, not here.
type CourseSection struct {
	ID          string  `db:"id" json:"id"`
	CourseID    string  `db:"course_id" json:"course_id"`
	FacultyID   *string `db:"faculty_id" json:"faculty_id,omitempty"`
	SectionCode string  `db:"section_code" json:"section_code"`
	Semester    string  `db:"semester" json:"semester"`
	Year        int     `db:"year" json:"year"`
	Schedule    *string `db:"schedule" json:"schedule,omitempty"`
	Room        *string `db:"room" json:"room,omitempty"`
	MaxCapacity int     `db:"max_capacity" json:"max_capacity"`
	IsActive    bool    `db:"is_active" json:"is_active"`
}

// SectionAvailability is the read model for the seats-left listing.
type SectionAvailability struct {
	SectionID    string          `db:"section_id" json:"section_id"`
	SectionCode  string          `db:"section_code" json:"section_code"`
	CourseCode   string          `db:"course_code" json:"course_code"`
	CourseName   string          `db:"course_name" json:"course_name"`
	Credits      int             `db:"credits" json:"credits"`
	FeePerCredit decimal.Decimal `db:"fee_per_credit" json:"fee_per_credit"`
	Semester     string          `db:"semester" json:"semester"`
	Year         int             `db:"year" json:"year"`
	MaxCapacity  int             `db:"max_capacity" json:"max_capacity"`
	Enrolled     int             `db:"enrolled" json:"enrolled"`
	SeatsLeft    int             `db:"-" json:"seats_left"`
}

// SectionUpdate carries the mutable section fields for an update. Nil
// pointers leave the column untouched.
type SectionUpdate struct {
	FacultyID   *string `json:"faculty_id,omitempty"`
	Schedule    *string `json:"schedule,omitempty"`
	Room        *string `json:"room,omitempty"`
	MaxCapacity *int    `json:"max_capacity,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}
