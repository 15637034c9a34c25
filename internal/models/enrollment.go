package models

import "time"

// EnrollmentStatus represents the lifecycle of an enrollment.
type EnrollmentStatus string

// Possible enrollment statuses. Only enrolled rows count toward section
// capacity; dropped rows are retained for history and never deleted.
const (
	EnrollmentStatusEnrolled EnrollmentStatus = "enrolled"
	EnrollmentStatusDropped  EnrollmentStatus = "dropped"
)

// Enrollment captures a student's seat in a course section. The enrolled →
// dropped transition is one-way; re-enrolling creates a fresh row.
type Enrollment struct {
	ID             string           `db:"id" json:"id"`
	StudentID      string           `db:"student_id" json:"student_id"`
	SectionID      string           `db:"section_id" json:"section_id"`
	EnrollmentDate time.Time        `db:"enrollment_date" json:"enrollment_date"`
	Status         EnrollmentStatus `db:"status" json:"status"`
}

// EnrollmentDetail enriches Enrollment with course and section info.
type EnrollmentDetail struct {
	Enrollment
	SectionCode string `db:"section_code" json:"section_code"`
	CourseCode  string `db:"course_code" json:"course_code"`
	CourseName  string `db:"course_name" json:"course_name"`
	Credits     int    `db:"credits" json:"credits"`
	Semester    string `db:"semester" json:"semester"`
	Year        int    `db:"year" json:"year"`
}

// EnrollResult is returned by a successful enroll: the new row's id plus
// the section semester the caller needs to trigger fee recomputation.
type EnrollResult struct {
	EnrollmentID string `json:"enrollment_id"`
	Semester     string `json:"semester"`
}

// DropResult carries the semester freed by a drop.
type DropResult struct {
	Semester string `json:"semester"`
}

// StudentSemester identifies one fee recomputation unit for the sweep.
type StudentSemester struct {
	StudentID string `db:"student_id" json:"student_id"`
	Semester  string `db:"semester" json:"semester"`
}
