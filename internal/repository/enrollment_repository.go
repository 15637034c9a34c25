package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/acadsuite/campus-core/internal/models"
	"github.com/acadsuite/campus-core/pkg/database"
	appErrors "github.com/acadsuite/campus-core/pkg/errors"
)

// EnrollmentRepository is the capacity-bounded enroll/drop state machine.
// All seat-counting and duplicate checks run under the section row lock so
// concurrent requests serialize instead of racing the capacity check.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

type sectionSeatRow struct {
	MaxCapacity int    `db:"max_capacity"`
	Semester    string `db:"semester"`
}

// Enroll registers the student in the section, enforcing the seat cap and
// the single-active-enrollment rule inside one transaction. On success the
// returned result carries the section semester so the caller can trigger
// fee recomputation after commit.
func (r *EnrollmentRepository) Enroll(ctx context.Context, studentID, sectionID string) (*models.EnrollResult, error) {
	result := &models.EnrollResult{}
	err := database.RunInTx(ctx, r.db, func(tx *sqlx.Tx) error {
		// The section row lock is the serialization point: every enroll and
		// drop for this section takes it first, so the counts below cannot
		// observe another caller's half-applied state.
		var seat sectionSeatRow
		if err := tx.GetContext(ctx, &seat,
			"SELECT max_capacity, semester FROM course_sections WHERE id = $1 FOR UPDATE", sectionID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "section not found")
			}
			return fmt.Errorf("lock section %s: %w", sectionID, err)
		}

		var enrolled int
		if err := tx.GetContext(ctx, &enrolled,
			"SELECT COUNT(*) FROM enrollments WHERE section_id = $1 AND status = $2",
			sectionID, models.EnrollmentStatusEnrolled); err != nil {
			return fmt.Errorf("count enrolled for section %s: %w", sectionID, err)
		}
		if enrolled >= seat.MaxCapacity {
			return appErrors.ErrSectionFull
		}

		var exists int
		err := tx.GetContext(ctx, &exists,
			"SELECT 1 FROM enrollments WHERE student_id = $1 AND section_id = $2 AND status = $3 LIMIT 1",
			studentID, sectionID, models.EnrollmentStatusEnrolled)
		if err == nil {
			return appErrors.ErrAlreadyEnrolled
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("check duplicate enrollment: %w", err)
		}

		enrollmentID := uuid.NewString()
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO enrollments (id, student_id, section_id, enrollment_date, status)
             VALUES ($1, $2, $3, $4, $5)`,
			enrollmentID, studentID, sectionID, time.Now().UTC(), models.EnrollmentStatusEnrolled); err != nil {
			return fmt.Errorf("insert enrollment: %w", err)
		}

		result.EnrollmentID = enrollmentID
		result.Semester = seat.Semester
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Drop marks the student's enrolled row dropped. Capacity frees as soon as
// the transaction commits; there is no grace window or waitlist.
func (r *EnrollmentRepository) Drop(ctx context.Context, studentID, sectionID string) (*models.DropResult, error) {
	result := &models.DropResult{}
	err := database.RunInTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var enrollmentID string
		err := tx.GetContext(ctx, &enrollmentID,
			"SELECT id FROM enrollments WHERE student_id = $1 AND section_id = $2 AND status = $3 FOR UPDATE",
			studentID, sectionID, models.EnrollmentStatusEnrolled)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.ErrNotEnrolled
			}
			return fmt.Errorf("lock enrollment: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			"UPDATE enrollments SET status = $2 WHERE id = $1",
			enrollmentID, models.EnrollmentStatusDropped); err != nil {
			return fmt.Errorf("drop enrollment %s: %w", enrollmentID, err)
		}

		if err := tx.GetContext(ctx, &result.Semester,
			"SELECT semester FROM course_sections WHERE id = $1", sectionID); err != nil {
			return fmt.Errorf("read section semester: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ListByStudent returns all of the student's enrollments with course info.
func (r *EnrollmentRepository) ListByStudent(ctx context.Context, studentID string) ([]models.EnrollmentDetail, error) {
	const query = `SELECT e.id, e.student_id, e.section_id, e.enrollment_date, e.status,
        cs.section_code, cs.semester, cs.year, c.course_code, c.course_name, c.credits
        FROM enrollments e
        JOIN course_sections cs ON cs.id = e.section_id
        JOIN courses c ON c.id = cs.course_id
        WHERE e.student_id = $1
        ORDER BY e.enrollment_date DESC`
	var details []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &details, query, studentID); err != nil {
		return nil, fmt.Errorf("list enrollments for student %s: %w", studentID, err)
	}
	return details, nil
}

// ActiveStudentSemesters returns the distinct (student, semester) pairs that
// currently have fee-relevant state. The reconciliation sweep recomputes
// each pair; the recomputation itself is idempotent so re-listing a pair is
// harmless.
func (r *EnrollmentRepository) ActiveStudentSemesters(ctx context.Context) ([]models.StudentSemester, error) {
	const query = `SELECT student_id, semester FROM fee_details
        UNION
        SELECT e.student_id, cs.semester
        FROM enrollments e
        JOIN course_sections cs ON cs.id = e.section_id
        WHERE e.status = $1`
	var pairs []models.StudentSemester
	if err := r.db.SelectContext(ctx, &pairs, query, models.EnrollmentStatusEnrolled); err != nil {
		return nil, fmt.Errorf("list student semesters: %w", err)
	}
	return pairs, nil
}
