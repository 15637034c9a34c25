package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/acadsuite/campus-core/internal/models"
	"github.com/acadsuite/campus-core/pkg/database"
	appErrors "github.com/acadsuite/campus-core/pkg/errors"
)

// SectionRepository handles course section persistence, including the
// faculty teaching limit enforced at assignment time.
type SectionRepository struct {
	db          *sqlx.DB
	maxSections int
}

// NewSectionRepository constructs the repository. maxSections caps the
// number of active sections one faculty member may teach.
func NewSectionRepository(db *sqlx.DB, maxSections int) *SectionRepository {
	if maxSections <= 0 {
		maxSections = 3
	}
	return &SectionRepository{db: db, maxSections: maxSections}
}

// SectionChange reports which derived salaries a section mutation touched.
type SectionChange struct {
	OldFacultyID *string
	NewFacultyID *string
}

// checkTeachingLimit counts the faculty member's active sections after
// taking their profile row lock. The faculty row is the serialization
// point: concurrent assignments for the same member queue on it, so the
// count cannot race past the limit.
func (r *SectionRepository) checkTeachingLimit(ctx context.Context, tx *sqlx.Tx, facultyID string) error {
	var locked string
	if err := tx.GetContext(ctx, &locked,
		"SELECT id FROM faculty WHERE id = $1 FOR UPDATE", facultyID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "faculty not found")
		}
		return fmt.Errorf("lock faculty %s: %w", facultyID, err)
	}
	var active int
	if err := tx.GetContext(ctx, &active,
		"SELECT COUNT(*) FROM course_sections WHERE faculty_id = $1 AND is_active = TRUE", facultyID); err != nil {
		return fmt.Errorf("count active sections for faculty %s: %w", facultyID, err)
	}
	if active >= r.maxSections {
		return appErrors.ErrTeachingLimit
	}
	return nil
}

// Create persists a new section. When a faculty member is pre-assigned the
// teaching limit is enforced under their row lock.
func (r *SectionRepository) Create(ctx context.Context, section *models.CourseSection) error {
	if section.ID == "" {
		section.ID = uuid.NewString()
	}
	return database.RunInTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if section.FacultyID != nil {
			if err := r.checkTeachingLimit(ctx, tx, *section.FacultyID); err != nil {
				return err
			}
		}
		const query = `INSERT INTO course_sections (id, course_id, faculty_id, section_code, semester, year, schedule, room, max_capacity, is_active)
            VALUES (:id, :course_id, :faculty_id, :section_code, :semester, :year, :schedule, :room, :max_capacity, :is_active)`
		if _, err := tx.NamedExecContext(ctx, query, section); err != nil {
			return fmt.Errorf("create section: %w", err)
		}
		return nil
	})
}

type sectionStateRow struct {
	FacultyID *string `db:"faculty_id"`
	IsActive  bool    `db:"is_active"`
}

// Update applies the partial update and reports the previous and current
// faculty assignment so the caller can recompute both salaries.
func (r *SectionRepository) Update(ctx context.Context, id string, update models.SectionUpdate) (*SectionChange, error) {
	change := &SectionChange{}
	err := database.RunInTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var before sectionStateRow
		if err := tx.GetContext(ctx, &before,
			"SELECT faculty_id, is_active FROM course_sections WHERE id = $1 FOR UPDATE", id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "section not found")
			}
			return fmt.Errorf("lock section %s: %w", id, err)
		}

		assigningNewFaculty := update.FacultyID != nil &&
			(before.FacultyID == nil || *before.FacultyID != *update.FacultyID)
		if assigningNewFaculty {
			if err := r.checkTeachingLimit(ctx, tx, *update.FacultyID); err != nil {
				return err
			}
		}

		var sets []string
		var args []interface{}
		add := func(column string, value interface{}) {
			args = append(args, value)
			sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
		}
		if update.FacultyID != nil {
			add("faculty_id", *update.FacultyID)
		}
		if update.Schedule != nil {
			add("schedule", *update.Schedule)
		}
		if update.Room != nil {
			add("room", *update.Room)
		}
		if update.MaxCapacity != nil {
			add("max_capacity", *update.MaxCapacity)
		}
		if update.IsActive != nil {
			add("is_active", *update.IsActive)
		}
		if len(sets) == 0 {
			return appErrors.Clone(appErrors.ErrValidation, "no section fields to update")
		}
		args = append(args, id)
		query := fmt.Sprintf("UPDATE course_sections SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("update section %s: %w", id, err)
		}

		var after sectionStateRow
		if err := tx.GetContext(ctx, &after,
			"SELECT faculty_id, is_active FROM course_sections WHERE id = $1", id); err != nil {
			return fmt.Errorf("reload section %s: %w", id, err)
		}
		change.OldFacultyID = before.FacultyID
		change.NewFacultyID = after.FacultyID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return change, nil
}

// FindByID returns a section.
func (r *SectionRepository) FindByID(ctx context.Context, id string) (*models.CourseSection, error) {
	const query = `SELECT id, course_id, faculty_id, section_code, semester, year, schedule, room, max_capacity, is_active
        FROM course_sections WHERE id = $1`
	var section models.CourseSection
	if err := r.db.GetContext(ctx, &section, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return nil, fmt.Errorf("find section %s: %w", id, err)
	}
	return &section, nil
}

// Availability lists active sections for the semester/year with their
// current enrolled counts. This is a read model for listings only; enroll
// itself re-counts under the section lock and never trusts these numbers.
func (r *SectionRepository) Availability(ctx context.Context, semester string, year int) ([]models.SectionAvailability, error) {
	const query = `SELECT cs.id AS section_id, cs.section_code, c.course_code, c.course_name, c.credits, c.fee_per_credit,
        cs.semester, cs.year, cs.max_capacity,
        (SELECT COUNT(*) FROM enrollments e WHERE e.section_id = cs.id AND e.status = $3) AS enrolled
        FROM course_sections cs
        JOIN courses c ON c.id = cs.course_id
        WHERE cs.semester = $1 AND cs.year = $2 AND cs.is_active = TRUE
        ORDER BY c.course_code, cs.section_code`
	var sections []models.SectionAvailability
	if err := r.db.SelectContext(ctx, &sections, query, semester, year, models.EnrollmentStatusEnrolled); err != nil {
		return nil, fmt.Errorf("list availability %s/%d: %w", semester, year, err)
	}
	for i := range sections {
		sections[i].SeatsLeft = sections[i].MaxCapacity - sections[i].Enrolled
	}
	return sections, nil
}
