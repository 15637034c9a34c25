package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/acadsuite/campus-core/internal/models"
	"github.com/acadsuite/campus-core/pkg/database"
	appErrors "github.com/acadsuite/campus-core/pkg/errors"
)

// FacultyRepository handles faculty persistence and the derived salary
// column. Salary is always rebuilt from the active section set, never
// adjusted in place.
type FacultyRepository struct {
	db *sqlx.DB
}

// NewFacultyRepository constructs the repository.
func NewFacultyRepository(db *sqlx.DB) *FacultyRepository {
	return &FacultyRepository{db: db}
}

// RecomputeSalary rebuilds the member's salary from their currently active
// assigned sections in one transaction.
func (r *FacultyRepository) RecomputeSalary(ctx context.Context, facultyID string) error {
	return database.RunInTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var salary decimal.Decimal
		if err := tx.GetContext(ctx, &salary,
			`SELECT COALESCE(SUM(c.credits * c.fee_per_credit), 0)
             FROM course_sections cs
             JOIN courses c ON c.id = cs.course_id
             WHERE cs.faculty_id = $1 AND cs.is_active = TRUE`, facultyID); err != nil {
			return fmt.Errorf("sum salary for faculty %s: %w", facultyID, err)
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE faculty SET salary = $2 WHERE id = $1", facultyID, salary); err != nil {
			return fmt.Errorf("update salary for faculty %s: %w", facultyID, err)
		}
		return nil
	})
}

// CreateTx inserts the faculty profile inside the caller's transaction.
func (r *FacultyRepository) CreateTx(ctx context.Context, tx *sqlx.Tx, faculty *models.Faculty) error {
	if faculty.ID == "" {
		faculty.ID = uuid.NewString()
	}
	const query = `INSERT INTO faculty (id, user_id, faculty_code, first_name, last_name, department_id, phone, hire_date, status, salary)
        VALUES (:id, :user_id, :faculty_code, :first_name, :last_name, :department_id, :phone, :hire_date, :status, :salary)`
	if _, err := tx.NamedExecContext(ctx, query, faculty); err != nil {
		return fmt.Errorf("create faculty: %w", err)
	}
	return nil
}

// FindByID returns a faculty member.
func (r *FacultyRepository) FindByID(ctx context.Context, id string) (*models.Faculty, error) {
	const query = `SELECT id, user_id, faculty_code, first_name, last_name, department_id, phone, hire_date, status, salary
        FROM faculty WHERE id = $1`
	var faculty models.Faculty
	if err := r.db.GetContext(ctx, &faculty, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "faculty not found")
		}
		return nil, fmt.Errorf("find faculty %s: %w", id, err)
	}
	return &faculty, nil
}

// ListIDs returns all faculty ids, used by the reconciliation sweep.
func (r *FacultyRepository) ListIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, "SELECT id FROM faculty"); err != nil {
		return nil, fmt.Errorf("list faculty ids: %w", err)
	}
	return ids, nil
}
