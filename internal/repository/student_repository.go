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
	appErrors "github.com/acadsuite/campus-core/pkg/errors"
)

// StudentRepository handles student persistence. fee_balance is written by
// the fee repository only.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// CreateTx inserts the student profile inside the caller's transaction so
// the minted student code and the profile commit together.
func (r *StudentRepository) CreateTx(ctx context.Context, tx *sqlx.Tx, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	const query = `INSERT INTO students (id, user_id, student_code, first_name, last_name, phone, enrollment_date, major_dept_id, current_semester, status, fee_balance)
        VALUES (:id, :user_id, :student_code, :first_name, :last_name, :phone, :enrollment_date, :major_dept_id, :current_semester, :status, :fee_balance)`
	if _, err := tx.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// FindByID returns a student.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	const query = `SELECT id, user_id, student_code, first_name, last_name, phone, enrollment_date, major_dept_id, current_semester, status, fee_balance
        FROM students WHERE id = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, fmt.Errorf("find student %s: %w", id, err)
	}
	return &student, nil
}

// FindByCode returns a student by their human-readable code.
func (r *StudentRepository) FindByCode(ctx context.Context, code string) (*models.Student, error) {
	const query = `SELECT id, user_id, student_code, first_name, last_name, phone, enrollment_date, major_dept_id, current_semester, status, fee_balance
        FROM students WHERE student_code = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, code); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, fmt.Errorf("find student by code %s: %w", code, err)
	}
	return &student, nil
}

// List returns students filtered and paginated.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	base := "FROM students"
	var conditions []string
	var args []interface{}

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(first_name ILIKE $%d OR last_name ILIKE $%d OR student_code ILIKE $%d)",
			len(args)+1, len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"student_code": "student_code",
		"last_name":    "last_name",
		"fee_balance":  "fee_balance",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "student_code"
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

	query := fmt.Sprintf(`SELECT id, user_id, student_code, first_name, last_name, phone, enrollment_date, major_dept_id, current_semester, status, fee_balance
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base+clause, orderBy, order, size, offset)

	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	countQuery := "SELECT COUNT(*) " + base + clause
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}
