package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/acadsuite/campus-core/internal/models"
	"github.com/acadsuite/campus-core/pkg/database"
	appErrors "github.com/acadsuite/campus-core/pkg/errors"
)

type studentStore interface {
	CreateTx(ctx context.Context, tx *sqlx.Tx, student *models.Student) error
	FindByID(ctx context.Context, id string) (*models.Student, error)
	FindByCode(ctx context.Context, code string) (*models.Student, error)
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
}

// CreateStudentRequest is the payload for registering a student.
type CreateStudentRequest struct {
	Username    string  `json:"username" validate:"required,min=3,max=50"`
	Password    string  `json:"password" validate:"required,min=8"`
	Email       string  `json:"email" validate:"required,email"`
	FirstName   string  `json:"first_name" validate:"required,max=100"`
	LastName    string  `json:"last_name" validate:"required,max=100"`
	Phone       *string `json:"phone,omitempty"`
	MajorDeptID *string `json:"major_dept_id,omitempty"`
}

// StudentService registers students. The account row, the minted student
// code and the profile commit in one transaction so a partially created
// registration never becomes visible.
type StudentService struct {
	db       database.TxBeginner
	users    userCreator
	students studentStore
	codes    codeMinter
	validate *validator.Validate
	logger   *zap.Logger
}

// NewStudentService constructs StudentService.
func NewStudentService(db database.TxBeginner, users userCreator, students studentStore, codes codeMinter, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{
		db:       db,
		users:    users,
		students: students,
		codes:    codes,
		validate: validate,
		logger:   logger,
	}
}

// Create registers a student with a freshly minted code. New students start
// in their first semester with a zero balance; the first enrollment's fee
// recompute establishes the real charge.
func (s *StudentService) Create(ctx context.Context, req CreateStudentRequest) (*models.Student, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student request")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	now := time.Now().UTC()
	student := &models.Student{
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Phone:           req.Phone,
		EnrollmentDate:  now,
		MajorDeptID:     req.MajorDeptID,
		CurrentSemester: 1,
		Status:          models.StudentStatusActive,
	}

	err = database.RunInTx(ctx, s.db, func(tx *sqlx.Tx) error {
		user := &models.User{
			Username:     req.Username,
			PasswordHash: string(hash),
			Email:        req.Email,
			Role:         models.RoleStudent,
			CreatedAt:    now,
		}
		if err := s.users.CreateTx(ctx, tx, user); err != nil {
			return err
		}

		code, err := s.codes.GenerateTx(ctx, tx, models.EntityStudent, now.Year())
		if err != nil {
			return err
		}

		student.UserID = user.ID
		student.StudentCode = code
		return s.students.CreateTx(ctx, tx, student)
	})
	if err != nil {
		return nil, err
	}
	return student, nil
}

// Get returns a student by id.
func (s *StudentService) Get(ctx context.Context, id string) (*models.Student, error) {
	return s.students.FindByID(ctx, id)
}

// GetByCode returns a student by their human-readable code.
func (s *StudentService) GetByCode(ctx context.Context, code string) (*models.Student, error) {
	return s.students.FindByCode(ctx, code)
}

// List returns students with pagination metadata.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	students, total, err := s.students.List(ctx, filter)
	if err != nil {
		return nil, nil, err
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return students, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}
