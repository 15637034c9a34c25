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

type facultyStore interface {
	CreateTx(ctx context.Context, tx *sqlx.Tx, faculty *models.Faculty) error
	FindByID(ctx context.Context, id string) (*models.Faculty, error)
	RecomputeSalary(ctx context.Context, facultyID string) error
}

type userCreator interface {
	CreateTx(ctx context.Context, tx *sqlx.Tx, user *models.User) error
}

type codeMinter interface {
	GenerateTx(ctx context.Context, tx *sqlx.Tx, entityType models.EntityType, year int) (string, error)
}

// CreateFacultyRequest is the payload for onboarding a faculty member.
type CreateFacultyRequest struct {
	Username     string  `json:"username" validate:"required,min=3,max=50"`
	Password     string  `json:"password" validate:"required,min=8"`
	Email        string  `json:"email" validate:"required,email"`
	FirstName    string  `json:"first_name" validate:"required,max=100"`
	LastName     string  `json:"last_name" validate:"required,max=100"`
	DepartmentID *string `json:"department_id,omitempty"`
	Phone        *string `json:"phone,omitempty"`
}

// FacultyService onboards faculty members and owns the salary recompute
// policy. The account row, the minted faculty code and the profile commit
// in one transaction; an abandoned code never appears because the counter
// bump rolls back with everything else.
type FacultyService struct {
	db        database.TxBeginner
	users     userCreator
	faculty   facultyStore
	codes     codeMinter
	scheduler recomputeScheduler
	metrics   *MetricsService
	validate  *validator.Validate
	logger    *zap.Logger
}

// NewFacultyService constructs FacultyService. scheduler may be nil.
func NewFacultyService(db database.TxBeginner, users userCreator, faculty facultyStore, codes codeMinter, scheduler recomputeScheduler, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *FacultyService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FacultyService{
		db:        db,
		users:     users,
		faculty:   faculty,
		codes:     codes,
		scheduler: scheduler,
		metrics:   metrics,
		validate:  validate,
		logger:    logger,
	}
}

// Create onboards a faculty member: account, code and profile in one
// transaction. A fresh hire has no sections, so salary starts at zero.
func (s *FacultyService) Create(ctx context.Context, req CreateFacultyRequest) (*models.Faculty, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid faculty request")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	now := time.Now().UTC()
	faculty := &models.Faculty{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		DepartmentID: req.DepartmentID,
		Phone:        req.Phone,
		HireDate:     now,
		Status:       models.FacultyStatusActive,
	}

	err = database.RunInTx(ctx, s.db, func(tx *sqlx.Tx) error {
		user := &models.User{
			Username:     req.Username,
			PasswordHash: string(hash),
			Email:        req.Email,
			Role:         models.RoleFaculty,
			CreatedAt:    now,
		}
		if err := s.users.CreateTx(ctx, tx, user); err != nil {
			return err
		}

		code, err := s.codes.GenerateTx(ctx, tx, models.EntityFaculty, now.Year())
		if err != nil {
			return err
		}

		faculty.UserID = user.ID
		faculty.FacultyCode = code
		return s.faculty.CreateTx(ctx, tx, faculty)
	})
	if err != nil {
		return nil, err
	}
	return faculty, nil
}

// Get returns a faculty member by id.
func (s *FacultyService) Get(ctx context.Context, id string) (*models.Faculty, error) {
	return s.faculty.FindByID(ctx, id)
}

// Recompute rebuilds the member's salary and reports the error.
func (s *FacultyService) Recompute(ctx context.Context, facultyID string) error {
	start := time.Now()
	err := s.faculty.RecomputeSalary(ctx, facultyID)
	s.metrics.ObserveRecompute("salary", time.Since(start))
	return err
}

// RecomputeBestEffort rebuilds the salary after a committed section change.
// The section change stands either way; a failure leaves a stale salary,
// which is logged, counted and queued for the reconciler.
func (s *FacultyService) RecomputeBestEffort(ctx context.Context, facultyID string) {
	if err := s.Recompute(ctx, facultyID); err != nil {
		s.metrics.RecordRecomputeFailure("salary")
		s.logger.Error("salary recompute failed, deferring to reconciler",
			zap.String("faculty_id", facultyID),
			zap.Error(err),
		)
		if s.scheduler != nil {
			s.scheduler.ScheduleSalaryRecompute(facultyID)
		}
	}
}
