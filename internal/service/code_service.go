package service

import (
	"context"
	"fmt"
	"regexp"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/acadsuite/campus-core/internal/models"
	appErrors "github.com/acadsuite/campus-core/pkg/errors"
)

// codePattern is the canonical shape of every issued entity code.
var codePattern = regexp.MustCompile(`^\d{2}[a-z]-\d{3}$`)

// typeLetters are fixed per-type constants, not user-configurable.
var typeLetters = map[models.EntityType]string{
	models.EntityStudent: "k",
	models.EntityFaculty: "f",
}

type sequenceAllocator interface {
	AllocateNext(ctx context.Context, entityType models.EntityType, year int) (int, error)
	AllocateNextTx(ctx context.Context, tx *sqlx.Tx, entityType models.EntityType, year int) (int, error)
}

// CodeService mints human-readable entity codes like 24k-001. Allocation
// delegates to the counter table, so codes are collision-free across
// processes; numbers are never reused even if the entity is later deleted.
type CodeService struct {
	sequences sequenceAllocator
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewCodeService constructs CodeService.
func NewCodeService(sequences sequenceAllocator, metrics *MetricsService, logger *zap.Logger) *CodeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CodeService{sequences: sequences, metrics: metrics, logger: logger}
}

// Generate mints the next code for (entityType, year) in its own
// transaction.
func (s *CodeService) Generate(ctx context.Context, entityType models.EntityType, year int) (string, error) {
	letter, ok := typeLetters[entityType]
	if !ok {
		return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown entity type %q", entityType))
	}
	seq, err := s.sequences.AllocateNext(ctx, entityType, year)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to allocate code sequence")
	}
	return s.format(entityType, letter, year, seq)
}

// GenerateTx mints the next code inside the caller's transaction so the
// allocated number commits together with the profile that uses it.
func (s *CodeService) GenerateTx(ctx context.Context, tx *sqlx.Tx, entityType models.EntityType, year int) (string, error) {
	letter, ok := typeLetters[entityType]
	if !ok {
		return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown entity type %q", entityType))
	}
	seq, err := s.sequences.AllocateNextTx(ctx, tx, entityType, year)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to allocate code sequence")
	}
	return s.format(entityType, letter, year, seq)
}

// format renders and validates the code. Failing fast on a pattern
// mismatch beats truncating the sequence, which would silently mint
// colliding codes later.
func (s *CodeService) format(entityType models.EntityType, letter string, year, seq int) (string, error) {
	code := fmt.Sprintf("%02d%s-%03d", year%100, letter, seq)
	if !codePattern.MatchString(code) {
		s.logger.Error("generated code violates pattern",
			zap.String("entity_type", string(entityType)),
			zap.Int("year", year),
			zap.Int("sequence", seq),
			zap.String("code", code),
		)
		return "", appErrors.Clone(appErrors.ErrSequenceOverflow,
			fmt.Sprintf("code %q for %s/%d violates expected pattern", code, entityType, year))
	}
	s.metrics.RecordCodeAllocation(string(entityType))
	return code, nil
}
