package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/acadsuite/campus-core/internal/models"
	"github.com/acadsuite/campus-core/pkg/database"
)

// SequenceRepository owns the code_sequences counter rows. No other
// component writes last_seq.
type SequenceRepository struct {
	db *sqlx.DB
}

// NewSequenceRepository constructs the repository.
func NewSequenceRepository(db *sqlx.DB) *SequenceRepository {
	return &SequenceRepository{db: db}
}

// allocateQuery bumps the counter and reads the result in one round trip.
// The upsert-then-return shape closes the race window between two
// concurrent allocations for the same (entity_type, year): both serialize
// on the counter row and each sees a distinct value.
const allocateQuery = `INSERT INTO code_sequences (entity_type, year, last_seq)
        VALUES ($1, $2, 1)
        ON CONFLICT (entity_type, year)
        DO UPDATE SET last_seq = code_sequences.last_seq + 1
        RETURNING last_seq`

// AllocateNextTx allocates the next sequence number inside the caller's
// transaction. First allocation for a (type, year) yields 1.
func (r *SequenceRepository) AllocateNextTx(ctx context.Context, tx *sqlx.Tx, entityType models.EntityType, year int) (int, error) {
	var seq int
	if err := tx.GetContext(ctx, &seq, allocateQuery, entityType, year); err != nil {
		return 0, fmt.Errorf("allocate sequence %s/%d: %w", entityType, year, err)
	}
	return seq, nil
}

// AllocateNext allocates the next sequence number in its own transaction.
func (r *SequenceRepository) AllocateNext(ctx context.Context, entityType models.EntityType, year int) (int, error) {
	var seq int
	err := database.RunInTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var txErr error
		seq, txErr = r.AllocateNextTx(ctx, tx, entityType, year)
		return txErr
	})
	if err != nil {
		return 0, err
	}
	return seq, nil
}
