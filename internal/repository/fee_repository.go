package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/acadsuite/campus-core/internal/models"
	"github.com/acadsuite/campus-core/pkg/database"
	appErrors "github.com/acadsuite/campus-core/pkg/errors"
)

// FeeRepository recomputes the derived fee columns. tuition_fee, amount_due
// and students.fee_balance are materialized aggregates: they are always
// rebuilt from the enrollment and ledger rows, never adjusted incrementally.
type FeeRepository struct {
	db *sqlx.DB
}

// NewFeeRepository constructs the repository.
func NewFeeRepository(db *sqlx.DB) *FeeRepository {
	return &FeeRepository{db: db}
}

type feeLockRow struct {
	ID               string          `db:"id"`
	LabFee           decimal.Decimal `db:"lab_fee"`
	MiscellaneousFee decimal.Decimal `db:"miscellaneous_fee"`
	AmountPaid       decimal.Decimal `db:"amount_paid"`
}

// RecomputeSemester rebuilds the student's tuition charge for the semester
// and their overall balance, in one transaction. Calling it twice with no
// intervening state change leaves every derived field untouched.
func (r *FeeRepository) RecomputeSemester(ctx context.Context, studentID, semester string) error {
	return database.RunInTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var tuition decimal.Decimal
		if err := tx.GetContext(ctx, &tuition,
			`SELECT COALESCE(SUM(c.credits * c.fee_per_credit), 0)
             FROM enrollments e
             JOIN course_sections cs ON cs.id = e.section_id
             JOIN courses c ON c.id = cs.course_id
             WHERE e.student_id = $1 AND e.status = $2 AND cs.semester = $3`,
			studentID, models.EnrollmentStatusEnrolled, semester); err != nil {
			return fmt.Errorf("sum tuition for %s/%s: %w", studentID, semester, err)
		}

		var existing feeLockRow
		err := tx.GetContext(ctx, &existing,
			`SELECT id, lab_fee, miscellaneous_fee, amount_paid
             FROM fee_details WHERE student_id = $1 AND semester = $2 FOR UPDATE`,
			studentID, semester)
		switch {
		case err == nil:
			// Preserve the non-derived components; only tuition and the
			// total due are rebuilt.
			amountDue := tuition.Add(existing.LabFee).Add(existing.MiscellaneousFee)
			if _, err := tx.ExecContext(ctx,
				"UPDATE fee_details SET tuition_fee = $2, amount_due = $3 WHERE id = $1",
				existing.ID, tuition, amountDue); err != nil {
				return fmt.Errorf("update fee detail %s: %w", existing.ID, err)
			}
		case errors.Is(err, sql.ErrNoRows):
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO fee_details (id, student_id, semester, tuition_fee, lab_fee, miscellaneous_fee, amount_due, amount_paid, status)
                 VALUES ($1, $2, $3, $4, 0, 0, $4, 0, $5)`,
				uuid.NewString(), studentID, semester, tuition, models.FeeStatusPending); err != nil {
				return fmt.Errorf("insert fee detail for %s/%s: %w", studentID, semester, err)
			}
		default:
			return fmt.Errorf("lock fee detail for %s/%s: %w", studentID, semester, err)
		}

		var balance decimal.Decimal
		if err := tx.GetContext(ctx, &balance,
			"SELECT COALESCE(SUM(amount_due - amount_paid), 0) FROM fee_details WHERE student_id = $1",
			studentID); err != nil {
			return fmt.Errorf("sum balance for %s: %w", studentID, err)
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE students SET fee_balance = $2 WHERE id = $1", studentID, balance); err != nil {
			return fmt.Errorf("update fee balance for %s: %w", studentID, err)
		}
		return nil
	})
}

// MarkPaid settles a fee row: amount_paid snaps to amount_due and the row
// flips to paid. The caller is expected to run RecomputeSemester afterwards
// so fee_balance reflects the payment.
func (r *FeeRepository) MarkPaid(ctx context.Context, feeID string) (*models.StudentSemester, error) {
	target := &models.StudentSemester{}
	err := database.RunInTx(ctx, r.db, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, target,
			"SELECT student_id, semester FROM fee_details WHERE id = $1 FOR UPDATE", feeID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "fee record not found")
			}
			return fmt.Errorf("lock fee detail %s: %w", feeID, err)
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE fee_details SET status = $2, payment_date = $3, amount_paid = amount_due WHERE id = $1",
			feeID, models.FeeStatusPaid, time.Now().UTC()); err != nil {
			return fmt.Errorf("mark fee %s paid: %w", feeID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return target, nil
}

// ListByStudent returns the student's fee ledger across semesters.
func (r *FeeRepository) ListByStudent(ctx context.Context, studentID string) ([]models.FeeDetail, error) {
	const query = `SELECT id, student_id, semester, tuition_fee, lab_fee, miscellaneous_fee,
        amount_due, amount_paid, status, due_date, payment_date
        FROM fee_details WHERE student_id = $1 ORDER BY semester`
	var fees []models.FeeDetail
	if err := r.db.SelectContext(ctx, &fees, query, studentID); err != nil {
		return nil, fmt.Errorf("list fees for student %s: %w", studentID, err)
	}
	return fees, nil
}
