package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// FeeStatus marks whether a semester's fees have been settled.
type FeeStatus string

// Fee statuses.
const (
	FeeStatusPending FeeStatus = "pending"
	FeeStatusPaid    FeeStatus = "paid"
)

// FeeDetail is the per-(student, semester) fee ledger row. TuitionFee and
// AmountDue are derived by the fee recomputation engine; LabFee,
// MiscellaneousFee and AmountPaid are inputs it preserves.
type FeeDetail struct {
	ID               string          `db:"id" json:"id"`
	StudentID        string          `db:"student_id" json:"student_id"`
	Semester         string          `db:"semester" json:"semester"`
	TuitionFee       decimal.Decimal `db:"tuition_fee" json:"tuition_fee"`
	LabFee           decimal.Decimal `db:"lab_fee" json:"lab_fee"`
	MiscellaneousFee decimal.Decimal `db:"miscellaneous_fee" json:"miscellaneous_fee"`
	AmountDue        decimal.Decimal `db:"amount_due" json:"amount_due"`
	AmountPaid       decimal.Decimal `db:"amount_paid" json:"amount_paid"`
	Status           FeeStatus       `db:"status" json:"status"`
	DueDate          *time.Time      `db:"due_date" json:"due_date,omitempty"`
	PaymentDate      *time.Time      `db:"payment_date" json:"payment_date,omitempty"`
}
