package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// TransactionKind classifies ledger entries.
type TransactionKind string

const (
	KindRevenue              TransactionKind = "revenue"
	KindFeedDeduction        TransactionKind = "feed_deduction"
	KindSettlementPayment    TransactionKind = "settlement_payment"
	KindDeductionApplication TransactionKind = "deduction_application"
)

// TransactionStatus tracks an entry through its lifecycle. Revenue moves
// pending -> paid, deductions move active -> processed, payments and
// applications are written completed.
type TransactionStatus string

const (
	StatusPending   TransactionStatus = "pending"
	StatusPaid      TransactionStatus = "paid"
	StatusActive    TransactionStatus = "active"
	StatusProcessed TransactionStatus = "processed"
	StatusCompleted TransactionStatus = "completed"
)

// Transaction is one immutable-amount ledger entry. Deduction amounts
// are stored negative; revenue and payments positive.
type Transaction struct {
	ID              snowflake.ID      `gorm:"primaryKey" json:"id"`
	FarmerID        string            `gorm:"not null;index:idx_transactions_farmer_kind_status" json:"farmer_id"`
	Kind            TransactionKind   `gorm:"not null;index:idx_transactions_farmer_kind_status" json:"kind"`
	Status          TransactionStatus `gorm:"not null;index:idx_transactions_farmer_kind_status" json:"status"`
	Amount          decimal.Decimal   `gorm:"type:numeric;not null" json:"amount"`
	Quantity        decimal.Decimal   `gorm:"type:numeric;not null" json:"quantity"`
	Description     string            `json:"description,omitempty"`
	LinkedRequestID snowflake.ID      `gorm:"index" json:"linked_request_id,omitempty"`
	PaymentID       snowflake.ID      `gorm:"index" json:"payment_id,omitempty"`

	// GrossAmount and DeductionAmount reconstruct how a settlement or
	// application arrived at its net Amount.
	GrossAmount     decimal.Decimal `gorm:"type:numeric;not null" json:"gross_amount"`
	DeductionAmount decimal.Decimal `gorm:"type:numeric;not null" json:"deduction_amount"`

	PaidAmount  decimal.Decimal `gorm:"type:numeric;not null" json:"paid_amount"`
	PaidAt      *time.Time      `json:"paid_at,omitempty"`
	ProcessedAt *time.Time      `json:"processed_at,omitempty"`
	CreatedAt   time.Time       `gorm:"not null;index" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"not null" json:"updated_at"`
}
