package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/smallbiznis/maziwa/pkg/db/pagination"
)

var (
	ErrInvalidFarmer   = errors.New("invalid_farmer")
	ErrInvalidAmount   = errors.New("invalid_amount")
	ErrInvalidQuantity = errors.New("invalid_quantity")
	ErrInvalidID       = errors.New("invalid_id")
	ErrNotFound        = errors.New("not_found")
	ErrAlreadyPaid     = errors.New("already_paid")
)

// PostDeductionRequest posts the feed debt for a delivered request.
type PostDeductionRequest struct {
	FarmerID    string
	RequestID   snowflake.ID
	Cost        decimal.Decimal
	Description string
}

type RecordMilkDeliveryRequest struct {
	FarmerID string          `json:"farmer_id"`
	Liters   decimal.Decimal `json:"liters"`
	// Amount overrides the configured price-per-liter valuation when set.
	Amount decimal.Decimal `json:"amount"`
}

type MarkRevenuePaidRequest struct {
	TransactionID string
}

type ListTransactionsRequest struct {
	FarmerID  string
	Kind      string
	Status    string
	PageToken string
	PageSize  int
}

type ListTransactionsResponse struct {
	pagination.PageInfo
	Transactions []Transaction `json:"transactions"`
}

type Service interface {
	// PostDeduction and RemoveDeductions run inside the caller's
	// transaction so request transitions and ledger writes commit
	// together. PostDeduction is idempotent per request.
	PostDeduction(ctx context.Context, tx *gorm.DB, req PostDeductionRequest) (bool, error)
	RemoveDeductions(ctx context.Context, tx *gorm.DB, requestID snowflake.ID) (int64, error)

	RecordMilkDelivery(ctx context.Context, req RecordMilkDeliveryRequest) (Transaction, error)
	MarkRevenuePaid(ctx context.Context, req MarkRevenuePaidRequest) (Transaction, error)
	List(ctx context.Context, req ListTransactionsRequest) (ListTransactionsResponse, error)
}
