package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	ledgerdomain "github.com/smallbiznis/maziwa/internal/ledger/domain"
)

var (
	ErrInvalidFarmer      = errors.New("invalid_farmer")
	ErrNothingToSettle    = errors.New("nothing_to_settle")
	ErrNonPositiveBalance = errors.New("non_positive_balance")
)

// Balance is a farmer's reconciliation snapshot. ActiveDeductions is a
// positive magnitude; NetPayable = PendingRevenue - ActiveDeductions
// and may be negative.
type Balance struct {
	FarmerID         string          `json:"farmer_id"`
	PendingRevenue   decimal.Decimal `json:"pending_revenue"`
	PaidRevenue      decimal.Decimal `json:"paid_revenue"`
	ActiveDeductions decimal.Decimal `json:"active_deductions"`
	NetPayable       decimal.Decimal `json:"net_payable"`
}

// AutoApplyResult reports one deduction sweep across all farmers.
type AutoApplyResult struct {
	FarmersProcessed int             `json:"farmers_processed"`
	TotalApplied     decimal.Decimal `json:"total_applied"`
}

type Service interface {
	ComputeBalance(ctx context.Context, farmerID string) (Balance, error)
	Settle(ctx context.Context, farmerID string) (ledgerdomain.Transaction, error)
	AutoApplyDeductions(ctx context.Context) (AutoApplyResult, error)
}
