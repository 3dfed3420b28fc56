package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidID       = errors.New("invalid_id")
	ErrInvalidFarmer   = errors.New("invalid_farmer")
	ErrInvalidFeedType = errors.New("invalid_feed_type")
	ErrInvalidQuantity = errors.New("invalid_quantity")
	ErrInvalidStatus   = errors.New("invalid_status")
	ErrNotFound        = errors.New("not_found")
)

type SubmitRequest struct {
	FarmerID     string          `json:"farmer_id"`
	FeedTypeName string          `json:"feed_type_name"`
	FeedType     string          `json:"feed_type"`
	Quantity     decimal.Decimal `json:"quantity"`
}

type TransitionRequest struct {
	RequestID    string
	TargetStatus Status
}

type ListRequest struct {
	FarmerID string
	Status   string
}

// CostSummary aggregates cached request costs for the dashboard.
type CostSummary struct {
	PendingCount   int             `json:"pending_count"`
	PendingCost    decimal.Decimal `json:"pending_cost"`
	DeliveredCount int             `json:"delivered_count"`
	DeliveredCost  decimal.Decimal `json:"delivered_cost"`
}

type Service interface {
	Submit(context.Context, SubmitRequest) (FeedRequest, error)
	Transition(context.Context, TransitionRequest) (FeedRequest, error)
	List(context.Context, ListRequest) ([]FeedRequest, error)
	Summary(context.Context) (CostSummary, error)
}
