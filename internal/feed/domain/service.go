package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidID               = errors.New("invalid_id")
	ErrInvalidName             = errors.New("invalid_name")
	ErrInvalidType             = errors.New("invalid_type")
	ErrNotFound                = errors.New("not_found")
	ErrReferencedByOpenRequest = errors.New("referenced_by_open_request")
)

type UpsertFeedRequest struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Type           string          `json:"type"`
	Unit           string          `json:"unit"`
	QuantityOnHand decimal.Decimal `json:"quantity_on_hand"`
	PricePerUnit   decimal.Decimal `json:"price_per_unit"`
	MinStockLevel  decimal.Decimal `json:"min_stock_level"`
	Description    string          `json:"description"`
}

type GetFeedRequest struct {
	ID string
}

type DeleteFeedRequest struct {
	ID string
}

type StockStatusResponse struct {
	FeedID    string          `json:"feed_id"`
	Name      string          `json:"name"`
	Unit      string          `json:"unit"`
	OnHand    decimal.Decimal `json:"quantity_on_hand"`
	Reserved  decimal.Decimal `json:"reserved_quantity"`
	Available decimal.Decimal `json:"available"`
	Status    StockStatus     `json:"status"`
}

type Service interface {
	Upsert(context.Context, UpsertFeedRequest) (Feed, error)
	Delete(context.Context, DeleteFeedRequest) error
	GetByID(context.Context, GetFeedRequest) (Feed, error)
	List(context.Context) ([]Feed, error)
	GetStockStatus(context.Context, GetFeedRequest) (StockStatusResponse, error)
}
