package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidQuantity   = errors.New("invalid_quantity")
	ErrInsufficientStock = errors.New("insufficient_stock")
)

// Feed is an inventory line for one feed product.
type Feed struct {
	ID               snowflake.ID    `gorm:"primaryKey" json:"id"`
	Name             string          `gorm:"not null" json:"name"`
	Type             string          `gorm:"not null;index" json:"type"`
	Unit             string          `gorm:"not null" json:"unit"`
	QuantityOnHand   decimal.Decimal `gorm:"type:numeric;not null" json:"quantity_on_hand"`
	ReservedQuantity decimal.Decimal `gorm:"type:numeric;not null" json:"reserved_quantity"`
	PricePerUnit     decimal.Decimal `gorm:"type:numeric;not null" json:"price_per_unit"`
	MinStockLevel    decimal.Decimal `gorm:"type:numeric;not null" json:"min_stock_level"`
	Description      string          `json:"description,omitempty"`
	CreatedAt        time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"not null" json:"updated_at"`
}

// Available is the quantity not held by approved requests.
func (f *Feed) Available() decimal.Decimal {
	return f.QuantityOnHand.Sub(f.ReservedQuantity)
}

// Reserve holds quantity for an approved request. The on-hand quantity
// does not change until delivery commits the reservation.
func (f *Feed) Reserve(quantity decimal.Decimal) error {
	if quantity.Sign() <= 0 {
		return ErrInvalidQuantity
	}
	if f.Available().LessThan(quantity) {
		return ErrInsufficientStock
	}
	f.ReservedQuantity = f.ReservedQuantity.Add(quantity)
	return nil
}

// Release undoes a reservation. Reserved never goes below zero; the
// returned flag reports whether clamping occurred so callers can log
// the anomaly.
func (f *Feed) Release(quantity decimal.Decimal) (clamped bool, err error) {
	if quantity.Sign() <= 0 {
		return false, ErrInvalidQuantity
	}
	next := f.ReservedQuantity.Sub(quantity)
	if next.Sign() < 0 {
		f.ReservedQuantity = decimal.Zero
		return true, nil
	}
	f.ReservedQuantity = next
	return false, nil
}

// Commit consumes stock on delivery: on-hand drops by quantity and the
// matching reservation is freed, clamped at zero.
func (f *Feed) Commit(quantity decimal.Decimal) error {
	if quantity.Sign() <= 0 {
		return ErrInvalidQuantity
	}
	if f.QuantityOnHand.LessThan(quantity) {
		return ErrInsufficientStock
	}
	f.QuantityOnHand = f.QuantityOnHand.Sub(quantity)
	next := f.ReservedQuantity.Sub(quantity)
	if next.Sign() < 0 {
		next = decimal.Zero
	}
	f.ReservedQuantity = next
	return nil
}

// Restore returns previously committed stock, used when a delivered
// request is reverted.
func (f *Feed) Restore(quantity decimal.Decimal) error {
	if quantity.Sign() <= 0 {
		return ErrInvalidQuantity
	}
	f.QuantityOnHand = f.QuantityOnHand.Add(quantity)
	return nil
}

// StockStatus classifies the available quantity for display.
type StockStatus string

const (
	StockStatusOut StockStatus = "out_of_stock"
	StockStatusLow StockStatus = "low_stock"
	StockStatusIn  StockStatus = "in_stock"
)

func (f *Feed) StockStatus() StockStatus {
	available := f.Available()
	if available.Sign() <= 0 {
		return StockStatusOut
	}
	if available.LessThanOrEqual(f.MinStockLevel) {
		return StockStatusLow
	}
	return StockStatusIn
}
