package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFeed(onHand, reserved int64) *Feed {
	return &Feed{
		Name:             "Dairy Meal",
		Type:             "dairy_meal",
		Unit:             "kg",
		QuantityOnHand:   decimal.NewFromInt(onHand),
		ReservedQuantity: decimal.NewFromInt(reserved),
		PricePerUnit:     decimal.NewFromInt(45),
	}
}

func TestReserve(t *testing.T) {
	feed := newFeed(100, 0)

	require.NoError(t, feed.Reserve(decimal.NewFromInt(30)))
	assert.True(t, feed.QuantityOnHand.Equal(decimal.NewFromInt(100)))
	assert.True(t, feed.ReservedQuantity.Equal(decimal.NewFromInt(30)))
	assert.True(t, feed.Available().Equal(decimal.NewFromInt(70)))

	// Second reservation exceeding available must fail without mutating.
	err := feed.Reserve(decimal.NewFromInt(80))
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.True(t, feed.ReservedQuantity.Equal(decimal.NewFromInt(30)))

	assert.ErrorIs(t, feed.Reserve(decimal.Zero), ErrInvalidQuantity)
	assert.ErrorIs(t, feed.Reserve(decimal.NewFromInt(-5)), ErrInvalidQuantity)
}

func TestRelease(t *testing.T) {
	feed := newFeed(100, 30)

	clamped, err := feed.Release(decimal.NewFromInt(30))
	require.NoError(t, err)
	assert.False(t, clamped)
	assert.True(t, feed.ReservedQuantity.IsZero())

	// Releasing more than reserved clamps at zero and reports it.
	feed = newFeed(100, 10)
	clamped, err = feed.Release(decimal.NewFromInt(30))
	require.NoError(t, err)
	assert.True(t, clamped)
	assert.True(t, feed.ReservedQuantity.IsZero())

	// Release on empty reservation stays at zero.
	clamped, err = feed.Release(decimal.NewFromInt(1))
	require.NoError(t, err)
	assert.True(t, clamped)
	assert.True(t, feed.ReservedQuantity.IsZero())

	_, err = feed.Release(decimal.Zero)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestCommit(t *testing.T) {
	feed := newFeed(100, 30)

	require.NoError(t, feed.Commit(decimal.NewFromInt(30)))
	assert.True(t, feed.QuantityOnHand.Equal(decimal.NewFromInt(70)))
	assert.True(t, feed.ReservedQuantity.IsZero())

	// Commit larger than reserved clamps the reservation.
	feed = newFeed(100, 10)
	require.NoError(t, feed.Commit(decimal.NewFromInt(40)))
	assert.True(t, feed.QuantityOnHand.Equal(decimal.NewFromInt(60)))
	assert.True(t, feed.ReservedQuantity.IsZero())

	feed = newFeed(20, 0)
	err := feed.Commit(decimal.NewFromInt(30))
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.True(t, feed.QuantityOnHand.Equal(decimal.NewFromInt(20)))

	assert.ErrorIs(t, feed.Commit(decimal.Zero), ErrInvalidQuantity)
}

func TestRestore(t *testing.T) {
	feed := newFeed(70, 0)

	require.NoError(t, feed.Restore(decimal.NewFromInt(30)))
	assert.True(t, feed.QuantityOnHand.Equal(decimal.NewFromInt(100)))

	assert.ErrorIs(t, feed.Restore(decimal.NewFromInt(-1)), ErrInvalidQuantity)
}

func TestCommitThenRestoreRoundTrip(t *testing.T) {
	feed := newFeed(100, 0)

	require.NoError(t, feed.Reserve(decimal.NewFromInt(30)))
	require.NoError(t, feed.Commit(decimal.NewFromInt(30)))
	require.NoError(t, feed.Restore(decimal.NewFromInt(30)))

	assert.True(t, feed.QuantityOnHand.Equal(decimal.NewFromInt(100)))
	assert.True(t, feed.ReservedQuantity.IsZero())
}

func TestStockStatus(t *testing.T) {
	tests := []struct {
		name     string
		onHand   int64
		reserved int64
		minStock int64
		want     StockStatus
	}{
		{"in stock", 100, 0, 10, StockStatusIn},
		{"low stock at threshold", 100, 90, 10, StockStatusLow},
		{"low stock below threshold", 100, 95, 10, StockStatusLow},
		{"out when fully reserved", 100, 100, 10, StockStatusOut},
		{"out when empty", 0, 0, 10, StockStatusOut},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			feed := newFeed(tc.onHand, tc.reserved)
			feed.MinStockLevel = decimal.NewFromInt(tc.minStock)
			assert.Equal(t, tc.want, feed.StockStatus())
		})
	}
}
