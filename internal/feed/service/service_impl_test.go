package service

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"

	"github.com/smallbiznis/maziwa/internal/cache"
	"github.com/smallbiznis/maziwa/internal/clock"
	"github.com/smallbiznis/maziwa/internal/feed/domain"
	"github.com/smallbiznis/maziwa/internal/feed/repository"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Feed{}))
	db.Exec(`CREATE TABLE IF NOT EXISTS feed_requests (
		id BIGINT PRIMARY KEY,
		farmer_id TEXT NOT NULL,
		feed_type_name TEXT NOT NULL,
		feed_type TEXT NOT NULL,
		quantity NUMERIC NOT NULL,
		status TEXT NOT NULL,
		cost NUMERIC NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`)

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := &Service{
		db:         db,
		log:        zaptest.NewLogger(t),
		genID:      node,
		clock:      clock.SystemClock{},
		repo:       repository.Provide(),
		stockCache: cache.NewTTLCache[snowflake.ID, domain.StockStatusResponse](),
	}
	return svc, db
}

func TestUpsertCreateAndEdit(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	created, err := svc.Upsert(ctx, domain.UpsertFeedRequest{
		Name:           "Dairy Meal",
		Type:           "dairy_meal",
		QuantityOnHand: decimal.NewFromInt(100),
		PricePerUnit:   decimal.NewFromInt(45),
		MinStockLevel:  decimal.NewFromInt(10),
	})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, "kg", created.Unit)

	// Simulate a reservation made by the request workflow.
	require.NoError(t, db.Model(&domain.Feed{}).
		Where("id = ?", created.ID).
		Update("reserved_quantity", decimal.NewFromInt(30)).Error)

	// Editing the feed must not disturb the reservation.
	edited, err := svc.Upsert(ctx, domain.UpsertFeedRequest{
		ID:             created.ID.String(),
		Name:           "Dairy Meal",
		Type:           "dairy_meal",
		QuantityOnHand: decimal.NewFromInt(200),
		PricePerUnit:   decimal.NewFromInt(48),
		MinStockLevel:  decimal.NewFromInt(10),
	})
	require.NoError(t, err)
	assert.Equal(t, created.ID, edited.ID)
	assert.True(t, edited.QuantityOnHand.Equal(decimal.NewFromInt(200)))
	assert.True(t, edited.ReservedQuantity.Equal(decimal.NewFromInt(30)))

	// Upsert without an ID resolves by name and type instead of creating
	// a duplicate row.
	again, err := svc.Upsert(ctx, domain.UpsertFeedRequest{
		Name:           "Dairy Meal",
		Type:           "dairy_meal",
		QuantityOnHand: decimal.NewFromInt(150),
		PricePerUnit:   decimal.NewFromInt(48),
	})
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.ID)

	feeds, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, feeds, 1)
}

func TestUpsertValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Upsert(ctx, domain.UpsertFeedRequest{Type: "dairy_meal"})
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	_, err = svc.Upsert(ctx, domain.UpsertFeedRequest{Name: "Dairy Meal"})
	assert.ErrorIs(t, err, domain.ErrInvalidType)

	_, err = svc.Upsert(ctx, domain.UpsertFeedRequest{
		Name:           "Dairy Meal",
		Type:           "dairy_meal",
		QuantityOnHand: decimal.NewFromInt(-1),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
}

func TestDeleteBlockedByOpenRequest(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	created, err := svc.Upsert(ctx, domain.UpsertFeedRequest{
		Name:           "Dairy Meal",
		Type:           "dairy_meal",
		QuantityOnHand: decimal.NewFromInt(100),
		PricePerUnit:   decimal.NewFromInt(45),
	})
	require.NoError(t, err)

	db.Exec(`INSERT INTO feed_requests (id, farmer_id, feed_type_name, feed_type, quantity, status, cost, created_at, updated_at)
		VALUES (1, 'farmer-1', 'dairy_meal', 'dairy_meal', 30, 'pending', 0, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`)

	err = svc.Delete(ctx, domain.DeleteFeedRequest{ID: created.ID.String()})
	assert.ErrorIs(t, err, domain.ErrReferencedByOpenRequest)

	// Terminal requests do not block deletion.
	db.Exec(`UPDATE feed_requests SET status = 'delivered' WHERE id = 1`)
	require.NoError(t, svc.Delete(ctx, domain.DeleteFeedRequest{ID: created.ID.String()}))

	_, err = svc.GetByID(ctx, domain.GetFeedRequest{ID: created.ID.String()})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetStockStatus(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	created, err := svc.Upsert(ctx, domain.UpsertFeedRequest{
		Name:           "Dairy Meal",
		Type:           "dairy_meal",
		QuantityOnHand: decimal.NewFromInt(100),
		PricePerUnit:   decimal.NewFromInt(45),
		MinStockLevel:  decimal.NewFromInt(10),
	})
	require.NoError(t, err)

	status, err := svc.GetStockStatus(ctx, domain.GetFeedRequest{ID: created.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, domain.StockStatusIn, status.Status)
	assert.True(t, status.Available.Equal(decimal.NewFromInt(100)))

	// The cached view may lag direct writes until invalidated.
	require.NoError(t, db.Model(&domain.Feed{}).
		Where("id = ?", created.ID).
		Update("reserved_quantity", decimal.NewFromInt(95)).Error)

	cached, err := svc.GetStockStatus(ctx, domain.GetFeedRequest{ID: created.ID.String()})
	require.NoError(t, err)
	assert.True(t, cached.Available.Equal(decimal.NewFromInt(100)))

	svc.stockCache.Delete(created.ID)
	fresh, err := svc.GetStockStatus(ctx, domain.GetFeedRequest{ID: created.ID.String()})
	require.NoError(t, err)
	assert.True(t, fresh.Available.Equal(decimal.NewFromInt(5)))
	assert.Equal(t, domain.StockStatusLow, fresh.Status)
}

func TestGetStockStatusNotFound(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.GetStockStatus(context.Background(), domain.GetFeedRequest{ID: "123456789"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.GetStockStatus(context.Background(), domain.GetFeedRequest{ID: "not-a-number"})
	assert.ErrorIs(t, err, domain.ErrInvalidID)
}
