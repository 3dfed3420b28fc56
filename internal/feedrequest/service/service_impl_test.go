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

	"github.com/smallbiznis/maziwa/internal/clock"
	"github.com/smallbiznis/maziwa/internal/config"
	feeddomain "github.com/smallbiznis/maziwa/internal/feed/domain"
	feedrepository "github.com/smallbiznis/maziwa/internal/feed/repository"
	"github.com/smallbiznis/maziwa/internal/feedrequest/domain"
	"github.com/smallbiznis/maziwa/internal/feedrequest/repository"
	ledgerdomain "github.com/smallbiznis/maziwa/internal/ledger/domain"
	ledgerrepository "github.com/smallbiznis/maziwa/internal/ledger/repository"
	ledgerservice "github.com/smallbiznis/maziwa/internal/ledger/service"
)

type fixture struct {
	svc  *Service
	db   *gorm.DB
	node *snowflake.Node
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&feeddomain.Feed{},
		&domain.FeedRequest{},
		&ledgerdomain.Transaction{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	log := zaptest.NewLogger(t)
	cfg := config.Config{MilkPricePerLiter: decimal.NewFromInt(45)}

	ledgerSvc := ledgerservice.New(ledgerservice.Params{
		DB:     db,
		Log:    log,
		GenID:  node,
		Clock:  clock.SystemClock{},
		Config: cfg,
		Repo:   ledgerrepository.Provide(),
	})

	svc := &Service{
		db:        db,
		log:       log,
		genID:     node,
		clock:     clock.SystemClock{},
		pricing:   config.NewStaticPricingHolder(config.DefaultPricingConfig()),
		repo:      repository.Provide(),
		feedRepo:  feedrepository.Provide(),
		ledgerSvc: ledgerSvc,
	}
	return &fixture{svc: svc, db: db, node: node}
}

func (f *fixture) seedFeed(t *testing.T, onHand int64, price int64) feeddomain.Feed {
	t.Helper()
	feed := feeddomain.Feed{
		ID:             f.node.Generate(),
		Name:           "Dairy Meal",
		Type:           "dairy_meal",
		Unit:           "kg",
		QuantityOnHand: decimal.NewFromInt(onHand),
		PricePerUnit:   decimal.NewFromInt(price),
	}
	require.NoError(t, f.db.Create(&feed).Error)
	return feed
}

func (f *fixture) loadFeed(t *testing.T, id snowflake.ID) feeddomain.Feed {
	t.Helper()
	var feed feeddomain.Feed
	require.NoError(t, f.db.First(&feed, "id = ?", id).Error)
	return feed
}

func (f *fixture) submit(t *testing.T, qty int64) domain.FeedRequest {
	t.Helper()
	request, err := f.svc.Submit(context.Background(), domain.SubmitRequest{
		FarmerID:     "farmer-1",
		FeedTypeName: "dairy_meal",
		FeedType:     "dairy_meal",
		Quantity:     decimal.NewFromInt(qty),
	})
	require.NoError(t, err)
	return request
}

func (f *fixture) transition(t *testing.T, id snowflake.ID, target domain.Status) (domain.FeedRequest, error) {
	t.Helper()
	return f.svc.Transition(context.Background(), domain.TransitionRequest{
		RequestID:    id.String(),
		TargetStatus: target,
	})
}

func TestSubmitValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Submit(ctx, domain.SubmitRequest{FeedType: "dairy_meal", Quantity: decimal.NewFromInt(10)})
	assert.ErrorIs(t, err, domain.ErrInvalidFarmer)

	_, err = f.svc.Submit(ctx, domain.SubmitRequest{FarmerID: "farmer-1", Quantity: decimal.NewFromInt(10)})
	assert.ErrorIs(t, err, domain.ErrInvalidFeedType)

	_, err = f.svc.Submit(ctx, domain.SubmitRequest{FarmerID: "farmer-1", FeedType: "dairy_meal"})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
}

func TestApproveReservesStock(t *testing.T) {
	f := newFixture(t)
	feed := f.seedFeed(t, 100, 45)

	request := f.submit(t, 30)
	approved, err := f.transition(t, request.ID, domain.StatusApproved)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, approved.Status)
	assert.True(t, approved.Cost.Equal(decimal.NewFromInt(1350)))

	after := f.loadFeed(t, feed.ID)
	assert.True(t, after.QuantityOnHand.Equal(decimal.NewFromInt(100)))
	assert.True(t, after.ReservedQuantity.Equal(decimal.NewFromInt(30)))
	assert.True(t, after.Available().Equal(decimal.NewFromInt(70)))

	// A second request for more than the remaining availability fails
	// and leaves both records untouched.
	second := f.submit(t, 80)
	_, err = f.transition(t, second.ID, domain.StatusApproved)
	assert.ErrorIs(t, err, feeddomain.ErrInsufficientStock)

	after = f.loadFeed(t, feed.ID)
	assert.True(t, after.ReservedQuantity.Equal(decimal.NewFromInt(30)))

	var reloaded domain.FeedRequest
	require.NoError(t, f.db.First(&reloaded, "id = ?", second.ID).Error)
	assert.Equal(t, domain.StatusPending, reloaded.Status)
}

func TestApproveWithoutMatchingFeed(t *testing.T) {
	f := newFixture(t)

	request := f.submit(t, 30)
	_, err := f.transition(t, request.ID, domain.StatusApproved)
	assert.ErrorIs(t, err, domain.ErrMatchingFeedNotFound)
}

func TestDeliverCommitsStockAndPostsDeduction(t *testing.T) {
	f := newFixture(t)
	feed := f.seedFeed(t, 100, 45)

	request := f.submit(t, 30)
	_, err := f.transition(t, request.ID, domain.StatusApproved)
	require.NoError(t, err)

	delivered, err := f.transition(t, request.ID, domain.StatusDelivered)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDelivered, delivered.Status)
	assert.True(t, delivered.Cost.Equal(decimal.NewFromInt(1350)))

	after := f.loadFeed(t, feed.ID)
	assert.True(t, after.QuantityOnHand.Equal(decimal.NewFromInt(70)))
	assert.True(t, after.ReservedQuantity.IsZero())

	var deductions []ledgerdomain.Transaction
	require.NoError(t, f.db.
		Where("linked_request_id = ? AND kind = ?", request.ID, ledgerdomain.KindFeedDeduction).
		Find(&deductions).Error)
	require.Len(t, deductions, 1)
	assert.True(t, deductions[0].Amount.Equal(decimal.NewFromInt(-1350)))
	assert.Equal(t, ledgerdomain.StatusActive, deductions[0].Status)
	assert.Equal(t, "farmer-1", deductions[0].FarmerID)
}

func TestDeliveredRevertRestoresEverything(t *testing.T) {
	f := newFixture(t)
	feed := f.seedFeed(t, 100, 45)

	request := f.submit(t, 30)
	_, err := f.transition(t, request.ID, domain.StatusApproved)
	require.NoError(t, err)
	_, err = f.transition(t, request.ID, domain.StatusDelivered)
	require.NoError(t, err)

	reverted, err := f.transition(t, request.ID, domain.StatusPending)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, reverted.Status)

	after := f.loadFeed(t, feed.ID)
	assert.True(t, after.QuantityOnHand.Equal(decimal.NewFromInt(100)))
	assert.True(t, after.ReservedQuantity.IsZero())

	var count int64
	require.NoError(t, f.db.Model(&ledgerdomain.Transaction{}).
		Where("linked_request_id = ?", request.ID).
		Count(&count).Error)
	assert.Zero(t, count)
}

func TestApprovedRevertReleasesReservation(t *testing.T) {
	f := newFixture(t)
	feed := f.seedFeed(t, 100, 45)

	request := f.submit(t, 30)
	_, err := f.transition(t, request.ID, domain.StatusApproved)
	require.NoError(t, err)

	_, err = f.transition(t, request.ID, domain.StatusPending)
	require.NoError(t, err)

	after := f.loadFeed(t, feed.ID)
	assert.True(t, after.QuantityOnHand.Equal(decimal.NewFromInt(100)))
	assert.True(t, after.ReservedQuantity.IsZero())
}

func TestRejectionFlow(t *testing.T) {
	f := newFixture(t)
	feed := f.seedFeed(t, 100, 45)

	request := f.submit(t, 30)

	// Direct rejection from pending is not in the table.
	_, err := f.transition(t, request.ID, domain.StatusRejected)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = f.transition(t, request.ID, domain.StatusApproved)
	require.NoError(t, err)
	_, err = f.transition(t, request.ID, domain.StatusRejected)
	require.NoError(t, err)

	after := f.loadFeed(t, feed.ID)
	assert.True(t, after.ReservedQuantity.IsZero())

	// A rejected request can re-enter the machine.
	_, err = f.transition(t, request.ID, domain.StatusPending)
	require.NoError(t, err)
}

func TestInvalidTransitions(t *testing.T) {
	f := newFixture(t)
	f.seedFeed(t, 100, 45)

	request := f.submit(t, 30)

	_, err := f.transition(t, request.ID, domain.StatusDelivered)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = f.transition(t, request.ID, domain.StatusPending)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = f.svc.Transition(context.Background(), domain.TransitionRequest{
		RequestID:    request.ID.String(),
		TargetStatus: "shipped",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)

	_, err = f.svc.Transition(context.Background(), domain.TransitionRequest{
		RequestID:    f.node.Generate().String(),
		TargetStatus: domain.StatusApproved,
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDegradedDeliveryUsesFallbackPrice(t *testing.T) {
	f := newFixture(t)
	feed := f.seedFeed(t, 100, 45)

	request := f.submit(t, 30)
	_, err := f.transition(t, request.ID, domain.StatusApproved)
	require.NoError(t, err)

	// Feed retired between approval and delivery.
	require.NoError(t, f.db.Delete(&feeddomain.Feed{}, "id = ?", feed.ID).Error)

	delivered, err := f.transition(t, request.ID, domain.StatusDelivered)
	require.NoError(t, err)
	// dairy_meal fallback price is 45/kg.
	assert.True(t, delivered.Cost.Equal(decimal.NewFromInt(1350)))

	var deductions []ledgerdomain.Transaction
	require.NoError(t, f.db.
		Where("linked_request_id = ?", request.ID).
		Find(&deductions).Error)
	require.Len(t, deductions, 1)
	assert.True(t, deductions[0].Amount.Equal(decimal.NewFromInt(-1350)))
}

func TestDeductionIdempotence(t *testing.T) {
	f := newFixture(t)
	f.seedFeed(t, 100, 45)

	request := f.submit(t, 30)
	_, err := f.transition(t, request.ID, domain.StatusApproved)
	require.NoError(t, err)
	_, err = f.transition(t, request.ID, domain.StatusDelivered)
	require.NoError(t, err)

	// Reposting through the ledger service directly must not duplicate.
	posted, err := f.svc.ledgerSvc.PostDeduction(context.Background(), f.db, ledgerdomain.PostDeductionRequest{
		FarmerID:  "farmer-1",
		RequestID: request.ID,
		Cost:      decimal.NewFromInt(1350),
	})
	require.NoError(t, err)
	assert.False(t, posted)

	var count int64
	require.NoError(t, f.db.Model(&ledgerdomain.Transaction{}).
		Where("linked_request_id = ? AND kind = ?", request.ID, ledgerdomain.KindFeedDeduction).
		Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestSummary(t *testing.T) {
	f := newFixture(t)
	f.seedFeed(t, 1000, 45)

	first := f.submit(t, 30)
	_, err := f.transition(t, first.ID, domain.StatusApproved)
	require.NoError(t, err)
	_, err = f.transition(t, first.ID, domain.StatusDelivered)
	require.NoError(t, err)

	f.submit(t, 10)

	summary, err := f.svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.DeliveredCount)
	assert.True(t, summary.DeliveredCost.Equal(decimal.NewFromInt(1350)))
	assert.Equal(t, 1, summary.PendingCount)
	assert.True(t, summary.PendingCost.Equal(decimal.NewFromInt(450)))
}
