package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/smallbiznis/maziwa/internal/clock"
	"github.com/smallbiznis/maziwa/internal/config"
	feeddomain "github.com/smallbiznis/maziwa/internal/feed/domain"
	"github.com/smallbiznis/maziwa/internal/feedrequest/domain"
	ledgerdomain "github.com/smallbiznis/maziwa/internal/ledger/domain"
	obsmetrics "github.com/smallbiznis/maziwa/internal/observability/metrics"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Pricing    *config.PricingConfigHolder
	Repo       domain.Repository
	FeedRepo   feeddomain.Repository
	LedgerSvc  ledgerdomain.Service
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	pricing    *config.PricingConfigHolder
	repo       domain.Repository
	feedRepo   feeddomain.Repository
	ledgerSvc  ledgerdomain.Service
	obsMetrics *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("feedrequest.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		pricing:    p.Pricing,
		repo:       p.Repo,
		feedRepo:   p.FeedRepo,
		ledgerSvc:  p.LedgerSvc,
		obsMetrics: p.ObsMetrics,
	}
}

// Submit records a farmer's feed request in the pending state. The
// request is matched against inventory lazily, at transition time.
func (s *Service) Submit(ctx context.Context, req domain.SubmitRequest) (domain.FeedRequest, error) {
	farmerID := strings.TrimSpace(req.FarmerID)
	if farmerID == "" {
		return domain.FeedRequest{}, domain.ErrInvalidFarmer
	}
	typeName := strings.TrimSpace(req.FeedTypeName)
	feedType := strings.TrimSpace(req.FeedType)
	if typeName == "" && feedType == "" {
		return domain.FeedRequest{}, domain.ErrInvalidFeedType
	}
	if req.Quantity.Sign() <= 0 {
		return domain.FeedRequest{}, domain.ErrInvalidQuantity
	}

	now := s.clock.Now()
	request := domain.FeedRequest{
		ID:           s.genID.Generate(),
		FarmerID:     farmerID,
		FeedTypeName: typeName,
		FeedType:     feedType,
		Quantity:     req.Quantity,
		Status:       domain.StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Insert(ctx, s.db, &request); err != nil {
		return domain.FeedRequest{}, fmt.Errorf("insert feed request: %w", err)
	}

	s.log.Info("feed request submitted",
		zap.String("request_id", request.ID.String()),
		zap.String("farmer_id", farmerID),
		zap.String("quantity", req.Quantity.String()),
	)
	return request, nil
}

// Transition moves a request through the lifecycle table, applying the
// paired inventory and ledger effects. The request row, the matched
// feed row, and any deduction writes commit as one unit; on error
// nothing is applied.
func (s *Service) Transition(ctx context.Context, req domain.TransitionRequest) (domain.FeedRequest, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(req.RequestID))
	if err != nil || id == 0 {
		return domain.FeedRequest{}, domain.ErrInvalidID
	}
	target := req.TargetStatus
	if !domain.ValidStatus(target) {
		return domain.FeedRequest{}, domain.ErrInvalidStatus
	}

	var updated domain.FeedRequest
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		request, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if request == nil {
			return domain.ErrNotFound
		}
		if !domain.CanTransition(request.Status, target) {
			return domain.ErrInvalidTransition
		}

		feeds, err := s.feedRepo.List(ctx, tx)
		if err != nil {
			return err
		}
		matched, rule := feeddomain.MatchFeed(feeds, request.FeedTypeName, request.FeedType)
		cost := request.Quantity.Mul(s.resolveUnitPrice(matched, request))

		if err := s.applyEffects(ctx, tx, request, target, matched, rule, cost); err != nil {
			return err
		}

		request.Status = target
		request.Cost = cost
		request.UpdatedAt = s.clock.Now()
		if err := s.repo.Update(ctx, tx, request); err != nil {
			return err
		}
		updated = *request
		return nil
	})
	if txErr != nil {
		s.obsMetrics.RecordTransition(string(target), "error")
		return domain.FeedRequest{}, txErr
	}

	s.obsMetrics.RecordTransition(string(target), "ok")
	return updated, nil
}

func (s *Service) applyEffects(
	ctx context.Context,
	tx *gorm.DB,
	request *domain.FeedRequest,
	target domain.Status,
	matched *feeddomain.Feed,
	rule feeddomain.MatchRule,
	cost decimal.Decimal,
) error {
	from := request.Status
	switch {
	case from == domain.StatusPending && target == domain.StatusApproved:
		if matched == nil {
			return domain.ErrMatchingFeedNotFound
		}
		if err := matched.Reserve(request.Quantity); err != nil {
			return err
		}
		return s.saveFeed(ctx, tx, matched)

	case from == domain.StatusApproved && target == domain.StatusDelivered:
		if matched == nil {
			s.warnNoMatch(request, "delivery proceeds without inventory effect")
		} else {
			if err := matched.Commit(request.Quantity); err != nil {
				return err
			}
			if err := s.saveFeed(ctx, tx, matched); err != nil {
				return err
			}
			s.log.Info("inventory committed",
				zap.String("feed_id", matched.ID.String()),
				zap.String("match_rule", string(rule)),
				zap.String("quantity", request.Quantity.String()),
			)
		}
		_, err := s.ledgerSvc.PostDeduction(ctx, tx, ledgerdomain.PostDeductionRequest{
			FarmerID:    request.FarmerID,
			RequestID:   request.ID,
			Cost:        cost,
			Description: deductionDescription(request),
		})
		return err

	case from == domain.StatusApproved && (target == domain.StatusRejected || target == domain.StatusPending):
		if matched == nil {
			s.warnNoMatch(request, "reservation release skipped")
			return nil
		}
		return s.releaseFeed(ctx, tx, matched, request)

	case from == domain.StatusDelivered && target == domain.StatusPending:
		if matched == nil {
			s.warnNoMatch(request, "inventory restore skipped")
		} else {
			if err := matched.Restore(request.Quantity); err != nil {
				return err
			}
			if err := s.saveFeed(ctx, tx, matched); err != nil {
				return err
			}
		}
		_, err := s.ledgerSvc.RemoveDeductions(ctx, tx, request.ID)
		return err

	case from == domain.StatusRejected && target == domain.StatusPending:
		return nil

	default:
		return domain.ErrInvalidTransition
	}
}

func (s *Service) releaseFeed(ctx context.Context, tx *gorm.DB, feed *feeddomain.Feed, request *domain.FeedRequest) error {
	clamped, err := feed.Release(request.Quantity)
	if err != nil {
		return err
	}
	if clamped {
		s.log.Warn("reservation release clamped at zero",
			zap.String("feed_id", feed.ID.String()),
			zap.String("request_id", request.ID.String()),
			zap.String("quantity", request.Quantity.String()),
		)
	}
	return s.saveFeed(ctx, tx, feed)
}

func (s *Service) saveFeed(ctx context.Context, tx *gorm.DB, feed *feeddomain.Feed) error {
	feed.UpdatedAt = s.clock.Now()
	return s.feedRepo.Update(ctx, tx, feed)
}

func (s *Service) resolveUnitPrice(matched *feeddomain.Feed, request *domain.FeedRequest) decimal.Decimal {
	if matched != nil && matched.PricePerUnit.Sign() > 0 {
		return matched.PricePerUnit
	}
	return s.pricing.Get().FallbackPriceFor(request.FeedType, request.FeedTypeName)
}

func (s *Service) warnNoMatch(request *domain.FeedRequest, detail string) {
	s.log.Warn("no matching feed in inventory",
		zap.String("request_id", request.ID.String()),
		zap.String("feed_type_name", request.FeedTypeName),
		zap.String("feed_type", request.FeedType),
		zap.String("detail", detail),
	)
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) ([]domain.FeedRequest, error) {
	status := domain.Status(strings.TrimSpace(req.Status))
	if status != "" && !domain.ValidStatus(status) {
		return nil, domain.ErrInvalidStatus
	}

	items, err := s.repo.List(ctx, s.db, domain.ListFilter{
		FarmerID: strings.TrimSpace(req.FarmerID),
		Status:   status,
	})
	if err != nil {
		return nil, err
	}

	requests := make([]domain.FeedRequest, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		requests = append(requests, *item)
	}
	return requests, nil
}

// Summary totals cached request costs for the dashboard cards. Pending
// requests without a cached cost are valued from current inventory or
// the fallback table.
func (s *Service) Summary(ctx context.Context) (domain.CostSummary, error) {
	items, err := s.repo.List(ctx, s.db, domain.ListFilter{})
	if err != nil {
		return domain.CostSummary{}, err
	}
	feeds, err := s.feedRepo.List(ctx, s.db)
	if err != nil {
		return domain.CostSummary{}, err
	}

	var summary domain.CostSummary
	for _, request := range items {
		if request == nil {
			continue
		}
		cost := request.Cost
		if cost.Sign() <= 0 {
			matched, _ := feeddomain.MatchFeed(feeds, request.FeedTypeName, request.FeedType)
			cost = request.Quantity.Mul(s.resolveUnitPrice(matched, request))
		}
		switch request.Status {
		case domain.StatusPending:
			summary.PendingCount++
			summary.PendingCost = summary.PendingCost.Add(cost)
		case domain.StatusDelivered:
			summary.DeliveredCount++
			summary.DeliveredCost = summary.DeliveredCost.Add(cost)
		}
	}
	return summary, nil
}

func deductionDescription(request *domain.FeedRequest) string {
	identifier := request.FeedTypeName
	if identifier == "" {
		identifier = request.FeedType
	}
	return fmt.Sprintf("Feed: %s - %skg", identifier, request.Quantity.String())
}
