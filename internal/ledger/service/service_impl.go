package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/smallbiznis/maziwa/internal/clock"
	"github.com/smallbiznis/maziwa/internal/config"
	"github.com/smallbiznis/maziwa/internal/ledger/domain"
	obsmetrics "github.com/smallbiznis/maziwa/internal/observability/metrics"
	"github.com/smallbiznis/maziwa/pkg/db/pagination"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Config     config.Config
	Repo       domain.Repository
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	cfg        config.Config
	repo       domain.Repository
	obsMetrics *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("ledger.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		cfg:        p.Config,
		repo:       p.Repo,
		obsMetrics: p.ObsMetrics,
	}
}

// PostDeduction writes the feed debt for a delivered request into the
// caller's transaction. A request carries at most one active deduction;
// reposting is a no-op and reports false.
func (s *Service) PostDeduction(ctx context.Context, tx *gorm.DB, req domain.PostDeductionRequest) (bool, error) {
	farmerID := strings.TrimSpace(req.FarmerID)
	if farmerID == "" {
		return false, domain.ErrInvalidFarmer
	}
	if req.RequestID == 0 {
		return false, domain.ErrInvalidID
	}
	if req.Cost.Sign() <= 0 {
		return false, domain.ErrInvalidAmount
	}

	existing, err := s.repo.FindActiveDeductionByRequest(ctx, tx, req.RequestID)
	if err != nil {
		return false, fmt.Errorf("find existing deduction: %w", err)
	}
	if existing != nil {
		s.obsMetrics.RecordDeductionPosting("duplicate")
		return false, nil
	}

	now := s.clock.Now()
	deduction := domain.Transaction{
		ID:              s.genID.Generate(),
		FarmerID:        farmerID,
		Kind:            domain.KindFeedDeduction,
		Status:          domain.StatusActive,
		Amount:          req.Cost.Abs().Neg(),
		Description:     req.Description,
		LinkedRequestID: req.RequestID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.repo.Insert(ctx, tx, &deduction); err != nil {
		return false, fmt.Errorf("insert deduction: %w", err)
	}

	s.obsMetrics.RecordDeductionPosting("posted")
	s.log.Info("feed deduction posted",
		zap.String("farmer_id", farmerID),
		zap.String("request_id", req.RequestID.String()),
		zap.String("amount", deduction.Amount.String()),
	)
	return true, nil
}

// RemoveDeductions deletes the deductions linked to a request, used when
// a delivery is reverted before settlement consumed the debt.
func (s *Service) RemoveDeductions(ctx context.Context, tx *gorm.DB, requestID snowflake.ID) (int64, error) {
	if requestID == 0 {
		return 0, domain.ErrInvalidID
	}
	removed, err := s.repo.DeleteDeductionsByRequest(ctx, tx, requestID)
	if err != nil {
		return 0, fmt.Errorf("remove deductions: %w", err)
	}
	if removed > 0 {
		s.log.Info("deductions removed",
			zap.String("request_id", requestID.String()),
			zap.Int64("count", removed),
		)
	}
	return removed, nil
}

// RecordMilkDelivery writes a pending revenue entry. When no explicit
// amount is given the delivery is valued at the configured price per
// liter.
func (s *Service) RecordMilkDelivery(ctx context.Context, req domain.RecordMilkDeliveryRequest) (domain.Transaction, error) {
	farmerID := strings.TrimSpace(req.FarmerID)
	if farmerID == "" {
		return domain.Transaction{}, domain.ErrInvalidFarmer
	}
	if req.Liters.Sign() <= 0 {
		return domain.Transaction{}, domain.ErrInvalidQuantity
	}

	amount := req.Amount
	if amount.Sign() <= 0 {
		amount = req.Liters.Mul(s.cfg.MilkPricePerLiter)
	}

	now := s.clock.Now()
	trx := domain.Transaction{
		ID:          s.genID.Generate(),
		FarmerID:    farmerID,
		Kind:        domain.KindRevenue,
		Status:      domain.StatusPending,
		Amount:      amount,
		Quantity:    req.Liters,
		Description: fmt.Sprintf("Milk delivery: %s liters", req.Liters.String()),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Insert(ctx, s.db, &trx); err != nil {
		return domain.Transaction{}, fmt.Errorf("insert revenue: %w", err)
	}

	s.obsMetrics.RecordMilkDelivery()
	return trx, nil
}

// MarkRevenuePaid flips one pending revenue entry to paid outside the
// settlement flow, for manual corrections.
func (s *Service) MarkRevenuePaid(ctx context.Context, req domain.MarkRevenuePaidRequest) (domain.Transaction, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(req.TransactionID))
	if err != nil || id == 0 {
		return domain.Transaction{}, domain.ErrInvalidID
	}

	trx, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Transaction{}, err
	}
	if trx == nil || trx.Kind != domain.KindRevenue {
		return domain.Transaction{}, domain.ErrNotFound
	}
	if trx.Status != domain.StatusPending {
		return domain.Transaction{}, domain.ErrAlreadyPaid
	}

	now := s.clock.Now()
	if err := s.repo.MarkRevenuePaid(ctx, s.db, []snowflake.ID{id}, trx.Amount, now); err != nil {
		return domain.Transaction{}, err
	}

	trx.Status = domain.StatusPaid
	trx.PaidAmount = trx.Amount
	trx.PaidAt = &now
	trx.UpdatedAt = now
	return *trx, nil
}

func (s *Service) List(ctx context.Context, req domain.ListTransactionsRequest) (domain.ListTransactionsResponse, error) {
	filter := domain.ListFilter{
		FarmerID: strings.TrimSpace(req.FarmerID),
		Kind:     domain.TransactionKind(strings.TrimSpace(req.Kind)),
		Status:   domain.TransactionStatus(strings.TrimSpace(req.Status)),
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	items, err := s.repo.List(ctx, s.db, filter, pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  pageSize,
	})
	if err != nil {
		return domain.ListTransactionsResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(trx *domain.Transaction) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        trx.ID.String(),
			CreatedAt: trx.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > pageSize {
		items = items[:pageSize]
	}

	transactions := make([]domain.Transaction, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		transactions = append(transactions, *item)
	}

	resp := domain.ListTransactionsResponse{Transactions: transactions}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}
