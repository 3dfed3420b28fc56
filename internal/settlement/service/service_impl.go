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
	ledgerdomain "github.com/smallbiznis/maziwa/internal/ledger/domain"
	obsmetrics "github.com/smallbiznis/maziwa/internal/observability/metrics"
	"github.com/smallbiznis/maziwa/internal/settlement/domain"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	LedgerRepo ledgerdomain.Repository
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	ledgerRepo ledgerdomain.Repository
	obsMetrics *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("settlement.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		ledgerRepo: p.LedgerRepo,
		obsMetrics: p.ObsMetrics,
	}
}

// ComputeBalance totals a farmer's pending revenue against the active
// deductions. The net may be negative; Settle refuses those.
func (s *Service) ComputeBalance(ctx context.Context, farmerID string) (domain.Balance, error) {
	farmerID = strings.TrimSpace(farmerID)
	if farmerID == "" {
		return domain.Balance{}, domain.ErrInvalidFarmer
	}
	return s.computeBalance(ctx, s.db, farmerID)
}

func (s *Service) computeBalance(ctx context.Context, db *gorm.DB, farmerID string) (domain.Balance, error) {
	pending, err := s.ledgerRepo.ListByFarmer(ctx, db, farmerID, ledgerdomain.KindRevenue, ledgerdomain.StatusPending)
	if err != nil {
		return domain.Balance{}, err
	}
	paid, err := s.ledgerRepo.ListByFarmer(ctx, db, farmerID, ledgerdomain.KindRevenue, ledgerdomain.StatusPaid)
	if err != nil {
		return domain.Balance{}, err
	}
	deductions, err := s.ledgerRepo.ListByFarmer(ctx, db, farmerID, ledgerdomain.KindFeedDeduction, ledgerdomain.StatusActive)
	if err != nil {
		return domain.Balance{}, err
	}

	balance := domain.Balance{FarmerID: farmerID}
	for _, trx := range pending {
		balance.PendingRevenue = balance.PendingRevenue.Add(trx.Amount)
	}
	for _, trx := range paid {
		balance.PaidRevenue = balance.PaidRevenue.Add(trx.PaidAmount)
	}
	for _, trx := range deductions {
		balance.ActiveDeductions = balance.ActiveDeductions.Add(trx.Amount.Abs())
	}
	balance.NetPayable = balance.PendingRevenue.Sub(balance.ActiveDeductions)
	return balance, nil
}

// Settle pays out a farmer's net pending revenue. Flipping the revenue
// entries, writing the payment record, and consuming the deductions
// commit as one transaction.
func (s *Service) Settle(ctx context.Context, farmerID string) (ledgerdomain.Transaction, error) {
	farmerID = strings.TrimSpace(farmerID)
	if farmerID == "" {
		return ledgerdomain.Transaction{}, domain.ErrInvalidFarmer
	}

	var payment ledgerdomain.Transaction
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		pending, err := s.ledgerRepo.ListByFarmer(ctx, tx, farmerID, ledgerdomain.KindRevenue, ledgerdomain.StatusPending)
		if err != nil {
			return err
		}
		if len(pending) == 0 {
			return domain.ErrNothingToSettle
		}
		deductions, err := s.ledgerRepo.ListByFarmer(ctx, tx, farmerID, ledgerdomain.KindFeedDeduction, ledgerdomain.StatusActive)
		if err != nil {
			return err
		}

		var pendingRevenue, deductionTotal decimal.Decimal
		revenueIDs := make([]snowflake.ID, 0, len(pending))
		for _, trx := range pending {
			pendingRevenue = pendingRevenue.Add(trx.Amount)
			revenueIDs = append(revenueIDs, trx.ID)
		}
		deductionIDs := make([]snowflake.ID, 0, len(deductions))
		for _, trx := range deductions {
			deductionTotal = deductionTotal.Add(trx.Amount.Abs())
			deductionIDs = append(deductionIDs, trx.ID)
		}

		net := pendingRevenue.Sub(deductionTotal)
		if net.Sign() <= 0 {
			return domain.ErrNonPositiveBalance
		}

		now := s.clock.Now()
		if err := s.ledgerRepo.MarkRevenuePaid(ctx, tx, revenueIDs, net, now); err != nil {
			return fmt.Errorf("mark revenue paid: %w", err)
		}

		payment = ledgerdomain.Transaction{
			ID:              s.genID.Generate(),
			FarmerID:        farmerID,
			Kind:            ledgerdomain.KindSettlementPayment,
			Status:          ledgerdomain.StatusCompleted,
			Amount:          net,
			Description:     fmt.Sprintf("Milk payment for %d deliveries", len(pending)),
			GrossAmount:     pendingRevenue,
			DeductionAmount: deductionTotal,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := s.ledgerRepo.Insert(ctx, tx, &payment); err != nil {
			return fmt.Errorf("insert settlement payment: %w", err)
		}

		if err := s.ledgerRepo.MarkDeductionsProcessed(ctx, tx, deductionIDs, payment.ID, now); err != nil {
			return fmt.Errorf("mark deductions processed: %w", err)
		}
		return nil
	})
	if txErr != nil {
		s.obsMetrics.RecordSettlement("error")
		return ledgerdomain.Transaction{}, txErr
	}

	s.obsMetrics.RecordSettlement("ok")
	s.log.Info("farmer settled",
		zap.String("farmer_id", farmerID),
		zap.String("payment_id", payment.ID.String()),
		zap.String("net", payment.Amount.String()),
	)
	return payment, nil
}

// AutoApplyDeductions folds active deductions into pending revenue for
// every farmer with overlap, without paying anything out. Each farmer
// commits independently so one failure does not poison the sweep.
func (s *Service) AutoApplyDeductions(ctx context.Context) (domain.AutoApplyResult, error) {
	farmers, err := s.ledgerRepo.DistinctFarmers(ctx, s.db, ledgerdomain.KindFeedDeduction, ledgerdomain.StatusActive)
	if err != nil {
		return domain.AutoApplyResult{}, err
	}

	result := domain.AutoApplyResult{}
	for _, farmerID := range farmers {
		applied, err := s.applyForFarmer(ctx, farmerID)
		if err != nil {
			s.log.Error("auto-apply failed for farmer",
				zap.String("farmer_id", farmerID),
				zap.Error(err),
			)
			continue
		}
		if applied.Sign() > 0 {
			result.FarmersProcessed++
			result.TotalApplied = result.TotalApplied.Add(applied)
		}
	}

	s.obsMetrics.RecordAutoApplyRun()
	s.log.Info("auto-apply sweep finished",
		zap.Int("farmers_processed", result.FarmersProcessed),
		zap.String("total_applied", result.TotalApplied.String()),
	)
	return result, nil
}

func (s *Service) applyForFarmer(ctx context.Context, farmerID string) (decimal.Decimal, error) {
	var applied decimal.Decimal
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		pending, err := s.ledgerRepo.ListByFarmer(ctx, tx, farmerID, ledgerdomain.KindRevenue, ledgerdomain.StatusPending)
		if err != nil {
			return err
		}
		deductions, err := s.ledgerRepo.ListByFarmer(ctx, tx, farmerID, ledgerdomain.KindFeedDeduction, ledgerdomain.StatusActive)
		if err != nil {
			return err
		}

		var pendingRevenue, deductionTotal decimal.Decimal
		for _, trx := range pending {
			pendingRevenue = pendingRevenue.Add(trx.Amount)
		}
		deductionIDs := make([]snowflake.ID, 0, len(deductions))
		for _, trx := range deductions {
			deductionTotal = deductionTotal.Add(trx.Amount.Abs())
			deductionIDs = append(deductionIDs, trx.ID)
		}

		amount := decimal.Min(deductionTotal, pendingRevenue)
		if amount.Sign() <= 0 {
			return nil
		}

		now := s.clock.Now()
		application := ledgerdomain.Transaction{
			ID:              s.genID.Generate(),
			FarmerID:        farmerID,
			Kind:            ledgerdomain.KindDeductionApplication,
			Status:          ledgerdomain.StatusCompleted,
			Amount:          amount.Neg(),
			Description:     "Feed cost deduction applied to pending milk",
			GrossAmount:     pendingRevenue,
			DeductionAmount: amount,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := s.ledgerRepo.Insert(ctx, tx, &application); err != nil {
			return fmt.Errorf("insert deduction application: %w", err)
		}
		if err := s.ledgerRepo.MarkDeductionsProcessed(ctx, tx, deductionIDs, 0, now); err != nil {
			return fmt.Errorf("mark deductions processed: %w", err)
		}

		applied = amount
		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}
	return applied, nil
}
