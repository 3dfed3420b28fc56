package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/smallbiznis/maziwa/internal/ledger/domain"
	"github.com/smallbiznis/maziwa/pkg/db/pagination"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, trx *domain.Transaction) error {
	return db.WithContext(ctx).Create(trx).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Transaction, error) {
	var trx domain.Transaction
	err := db.WithContext(ctx).First(&trx, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &trx, nil
}

func (r *repo) FindActiveDeductionByRequest(ctx context.Context, db *gorm.DB, requestID snowflake.ID) (*domain.Transaction, error) {
	var trx domain.Transaction
	err := db.WithContext(ctx).
		Where("linked_request_id = ? AND kind = ? AND status = ?",
			requestID, domain.KindFeedDeduction, domain.StatusActive).
		First(&trx).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &trx, nil
}

func (r *repo) DeleteDeductionsByRequest(ctx context.Context, db *gorm.DB, requestID snowflake.ID) (int64, error) {
	result := db.WithContext(ctx).
		Where("linked_request_id = ? AND kind = ?", requestID, domain.KindFeedDeduction).
		Delete(&domain.Transaction{})
	return result.RowsAffected, result.Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter, page pagination.Pagination) ([]*domain.Transaction, error) {
	var transactions []*domain.Transaction
	stmt := db.WithContext(ctx).Model(&domain.Transaction{})
	if filter.FarmerID != "" {
		stmt = stmt.Where("farmer_id = ?", filter.FarmerID)
	}
	if filter.Kind != "" {
		stmt = stmt.Where("kind = ?", filter.Kind)
	}
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}
	if page.PageToken != "" {
		cursor, err := pagination.DecodeCursor(page.PageToken)
		if err != nil {
			return nil, err
		}
		createdAt, err := time.Parse(time.RFC3339, cursor.CreatedAt)
		if err != nil {
			return nil, err
		}
		id, err := snowflake.ParseString(cursor.ID)
		if err != nil {
			return nil, err
		}
		stmt = stmt.Where("(created_at < ?) OR (created_at = ? AND id < ?)", createdAt, createdAt, id)
	}
	limit := page.PageSize
	if limit <= 0 {
		limit = 50
	}
	err := stmt.
		Order("created_at desc, id desc").
		Limit(limit + 1).
		Find(&transactions).Error
	if err != nil {
		return nil, err
	}
	return transactions, nil
}

func (r *repo) ListByFarmer(ctx context.Context, db *gorm.DB, farmerID string, kind domain.TransactionKind, status domain.TransactionStatus) ([]*domain.Transaction, error) {
	var transactions []*domain.Transaction
	err := db.WithContext(ctx).
		Where("farmer_id = ? AND kind = ? AND status = ?", farmerID, kind, status).
		Order("created_at asc, id asc").
		Find(&transactions).Error
	if err != nil {
		return nil, err
	}
	return transactions, nil
}

func (r *repo) DistinctFarmers(ctx context.Context, db *gorm.DB, kind domain.TransactionKind, status domain.TransactionStatus) ([]string, error) {
	var farmers []string
	err := db.WithContext(ctx).
		Model(&domain.Transaction{}).
		Where("kind = ? AND status = ?", kind, status).
		Distinct("farmer_id").
		Order("farmer_id asc").
		Pluck("farmer_id", &farmers).Error
	if err != nil {
		return nil, err
	}
	return farmers, nil
}

func (r *repo) MarkRevenuePaid(ctx context.Context, db *gorm.DB, ids []snowflake.ID, paidAmount decimal.Decimal, paidAt time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	return db.WithContext(ctx).
		Model(&domain.Transaction{}).
		Where("id IN ?", ids).
		Updates(map[string]any{
			"status":      domain.StatusPaid,
			"paid_amount": paidAmount,
			"paid_at":     paidAt,
			"updated_at":  paidAt,
		}).Error
}

func (r *repo) MarkDeductionsProcessed(ctx context.Context, db *gorm.DB, ids []snowflake.ID, paymentID snowflake.ID, processedAt time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	updates := map[string]any{
		"status":       domain.StatusProcessed,
		"processed_at": processedAt,
		"updated_at":   processedAt,
	}
	if paymentID != 0 {
		updates["payment_id"] = paymentID
	}
	return db.WithContext(ctx).
		Model(&domain.Transaction{}).
		Where("id IN ?", ids).
		Updates(updates).Error
}
