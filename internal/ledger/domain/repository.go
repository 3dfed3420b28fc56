package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/smallbiznis/maziwa/pkg/db/pagination"
)

type ListFilter struct {
	FarmerID string
	Kind     TransactionKind
	Status   TransactionStatus
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, trx *Transaction) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Transaction, error)
	FindActiveDeductionByRequest(ctx context.Context, db *gorm.DB, requestID snowflake.ID) (*Transaction, error)
	DeleteDeductionsByRequest(ctx context.Context, db *gorm.DB, requestID snowflake.ID) (int64, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter, page pagination.Pagination) ([]*Transaction, error)
	ListByFarmer(ctx context.Context, db *gorm.DB, farmerID string, kind TransactionKind, status TransactionStatus) ([]*Transaction, error)
	DistinctFarmers(ctx context.Context, db *gorm.DB, kind TransactionKind, status TransactionStatus) ([]string, error)
	MarkRevenuePaid(ctx context.Context, db *gorm.DB, ids []snowflake.ID, paidAmount decimal.Decimal, paidAt time.Time) error
	MarkDeductionsProcessed(ctx context.Context, db *gorm.DB, ids []snowflake.ID, paymentID snowflake.ID, processedAt time.Time) error
}
