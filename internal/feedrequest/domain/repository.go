package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type ListFilter struct {
	FarmerID string
	Status   Status
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, request *FeedRequest) error
	Update(ctx context.Context, db *gorm.DB, request *FeedRequest) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*FeedRequest, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*FeedRequest, error)
}
