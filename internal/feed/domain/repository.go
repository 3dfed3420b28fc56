package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// RequestReference is a lightweight projection of a non-terminal feed
// request, used to check whether deleting a feed would orphan it.
type RequestReference struct {
	FeedTypeName string
	FeedType     string
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, feed *Feed) error
	Update(ctx context.Context, db *gorm.DB, feed *Feed) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Feed, error)
	FindByNameAndType(ctx context.Context, db *gorm.DB, name, feedType string) (*Feed, error)
	List(ctx context.Context, db *gorm.DB) ([]*Feed, error)
	OpenRequestReferences(ctx context.Context, db *gorm.DB) ([]RequestReference, error)
}
