package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/smallbiznis/maziwa/internal/feed/domain"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, feed *domain.Feed) error {
	return db.WithContext(ctx).Create(feed).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, feed *domain.Feed) error {
	return db.WithContext(ctx).Save(feed).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Delete(&domain.Feed{}, "id = ?", id).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Feed, error) {
	var feed domain.Feed
	err := db.WithContext(ctx).First(&feed, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &feed, nil
}

func (r *repo) FindByNameAndType(ctx context.Context, db *gorm.DB, name, feedType string) (*domain.Feed, error) {
	var feed domain.Feed
	err := db.WithContext(ctx).
		Where("lower(name) = lower(?) AND lower(type) = lower(?)", name, feedType).
		First(&feed).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &feed, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB) ([]*domain.Feed, error) {
	var feeds []*domain.Feed
	err := db.WithContext(ctx).
		Order("name asc, id asc").
		Find(&feeds).Error
	if err != nil {
		return nil, err
	}
	return feeds, nil
}

func (r *repo) OpenRequestReferences(ctx context.Context, db *gorm.DB) ([]domain.RequestReference, error) {
	var refs []domain.RequestReference
	err := db.WithContext(ctx).Raw(
		`SELECT feed_type_name, feed_type FROM feed_requests WHERE status IN (?, ?)`,
		"pending", "approved",
	).Scan(&refs).Error
	if err != nil {
		return nil, err
	}
	return refs, nil
}
