package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/smallbiznis/maziwa/internal/feedrequest/domain"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, request *domain.FeedRequest) error {
	return db.WithContext(ctx).Create(request).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, request *domain.FeedRequest) error {
	return db.WithContext(ctx).Save(request).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.FeedRequest, error) {
	var request domain.FeedRequest
	err := db.WithContext(ctx).First(&request, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]*domain.FeedRequest, error) {
	var requests []*domain.FeedRequest
	stmt := db.WithContext(ctx).Model(&domain.FeedRequest{})
	if filter.FarmerID != "" {
		stmt = stmt.Where("farmer_id = ?", filter.FarmerID)
	}
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}
	err := stmt.
		Order("created_at desc, id desc").
		Find(&requests).Error
	if err != nil {
		return nil, err
	}
	return requests, nil
}
