package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/smallbiznis/maziwa/internal/cache"
	"github.com/smallbiznis/maziwa/internal/clock"
	"github.com/smallbiznis/maziwa/internal/feed/domain"
)

const stockStatusTTL = 30 * time.Second

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Repo       domain.Repository
	StockCache cache.Cache[snowflake.ID, domain.StockStatusResponse] `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	repo       domain.Repository
	stockCache cache.Cache[snowflake.ID, domain.StockStatusResponse]
}

func New(p Params) domain.Service {
	stockCache := p.StockCache
	if stockCache == nil {
		stockCache = cache.NewTTLCache[snowflake.ID, domain.StockStatusResponse]()
	}
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("feed.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		repo:       p.Repo,
		stockCache: stockCache,
	}
}

// Upsert creates a feed, or edits an existing one matched by ID or by
// name and type. Edits never touch the reserved quantity; only the
// request workflow moves reservations.
func (s *Service) Upsert(ctx context.Context, req domain.UpsertFeedRequest) (domain.Feed, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Feed{}, domain.ErrInvalidName
	}
	feedType := strings.TrimSpace(req.Type)
	if feedType == "" {
		return domain.Feed{}, domain.ErrInvalidType
	}
	if req.QuantityOnHand.Sign() < 0 || req.PricePerUnit.Sign() < 0 || req.MinStockLevel.Sign() < 0 {
		return domain.Feed{}, domain.ErrInvalidQuantity
	}

	var existing *domain.Feed
	var err error
	if strings.TrimSpace(req.ID) != "" {
		id, parseErr := snowflake.ParseString(strings.TrimSpace(req.ID))
		if parseErr != nil || id == 0 {
			return domain.Feed{}, domain.ErrInvalidID
		}
		existing, err = s.repo.FindByID(ctx, s.db, id)
		if err != nil {
			return domain.Feed{}, err
		}
		if existing == nil {
			return domain.Feed{}, domain.ErrNotFound
		}
	} else {
		existing, err = s.repo.FindByNameAndType(ctx, s.db, name, feedType)
		if err != nil {
			return domain.Feed{}, err
		}
	}

	now := s.clock.Now()
	if existing != nil {
		existing.Name = name
		existing.Type = feedType
		existing.Unit = defaultUnit(req.Unit)
		existing.QuantityOnHand = req.QuantityOnHand
		existing.PricePerUnit = req.PricePerUnit
		existing.MinStockLevel = req.MinStockLevel
		existing.Description = strings.TrimSpace(req.Description)
		existing.UpdatedAt = now
		if err := s.repo.Update(ctx, s.db, existing); err != nil {
			return domain.Feed{}, err
		}
		s.stockCache.Delete(existing.ID)
		return *existing, nil
	}

	feed := domain.Feed{
		ID:             s.genID.Generate(),
		Name:           name,
		Type:           feedType,
		Unit:           defaultUnit(req.Unit),
		QuantityOnHand: req.QuantityOnHand,
		PricePerUnit:   req.PricePerUnit,
		MinStockLevel:  req.MinStockLevel,
		Description:    strings.TrimSpace(req.Description),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.Insert(ctx, s.db, &feed); err != nil {
		return domain.Feed{}, err
	}
	return feed, nil
}

// Delete removes a feed unless a pending or approved request still
// resolves to it through the matching rules.
func (s *Service) Delete(ctx context.Context, req domain.DeleteFeedRequest) error {
	id, err := s.parseID(req.ID)
	if err != nil {
		return err
	}

	feed, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return err
	}
	if feed == nil {
		return domain.ErrNotFound
	}

	feeds, err := s.repo.List(ctx, s.db)
	if err != nil {
		return err
	}
	refs, err := s.repo.OpenRequestReferences(ctx, s.db)
	if err != nil {
		return err
	}
	for _, ref := range refs {
		matched, _ := domain.MatchFeed(feeds, ref.FeedTypeName, ref.FeedType)
		if matched != nil && matched.ID == id {
			return domain.ErrReferencedByOpenRequest
		}
	}

	if err := s.repo.Delete(ctx, s.db, id); err != nil {
		return err
	}
	s.stockCache.Delete(id)
	s.log.Info("feed deleted", zap.String("feed_id", id.String()), zap.String("name", feed.Name))
	return nil
}

func (s *Service) GetByID(ctx context.Context, req domain.GetFeedRequest) (domain.Feed, error) {
	id, err := s.parseID(req.ID)
	if err != nil {
		return domain.Feed{}, err
	}
	feed, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Feed{}, err
	}
	if feed == nil {
		return domain.Feed{}, domain.ErrNotFound
	}
	return *feed, nil
}

func (s *Service) List(ctx context.Context) ([]domain.Feed, error) {
	items, err := s.repo.List(ctx, s.db)
	if err != nil {
		return nil, err
	}
	feeds := make([]domain.Feed, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		feeds = append(feeds, *item)
	}
	return feeds, nil
}

// GetStockStatus serves a display-grade view of availability. Results
// may lag mutations by up to the cache TTL; the request workflow always
// reads the store directly.
func (s *Service) GetStockStatus(ctx context.Context, req domain.GetFeedRequest) (domain.StockStatusResponse, error) {
	id, err := s.parseID(req.ID)
	if err != nil {
		return domain.StockStatusResponse{}, err
	}

	if cached, ok := s.stockCache.Get(id); ok {
		return cached, nil
	}

	feed, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.StockStatusResponse{}, err
	}
	if feed == nil {
		return domain.StockStatusResponse{}, domain.ErrNotFound
	}

	resp := domain.StockStatusResponse{
		FeedID:    feed.ID.String(),
		Name:      feed.Name,
		Unit:      feed.Unit,
		OnHand:    feed.QuantityOnHand,
		Reserved:  feed.ReservedQuantity,
		Available: feed.Available(),
		Status:    feed.StockStatus(),
	}
	s.stockCache.Set(id, resp, stockStatusTTL)
	return resp, nil
}

func (s *Service) parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}

func defaultUnit(unit string) string {
	unit = strings.TrimSpace(unit)
	if unit == "" {
		return "kg"
	}
	return unit
}
