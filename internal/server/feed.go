package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	feeddomain "github.com/smallbiznis/maziwa/internal/feed/domain"
)

type upsertFeedRequest struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Type           string          `json:"type"`
	Unit           string          `json:"unit"`
	QuantityOnHand decimal.Decimal `json:"quantity_on_hand"`
	PricePerUnit   decimal.Decimal `json:"price_per_unit"`
	MinStockLevel  decimal.Decimal `json:"min_stock_level"`
	Description    string          `json:"description"`
}

func (s *Server) UpsertFeed(c *gin.Context) {
	var req upsertFeedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.feedSvc.Upsert(c.Request.Context(), feeddomain.UpsertFeedRequest{
		ID:             req.ID,
		Name:           req.Name,
		Type:           req.Type,
		Unit:           req.Unit,
		QuantityOnHand: req.QuantityOnHand,
		PricePerUnit:   req.PricePerUnit,
		MinStockLevel:  req.MinStockLevel,
		Description:    req.Description,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListFeeds(c *gin.Context) {
	resp, err := s.feedSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetFeed(c *gin.Context) {
	resp, err := s.feedSvc.GetByID(c.Request.Context(), feeddomain.GetFeedRequest{
		ID: c.Param("id"),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteFeed(c *gin.Context) {
	err := s.feedSvc.Delete(c.Request.Context(), feeddomain.DeleteFeedRequest{
		ID: c.Param("id"),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (s *Server) GetStockStatus(c *gin.Context) {
	resp, err := s.feedSvc.GetStockStatus(c.Request.Context(), feeddomain.GetFeedRequest{
		ID: c.Param("id"),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}
