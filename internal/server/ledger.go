package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	ledgerdomain "github.com/smallbiznis/maziwa/internal/ledger/domain"
	"github.com/smallbiznis/maziwa/pkg/db/pagination"
)

type recordMilkDeliveryRequest struct {
	FarmerID string          `json:"farmer_id"`
	Liters   decimal.Decimal `json:"liters"`
	Amount   decimal.Decimal `json:"amount"`
}

func (s *Server) RecordMilkDelivery(c *gin.Context) {
	var req recordMilkDeliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.ledgerSvc.RecordMilkDelivery(c.Request.Context(), ledgerdomain.RecordMilkDeliveryRequest{
		FarmerID: req.FarmerID,
		Liters:   req.Liters,
		Amount:   req.Amount,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListTransactions(c *gin.Context) {
	var query struct {
		pagination.Pagination
		FarmerID string `form:"farmer_id"`
		Kind     string `form:"kind"`
		Status   string `form:"status"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.ledgerSvc.List(c.Request.Context(), ledgerdomain.ListTransactionsRequest{
		FarmerID:  query.FarmerID,
		Kind:      query.Kind,
		Status:    query.Status,
		PageToken: query.PageToken,
		PageSize:  query.PageSize,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) MarkRevenuePaid(c *gin.Context) {
	resp, err := s.ledgerSvc.MarkRevenuePaid(c.Request.Context(), ledgerdomain.MarkRevenuePaidRequest{
		TransactionID: c.Param("id"),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}
