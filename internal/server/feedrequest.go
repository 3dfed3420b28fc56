package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	feedrequestdomain "github.com/smallbiznis/maziwa/internal/feedrequest/domain"
)

type submitFeedRequest struct {
	FarmerID     string          `json:"farmer_id"`
	FeedTypeName string          `json:"feed_type_name"`
	FeedType     string          `json:"feed_type"`
	Quantity     decimal.Decimal `json:"quantity"`
}

func (s *Server) SubmitFeedRequest(c *gin.Context) {
	var req submitFeedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.feedRequestSvc.Submit(c.Request.Context(), feedrequestdomain.SubmitRequest{
		FarmerID:     req.FarmerID,
		FeedTypeName: req.FeedTypeName,
		FeedType:     req.FeedType,
		Quantity:     req.Quantity,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type transitionFeedRequest struct {
	Status string `json:"status"`
}

func (s *Server) TransitionFeedRequest(c *gin.Context) {
	var req transitionFeedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.feedRequestSvc.Transition(c.Request.Context(), feedrequestdomain.TransitionRequest{
		RequestID:    c.Param("id"),
		TargetStatus: feedrequestdomain.Status(req.Status),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListFeedRequests(c *gin.Context) {
	var query struct {
		FarmerID string `form:"farmer_id"`
		Status   string `form:"status"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.feedRequestSvc.List(c.Request.Context(), feedrequestdomain.ListRequest{
		FarmerID: query.FarmerID,
		Status:   query.Status,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) FeedRequestSummary(c *gin.Context) {
	resp, err := s.feedRequestSvc.Summary(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}
