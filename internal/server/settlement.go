package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) GetFarmerBalance(c *gin.Context) {
	resp, err := s.settlementSvc.ComputeBalance(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) SettleFarmer(c *gin.Context) {
	resp, err := s.settlementSvc.Settle(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) AutoApplyDeductions(c *gin.Context) {
	resp, err := s.settlementSvc.AutoApplyDeductions(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}
