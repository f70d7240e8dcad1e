package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	offeringdomain "github.com/merchflow/merchflow/internal/offering/domain"
)

func (s *Server) CreateOffering(c *gin.Context) {
	var req offeringdomain.CreateOfferingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.offeringSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListOfferings(c *gin.Context) {
	activeOnly := strings.EqualFold(c.Query("active"), "true")
	offerings, err := s.offeringSvc.List(c.Request.Context(), activeOnly)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": offerings})
}

func (s *Server) UpdateOfferingPrice(c *gin.Context) {
	var req offeringdomain.UpdateListPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.OfferingID = strings.TrimSpace(c.Param("id"))

	resp, err := s.offeringSvc.UpdateListPrice(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
