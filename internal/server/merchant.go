package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	merchantdomain "github.com/merchflow/merchflow/internal/merchant/domain"
	"github.com/merchflow/merchflow/pkg/db/pagination"
)

func (s *Server) CreateMerchant(c *gin.Context) {
	var req merchantdomain.CreateMerchantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.merchantSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListMerchants(c *gin.Context) {
	var page pagination.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	merchants, pageInfo, err := s.merchantSvc.List(c.Request.Context(), merchantdomain.ListMerchantRequest{
		Status: strings.TrimSpace(c.Query("status")),
		Page:   page,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": merchants, "page_info": pageInfo})
}

func (s *Server) GetMerchantByID(c *gin.Context) {
	merchant, err := s.merchantSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": merchant})
}

func (s *Server) ActivateMerchant(c *gin.Context) {
	if err := s.merchantSvc.Activate(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
