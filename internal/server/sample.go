package server

import (
	"net/http"

	sampledomain "github.com/domaehub/settle/internal/sample/domain"
	"github.com/gin-gonic/gin"
)

func (s *Server) CheckOutSample(c *gin.Context) {
	var req sampledomain.CheckOutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.sampleSvc.CheckOut(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (s *Server) ReturnSample(c *gin.Context) {
	resp, err := s.sampleSvc.Return(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) ListSamples(c *gin.Context) {
	resp, err := s.sampleSvc.List(c.Request.Context(), c.Query("company_id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"samples": resp})
}
