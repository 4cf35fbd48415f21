package server

import (
	"net/http"

	companydomain "github.com/domaehub/settle/internal/company/domain"
	"github.com/gin-gonic/gin"
)

func (s *Server) CreateCompany(c *gin.Context) {
	var req companydomain.CreateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.companySvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (s *Server) GetCompany(c *gin.Context) {
	resp, err := s.companySvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
