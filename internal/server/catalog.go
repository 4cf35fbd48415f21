package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/domaehub/settle/internal/catalog/domain"
	"github.com/gin-gonic/gin"
)

func (s *Server) CreateProduct(c *gin.Context) {
	var req catalogdomain.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.catalogSvc.CreateProduct(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (s *Server) GetProduct(c *gin.Context) {
	resp, err := s.catalogSvc.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) AddProductOption(c *gin.Context) {
	var req catalogdomain.AddOptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	req.ProductID = c.Param("id")

	if err := s.catalogSvc.AddOption(c.Request.Context(), req); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusCreated)
}

type resolveVariantQuery struct {
	ProductID   string `form:"product_id"`
	ProductName string `form:"product_name"`
	Color       string `form:"color"`
	Size        string `form:"size"`
}

func (s *Server) ResolveVariant(c *gin.Context) {
	var query resolveVariantQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	req := catalogdomain.ResolveRequest{
		ProductName: strings.TrimSpace(query.ProductName),
		Color:       query.Color,
		Size:        query.Size,
	}
	if strings.TrimSpace(query.ProductID) != "" {
		id, err := snowflake.ParseString(strings.TrimSpace(query.ProductID))
		if err != nil {
			AbortWithError(c, catalogdomain.ErrInvalidID)
			return
		}
		req.ProductID = id
	}

	variant, err := s.catalogSvc.ResolveVariant(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"product_id": variant.ProductID.String(),
		"color":      variant.Color,
		"size":       variant.Size,
		"price":      variant.Price,
	})
}
