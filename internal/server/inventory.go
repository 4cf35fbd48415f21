package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	invdomain "github.com/domaehub/settle/internal/inventory/domain"
	"github.com/gin-gonic/gin"
)

type adjustStockBody struct {
	ProductID     string `json:"product_id"`
	Color         string `json:"color"`
	Size          string `json:"size"`
	Delta         int64  `json:"delta"`
	Type          string `json:"type"`
	Reason        string `json:"reason"`
	ReferenceType string `json:"reference_type"`
	ReferenceID   string `json:"reference_id"`
}

func (b adjustStockBody) toRequest() (invdomain.AdjustRequest, error) {
	productID, err := snowflake.ParseString(strings.TrimSpace(b.ProductID))
	if err != nil {
		return invdomain.AdjustRequest{}, invdomain.ErrInvalidVariant
	}
	return invdomain.AdjustRequest{
		Key: invdomain.VariantKey{
			ProductID: productID,
			Color:     b.Color,
			Size:      b.Size,
		},
		Delta:         b.Delta,
		Type:          invdomain.MovementType(b.Type),
		Reason:        b.Reason,
		ReferenceType: invdomain.ReferenceType(b.ReferenceType),
		ReferenceID:   b.ReferenceID,
	}, nil
}

func (s *Server) AdjustStock(c *gin.Context) {
	var body adjustStockBody
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	req, err := body.toRequest()
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.inventorySvc.Adjust(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

type bulkAdjustBody struct {
	Adjustments []adjustStockBody `json:"adjustments"`
}

type bulkAdjustResult struct {
	ProductID string                     `json:"product_id"`
	Color     string                     `json:"color"`
	Size      string                     `json:"size"`
	Movement  *invdomain.MovementResponse `json:"movement,omitempty"`
	Error     string                     `json:"error,omitempty"`
}

// BulkAdjustStock applies each adjustment independently and reports
// per-line outcomes, mirroring how statement batches behave.
func (s *Server) BulkAdjustStock(c *gin.Context) {
	var body bulkAdjustBody
	if err := c.ShouldBindJSON(&body); err != nil || len(body.Adjustments) == 0 {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	reqs := make([]invdomain.AdjustRequest, 0, len(body.Adjustments))
	for _, item := range body.Adjustments {
		req, err := item.toRequest()
		if err != nil {
			AbortWithError(c, err)
			return
		}
		reqs = append(reqs, req)
	}

	results := s.inventorySvc.AdjustMany(c.Request.Context(), reqs)
	out := make([]bulkAdjustResult, 0, len(results))
	for _, result := range results {
		item := bulkAdjustResult{
			ProductID: result.Request.Key.ProductID.String(),
			Color:     result.Request.Key.Color,
			Size:      result.Request.Key.Size,
			Movement:  result.Movement,
		}
		if result.Err != nil {
			item.Error = result.Err.Error()
		}
		out = append(out, item)
	}
	c.JSON(http.StatusOK, gin.H{"results": out})
}

type stockHistoryQuery struct {
	Color     string `form:"color"`
	Size      string `form:"size"`
	PageSize  int    `form:"page_size"`
	PageToken string `form:"page_token"`
}

func (s *Server) StockHistory(c *gin.Context) {
	var query stockHistoryQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	key, err := variantKeyFromPath(c, query.Color, query.Size)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.inventorySvc.HistoryOf(c.Request.Context(), invdomain.HistoryRequest{
		Key:       key,
		PageSize:  query.PageSize,
		PageToken: query.PageToken,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) StockStatus(c *gin.Context) {
	key, err := variantKeyFromPath(c, c.Query("color"), c.Query("size"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.inventorySvc.StatusOf(c.Request.Context(), key)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func variantKeyFromPath(c *gin.Context, color, size string) (invdomain.VariantKey, error) {
	productID, err := snowflake.ParseString(strings.TrimSpace(c.Param("product_id")))
	if err != nil {
		return invdomain.VariantKey{}, invdomain.ErrInvalidVariant
	}
	return invdomain.VariantKey{
		ProductID: productID,
		Color:     color,
		Size:      size,
	}, nil
}
