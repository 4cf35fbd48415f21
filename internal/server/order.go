package server

import (
	"net/http"

	orderdomain "github.com/domaehub/settle/internal/order/domain"
	"github.com/gin-gonic/gin"
)

func (s *Server) CreateOrder(c *gin.Context) {
	var req orderdomain.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.orderSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

type listOrdersQuery struct {
	CompanyID   string `form:"company_id"`
	BusinessDay string `form:"business_day"`
}

func (s *Server) ListOrders(c *gin.Context) {
	var query listOrdersQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.orderSvc.ListByDay(c.Request.Context(), orderdomain.ListByDayRequest{
		CompanyID:   query.CompanyID,
		BusinessDay: query.BusinessDay,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": resp})
}

func (s *Server) GetOrder(c *gin.Context) {
	resp, err := s.orderSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

type updateOrderStatusBody struct {
	Status string `json:"status"`
}

func (s *Server) UpdateOrderStatus(c *gin.Context) {
	var body updateOrderStatusBody
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.orderSvc.UpdateStatus(c.Request.Context(), c.Param("id"), orderdomain.OrderStatus(body.Status))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

type setOrderTrackingBody struct {
	TrackingNumber string `json:"tracking_number"`
}

func (s *Server) SetOrderTracking(c *gin.Context) {
	var body setOrderTrackingBody
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.orderSvc.SetTracking(c.Request.Context(), c.Param("id"), body.TrackingNumber)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) DeleteOrder(c *gin.Context) {
	if err := s.orderSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
