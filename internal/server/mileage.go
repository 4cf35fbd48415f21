package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	miledomain "github.com/domaehub/settle/internal/mileage/domain"
	"github.com/gin-gonic/gin"
)

func (s *Server) MileageBalance(c *gin.Context) {
	userID, err := snowflake.ParseString(strings.TrimSpace(c.Param("user_id")))
	if err != nil {
		AbortWithError(c, miledomain.ErrInvalidUser)
		return
	}

	balance, err := s.mileageSvc.BalanceOf(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user_id": userID.String(),
		"balance": balance,
	})
}

type mileageEntryBody struct {
	UserID      string `json:"user_id"`
	Amount      int64  `json:"amount"`
	Source      string `json:"source"`
	ReferenceID string `json:"reference_id"`
	Override    bool   `json:"override"`
}

func (s *Server) CreditMileage(c *gin.Context) {
	var body mileageEntryBody
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	userID, err := snowflake.ParseString(strings.TrimSpace(body.UserID))
	if err != nil {
		AbortWithError(c, miledomain.ErrInvalidUser)
		return
	}

	resp, err := s.mileageSvc.Credit(c.Request.Context(), miledomain.CreditRequest{
		UserID:      userID,
		Amount:      body.Amount,
		Source:      entrySource(body.Source),
		ReferenceID: body.ReferenceID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) DebitMileage(c *gin.Context) {
	var body mileageEntryBody
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	userID, err := snowflake.ParseString(strings.TrimSpace(body.UserID))
	if err != nil {
		AbortWithError(c, miledomain.ErrInvalidUser)
		return
	}

	resp, err := s.mileageSvc.Debit(c.Request.Context(), miledomain.DebitRequest{
		UserID:      userID,
		Amount:      body.Amount,
		Source:      entrySource(body.Source),
		ReferenceID: body.ReferenceID,
		Override:    body.Override,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) ReverseMileageEntry(c *gin.Context) {
	entryID, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, miledomain.ErrEntryNotFound)
		return
	}

	resp, err := s.mileageSvc.Reverse(c.Request.Context(), entryID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func entrySource(value string) miledomain.EntrySource {
	source := miledomain.EntrySource(strings.TrimSpace(value))
	switch source {
	case miledomain.SourceOrder, miledomain.SourceRefund, miledomain.SourceManual, miledomain.SourceAuto:
		return source
	}
	return miledomain.SourceManual
}
