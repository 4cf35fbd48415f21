package server

import (
	"net/http"

	stmtdomain "github.com/domaehub/settle/internal/statement/domain"
	"github.com/gin-gonic/gin"
)

func (s *Server) CreateReturnStatement(c *gin.Context) {
	var req stmtdomain.CreateReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.statementSvc.CreateReturn(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (s *Server) CreateDeductionStatement(c *gin.Context) {
	var req stmtdomain.CreateDeductionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.statementSvc.CreateDeduction(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

type listStatementsQuery struct {
	CompanyID string `form:"company_id"`
	Type      string `form:"type"`
	Status    string `form:"status"`
	PageSize  int    `form:"page_size"`
	PageToken string `form:"page_token"`
}

func (s *Server) ListStatements(c *gin.Context) {
	var query listStatementsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.statementSvc.List(c.Request.Context(), stmtdomain.ListRequest{
		CompanyID: query.CompanyID,
		Type:      stmtdomain.StatementType(query.Type),
		Status:    stmtdomain.StatementStatus(query.Status),
		PageSize:  query.PageSize,
		PageToken: query.PageToken,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) GetStatement(c *gin.Context) {
	resp, err := s.statementSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

type updateStatementItemsBody struct {
	Items []stmtdomain.ItemInput `json:"items"`
}

func (s *Server) UpdateStatementItems(c *gin.Context) {
	var body updateStatementItemsBody
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.statementSvc.UpdateItems(c.Request.Context(), c.Param("id"), body.Items)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

type rejectStatementBody struct {
	Reason string `json:"reason"`
}

func (s *Server) RejectStatement(c *gin.Context) {
	var body rejectStatementBody
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.statementSvc.Reject(c.Request.Context(), c.Param("id"), body.Reason)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) ProcessStatement(c *gin.Context) {
	resp, err := s.statementSvc.Process(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) DeleteStatement(c *gin.Context) {
	if err := s.statementSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type processBatchBody struct {
	StatementIDs []string `json:"statement_ids"`
}

// ProcessStatementBatch settles many statements in one call. Always
// returns 200 with per-statement outcomes; partial failure is the
// expected shape, not an error.
func (s *Server) ProcessStatementBatch(c *gin.Context) {
	var body processBatchBody
	if err := c.ShouldBindJSON(&body); err != nil || len(body.StatementIDs) == 0 {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	result := s.coordinator.ProcessBatch(c.Request.Context(), body.StatementIDs)
	c.JSON(http.StatusOK, result)
}
