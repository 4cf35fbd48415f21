package server

import (
	"net/http"

	auditdomain "github.com/domaehub/settle/internal/audit/domain"
	"github.com/gin-gonic/gin"
)

type listAuditLogsQuery struct {
	CompanyID  string `form:"company_id"`
	TargetType string `form:"target_type"`
	TargetID   string `form:"target_id"`
	Limit      int    `form:"limit"`
}

func (s *Server) ListAuditLogs(c *gin.Context) {
	var query listAuditLogsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	logs, err := s.auditSvc.List(c.Request.Context(), auditdomain.ListRequest{
		CompanyID:  query.CompanyID,
		TargetType: query.TargetType,
		TargetID:   query.TargetID,
		Limit:      query.Limit,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"audit_logs": logs})
}
