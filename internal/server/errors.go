package server

import (
	"errors"
	"net/http"

	catalogdomain "github.com/domaehub/settle/internal/catalog/domain"
	companydomain "github.com/domaehub/settle/internal/company/domain"
	invdomain "github.com/domaehub/settle/internal/inventory/domain"
	miledomain "github.com/domaehub/settle/internal/mileage/domain"
	orderdomain "github.com/domaehub/settle/internal/order/domain"
	sampledomain "github.com/domaehub/settle/internal/sample/domain"
	stmtdomain "github.com/domaehub/settle/internal/statement/domain"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type errorPayload struct {
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var ErrInvalidRequest = errors.New("invalid_request")

// ErrorHandlingMiddleware renders the last handler error as a JSON
// envelope unless a handler already wrote a response.
func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, errorPayload) {
	switch {
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Code:    err.Error(),
			Message: "not found",
		}
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Code:    err.Error(),
			Message: "conflict",
		}
	case errors.Is(err, catalogdomain.ErrUnknownVariant):
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "unknown_variant",
			Code:    err.Error(),
			Message: "variant is not registered in the catalog",
		}
	case isValidationError(err):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Code:    err.Error(),
			Message: "validation error",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

// classifyErrorForLog feeds request logging without leaking internals.
func classifyErrorForLog(err error) (string, string) {
	status, payload := mapError(err)
	if status >= http.StatusInternalServerError {
		return payload.Type, ""
	}
	return payload.Type, payload.Code
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound),
		errors.Is(err, stmtdomain.ErrStatementNotFound),
		errors.Is(err, orderdomain.ErrOrderNotFound),
		errors.Is(err, companydomain.ErrCompanyNotFound),
		errors.Is(err, sampledomain.ErrSampleNotFound),
		errors.Is(err, catalogdomain.ErrUnknownProduct),
		errors.Is(err, miledomain.ErrEntryNotFound):
		return true
	}
	return false
}

func isConflictError(err error) bool {
	switch {
	case errors.Is(err, invdomain.ErrInsufficientStock),
		errors.Is(err, miledomain.ErrInsufficientMileage),
		errors.Is(err, stmtdomain.ErrAlreadyProcessed),
		errors.Is(err, stmtdomain.ErrInvalidTransition),
		errors.Is(err, orderdomain.ErrOrderLocked),
		errors.Is(err, sampledomain.ErrAlreadyClosed),
		errors.Is(err, catalogdomain.ErrDuplicateCode),
		errors.Is(err, companydomain.ErrDuplicateNo):
		return true
	}
	return false
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, invdomain.ErrInvalidVariant),
		errors.Is(err, invdomain.ErrInvalidDelta),
		errors.Is(err, invdomain.ErrInvalidType),
		errors.Is(err, invdomain.ErrInvalidPageToken),
		errors.Is(err, miledomain.ErrInvalidUser),
		errors.Is(err, miledomain.ErrInvalidAmount),
		errors.Is(err, stmtdomain.ErrInvalidCompany),
		errors.Is(err, stmtdomain.ErrInvalidID),
		errors.Is(err, stmtdomain.ErrInvalidRefund),
		errors.Is(err, stmtdomain.ErrEmptyStatement),
		errors.Is(err, stmtdomain.ErrInvalidItem),
		errors.Is(err, stmtdomain.ErrInvalidPageToken),
		errors.Is(err, orderdomain.ErrInvalidID),
		errors.Is(err, orderdomain.ErrInvalidStatus),
		errors.Is(err, orderdomain.ErrInvalidCompany),
		errors.Is(err, orderdomain.ErrInvalidUser),
		errors.Is(err, orderdomain.ErrEmptyOrder),
		errors.Is(err, orderdomain.ErrInvalidItem),
		errors.Is(err, catalogdomain.ErrInvalidCode),
		errors.Is(err, catalogdomain.ErrInvalidName),
		errors.Is(err, catalogdomain.ErrInvalidID),
		errors.Is(err, companydomain.ErrInvalidName),
		errors.Is(err, companydomain.ErrInvalidOwner),
		errors.Is(err, companydomain.ErrInvalidID),
		errors.Is(err, sampledomain.ErrInvalidID),
		errors.Is(err, sampledomain.ErrInvalidCompany),
		errors.Is(err, sampledomain.ErrInvalidItem):
		return true
	}
	return false
}
