package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type ItemInput struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Color       string `json:"color"`
	Size        string `json:"size"`
	Quantity    int64  `json:"quantity"`
	UnitPrice   int64  `json:"unit_price"`
}

type CreateReturnRequest struct {
	CompanyID    string      `json:"company_id"`
	OrderID      string      `json:"order_id"`
	RefundMethod string      `json:"refund_method"`
	ReasonCode   string      `json:"reason_code"`
	Items        []ItemInput `json:"items"`
}

type CreateDeductionRequest struct {
	CompanyID  string      `json:"company_id"`
	ReasonCode string      `json:"reason_code"`
	Items      []ItemInput `json:"items"`
}

type ItemResponse struct {
	ID          string `json:"id"`
	LineNo      int    `json:"line_no"`
	ProductID   string `json:"product_id,omitempty"`
	ProductName string `json:"product_name"`
	Color       string `json:"color"`
	Size        string `json:"size"`
	Quantity    int64  `json:"quantity"`
	UnitPrice   int64  `json:"unit_price"`
	LineTotal   int64  `json:"line_total"`
	Tax         int64  `json:"tax"`
	Total       int64  `json:"total"`
}

type StatementResponse struct {
	ID              string          `json:"id"`
	StatementNumber string          `json:"statement_number"`
	Type            StatementType   `json:"type"`
	CompanyID       string          `json:"company_id"`
	OrderID         string          `json:"order_id,omitempty"`
	Status          StatementStatus `json:"status"`
	RefundMethod    RefundMethod    `json:"refund_method,omitempty"`
	ReasonCode      string          `json:"reason_code,omitempty"`
	RejectReason    string          `json:"reject_reason,omitempty"`
	BusinessDay     string          `json:"business_day"`
	Total           int64           `json:"total"`
	ProcessedAt     *time.Time      `json:"processed_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	Items           []ItemResponse  `json:"items,omitempty"`
}

type ListRequest struct {
	CompanyID string          `json:"company_id"`
	Type      StatementType   `json:"type"`
	Status    StatementStatus `json:"status"`
	PageSize  int             `json:"page_size"`
	PageToken string          `json:"page_token"`
}

type ListResponse struct {
	Statements    []StatementResponse `json:"statements"`
	NextPageToken string              `json:"next_page_token,omitempty"`
	HasMore       bool                `json:"has_more"`
}

type ProcessResponse struct {
	ID              string          `json:"id"`
	StatementNumber string          `json:"statement_number"`
	Type            StatementType   `json:"type"`
	Status          StatementStatus `json:"status"`
	Total           int64           `json:"total"`
	MileageMoved    int64           `json:"mileage_moved"`
	ProcessedAt     time.Time       `json:"processed_at"`
}

type Service interface {
	CreateReturn(ctx context.Context, req CreateReturnRequest) (*StatementResponse, error)
	CreateDeduction(ctx context.Context, req CreateDeductionRequest) (*StatementResponse, error)
	Get(ctx context.Context, id string) (*StatementResponse, error)
	List(ctx context.Context, req ListRequest) (*ListResponse, error)

	// UpdateItems replaces the full line set. Pending statements only;
	// totals are derived so nothing else needs recomputing.
	UpdateItems(ctx context.Context, id string, items []ItemInput) (*StatementResponse, error)

	Reject(ctx context.Context, id string, reason string) (*StatementResponse, error)
	Delete(ctx context.Context, id string) error

	// Process settles a pending statement in one transaction: every
	// line's variant resolved, a stock movement per line, one aggregate
	// mileage entry, the status flip and the order flip for returns.
	// Any failure rolls everything back.
	Process(ctx context.Context, id string) (*ProcessResponse, error)
}

type Repository interface {
	Insert(ctx context.Context, conn *gorm.DB, statement *Statement, items []StatementItem) error
	FindByID(ctx context.Context, conn *gorm.DB, id snowflake.ID) (*Statement, error)
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*Statement, error)
	ListItems(ctx context.Context, conn *gorm.DB, statementID snowflake.ID) ([]StatementItem, error)
	List(ctx context.Context, conn *gorm.DB, filter ListFilter) ([]Statement, error)
	ReplaceItems(ctx context.Context, tx *gorm.DB, statementID snowflake.ID, items []StatementItem) error
	UpdateStatus(ctx context.Context, conn *gorm.DB, statement *Statement) error
	Delete(ctx context.Context, tx *gorm.DB, id snowflake.ID) error

	// LastNumberForDay returns the highest statement number issued for
	// the type and business day, or "" when none exists. Numbers are
	// never reissued, so sequencing from the maximum stays correct when
	// earlier pending statements have been deleted.
	LastNumberForDay(ctx context.Context, conn *gorm.DB, typ StatementType, businessDay string) (string, error)
}

type ListFilter struct {
	CompanyID snowflake.ID
	Type      StatementType
	Status    StatementStatus
	Limit     int
	BeforeID  int64
}

var (
	ErrStatementNotFound = errors.New("statement_not_found")
	ErrAlreadyProcessed  = errors.New("statement_already_processed")
	ErrInvalidTransition = errors.New("invalid_transition")
	ErrInvalidCompany    = errors.New("invalid_company")
	ErrInvalidID         = errors.New("invalid_id")
	ErrInvalidRefund     = errors.New("invalid_refund_method")
	ErrEmptyStatement    = errors.New("empty_statement")
	ErrInvalidItem       = errors.New("invalid_item")
	ErrInvalidPageToken  = errors.New("invalid_page_token")
)
