package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type CheckOutRequest struct {
	CompanyID string `json:"company_id"`
	ProductID string `json:"product_id"`
	Color     string `json:"color"`
	Size      string `json:"size"`
	Quantity  int64  `json:"quantity"`
	DueDays   int    `json:"due_days"`
}

type SampleResponse struct {
	ID         string       `json:"id"`
	CompanyID  string       `json:"company_id"`
	ProductID  string       `json:"product_id"`
	Color      string       `json:"color"`
	Size       string       `json:"size"`
	Quantity   int64        `json:"quantity"`
	Status     SampleStatus `json:"status"`
	DueDate    time.Time    `json:"due_date"`
	ReturnedAt *time.Time   `json:"returned_at,omitempty"`
}

type Service interface {
	CheckOut(ctx context.Context, req CheckOutRequest) (*SampleResponse, error)
	Return(ctx context.Context, id string) (*SampleResponse, error)
	List(ctx context.Context, companyID string) ([]SampleResponse, error)

	// MarkOverdue flips checked-out samples past their due date and
	// returns how many were flipped. The scheduler sweep calls it.
	MarkOverdue(ctx context.Context, batchSize int) (int, error)
}

type Repository interface {
	Insert(ctx context.Context, conn *gorm.DB, sample *Sample) error
	FindByID(ctx context.Context, conn *gorm.DB, id snowflake.ID) (*Sample, error)
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*Sample, error)
	ListByCompany(ctx context.Context, conn *gorm.DB, companyID snowflake.ID) ([]Sample, error)
	ListDue(ctx context.Context, conn *gorm.DB, before time.Time, limit int) ([]Sample, error)
	UpdateStatus(ctx context.Context, conn *gorm.DB, sample *Sample) error
}

var (
	ErrSampleNotFound = errors.New("sample_not_found")
	ErrAlreadyClosed  = errors.New("sample_already_closed")
	ErrInvalidID      = errors.New("invalid_id")
	ErrInvalidCompany = errors.New("invalid_company")
	ErrInvalidItem    = errors.New("invalid_item")
)
