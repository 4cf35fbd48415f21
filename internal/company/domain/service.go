package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type CreateCompanyRequest struct {
	Name         string `json:"name"`
	BusinessNo   string `json:"business_no"`
	OwnerUserID  string `json:"owner_user_id"`
	ContactEmail string `json:"contact_email"`
}

type CompanyResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	BusinessNo   string `json:"business_no"`
	OwnerUserID  string `json:"owner_user_id"`
	ContactEmail string `json:"contact_email,omitempty"`
	Active       bool   `json:"active"`
}

type Service interface {
	Create(ctx context.Context, req CreateCompanyRequest) (*CompanyResponse, error)
	Get(ctx context.Context, id string) (*CompanyResponse, error)

	// OwnerOf resolves the mileage owner for a company id.
	OwnerOf(ctx context.Context, id snowflake.ID) (snowflake.ID, error)
}

type Repository interface {
	Insert(ctx context.Context, conn *gorm.DB, company *Company) error
	FindByID(ctx context.Context, conn *gorm.DB, id snowflake.ID) (*Company, error)
}

var (
	ErrCompanyNotFound = errors.New("company_not_found")
	ErrInvalidName     = errors.New("invalid_name")
	ErrInvalidOwner    = errors.New("invalid_owner")
	ErrInvalidID       = errors.New("invalid_id")
	ErrDuplicateNo     = errors.New("duplicate_business_no")
)
