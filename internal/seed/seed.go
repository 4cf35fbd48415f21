package seed

import (
	"time"

	"github.com/domaehub/settle/internal/audit/domain"
	"github.com/domaehub/settle/internal/businessday"
	catalogdomain "github.com/domaehub/settle/internal/catalog/domain"
	companydomain "github.com/domaehub/settle/internal/company/domain"
	invdomain "github.com/domaehub/settle/internal/inventory/domain"
	miledomain "github.com/domaehub/settle/internal/mileage/domain"
	orderdomain "github.com/domaehub/settle/internal/order/domain"
	sampledomain "github.com/domaehub/settle/internal/sample/domain"
	stmtdomain "github.com/domaehub/settle/internal/statement/domain"
	"gorm.io/gorm"
)

// CalendarHoliday is one closed calendar date. The businessday
// calculator merges these rows over its built-in lunar table at boot.
type CalendarHoliday struct {
	ID    int64  `gorm:"primaryKey"`
	Year  int    `gorm:"not null;uniqueIndex:ux_calendar_holidays_date,priority:1"`
	Month int    `gorm:"not null;uniqueIndex:ux_calendar_holidays_date,priority:2"`
	Day   int    `gorm:"not null;uniqueIndex:ux_calendar_holidays_date,priority:3"`
	Kind  string `gorm:"type:text;not null;uniqueIndex:ux_calendar_holidays_date,priority:4"`
	Label string `gorm:"type:text"`
}

func (CalendarHoliday) TableName() string { return "calendar_holidays" }

// AutoMigrate builds the schema directly from the models. Used for
// sqlite databases where versioned migrations do not run.
func AutoMigrate(conn *gorm.DB) error {
	return conn.AutoMigrate(
		&companydomain.Company{},
		&catalogdomain.Product{},
		&catalogdomain.ProductOption{},
		&orderdomain.Order{},
		&orderdomain.OrderItem{},
		&invdomain.StockRecord{},
		&invdomain.StockMovement{},
		&miledomain.MileageAccount{},
		&miledomain.MileageEntry{},
		&stmtdomain.Statement{},
		&stmtdomain.StatementItem{},
		&sampledomain.Sample{},
		&domain.AuditLog{},
		&CalendarHoliday{},
	)
}

// EnsureCalendar inserts the known lunar holiday dates. IDs are
// derived from the date so repeated boots never duplicate rows.
func EnsureCalendar(conn *gorm.DB) error {
	for _, dates := range businessday.DefaultLunarTable() {
		for _, d := range dates {
			row := CalendarHoliday{
				ID:    int64(d.Year)*100000 + int64(d.Month)*1000 + int64(d.Day)*10,
				Year:  d.Year,
				Month: int(d.Month),
				Day:   d.Day,
				Kind:  "lunar",
			}
			err := conn.Where(CalendarHoliday{
				Year:  row.Year,
				Month: row.Month,
				Day:   row.Day,
				Kind:  row.Kind,
			}).FirstOrCreate(&row).Error
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// EnsureDemoData creates a small company and product set so a fresh
// development install has something to settle against.
func EnsureDemoData(conn *gorm.DB) error {
	now := time.Now().UTC()

	company := companydomain.Company{
		ID:          1,
		Name:        "Demo Trading Co",
		BusinessNo:  "000-00-00000",
		OwnerUserID: 1,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err := conn.Where(companydomain.Company{BusinessNo: company.BusinessNo}).
		FirstOrCreate(&company).Error
	if err != nil {
		return err
	}

	products := []catalogdomain.Product{
		{ID: 101, Code: "DEMO-TEE", Name: "Demo Tee", BasePrice: 10000, Active: true, CreatedAt: now, UpdatedAt: now},
		{ID: 102, Code: "DEMO-DENIM", Name: "Demo Denim", BasePrice: 30000, Active: true, CreatedAt: now, UpdatedAt: now},
	}
	for i := range products {
		err := conn.Where(catalogdomain.Product{Code: products[i].Code}).
			FirstOrCreate(&products[i]).Error
		if err != nil {
			return err
		}
	}

	options := []catalogdomain.ProductOption{
		{ID: 201, ProductID: 101, Color: "black", Size: "M", PriceDelta: 0, Active: true, CreatedAt: now},
		{ID: 202, ProductID: 101, Color: "black", Size: "L", PriceDelta: 500, Active: true, CreatedAt: now},
	}
	for i := range options {
		err := conn.Where(catalogdomain.ProductOption{
			ProductID: options[i].ProductID,
			Color:     options[i].Color,
			Size:      options[i].Size,
		}).FirstOrCreate(&options[i]).Error
		if err != nil {
			return err
		}
	}
	return nil
}
