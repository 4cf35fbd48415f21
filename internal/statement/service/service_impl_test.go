package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/domaehub/settle/internal/audit/domain"
	auditrepo "github.com/domaehub/settle/internal/audit/repository"
	auditservice "github.com/domaehub/settle/internal/audit/service"
	"github.com/domaehub/settle/internal/businessday"
	catalogdomain "github.com/domaehub/settle/internal/catalog/domain"
	catalogrepo "github.com/domaehub/settle/internal/catalog/repository"
	catalogservice "github.com/domaehub/settle/internal/catalog/service"
	"github.com/domaehub/settle/internal/clock"
	companydomain "github.com/domaehub/settle/internal/company/domain"
	companyrepo "github.com/domaehub/settle/internal/company/repository"
	companyservice "github.com/domaehub/settle/internal/company/service"
	invdomain "github.com/domaehub/settle/internal/inventory/domain"
	invrepo "github.com/domaehub/settle/internal/inventory/repository"
	invservice "github.com/domaehub/settle/internal/inventory/service"
	miledomain "github.com/domaehub/settle/internal/mileage/domain"
	milerepo "github.com/domaehub/settle/internal/mileage/repository"
	mileservice "github.com/domaehub/settle/internal/mileage/service"
	orderdomain "github.com/domaehub/settle/internal/order/domain"
	orderrepo "github.com/domaehub/settle/internal/order/repository"
	orderservice "github.com/domaehub/settle/internal/order/service"
	"github.com/domaehub/settle/internal/seed"
	"github.com/domaehub/settle/internal/statement/domain"
	"github.com/domaehub/settle/internal/statement/repository"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	svc       domain.Service
	db        *gorm.DB
	node      *snowflake.Node
	fake      *clock.FakeClock
	catalog   catalogdomain.Service
	inventory invdomain.Service
	mileage   miledomain.Service
	orders    orderdomain.Service

	companyID string
	ownerID   snowflake.ID
	productID string
	variant   invdomain.VariantKey
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, seed.AutoMigrate(db))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	log := zap.NewNop()

	loc, err := time.LoadLocation("Asia/Seoul")
	require.NoError(t, err)
	calc := businessday.NewCalculator(loc, businessday.NewCalendar(businessday.DefaultLunarTable()))

	// Monday 2025-06-09 10:00 in Seoul.
	fake := clock.NewFakeClock(time.Date(2025, 6, 9, 10, 0, 0, 0, loc))

	catalog := catalogservice.NewService(catalogservice.Params{
		DB: db, Log: log, GenID: node, Clock: fake, Repo: catalogrepo.Provide(),
	})
	inventory := invservice.NewService(invservice.Params{
		DB: db, Log: log, GenID: node, Clock: fake, Repo: invrepo.Provide(),
	})
	mileage := mileservice.NewService(mileservice.Params{
		DB: db, Log: log, GenID: node, Clock: fake, Repo: milerepo.Provide(),
	})
	orders := orderservice.NewService(orderservice.Params{
		DB: db, Log: log, GenID: node, Clock: fake, Calculator: calc, Repo: orderrepo.Provide(),
	})
	companies := companyservice.NewService(companyservice.Params{
		DB: db, Log: log, GenID: node, Clock: fake, Repo: companyrepo.Provide(),
	})
	audit := auditservice.NewService(auditservice.Params{
		DB: db, Log: log, GenID: node, Clock: fake, Repo: auditrepo.Provide(),
	})

	svc := NewService(Params{
		DB:        db,
		Log:       log,
		GenID:     node,
		Clock:     fake,
		Calc:      calc,
		Repo:      repository.Provide(),
		Catalog:   catalog,
		Inventory: inventory,
		Mileage:   mileage,
		Orders:    orders,
		Companies: companies,
		Audit:     audit,
	})

	ctx := context.Background()
	ownerID := node.Generate()
	company, err := companies.Create(ctx, companydomain.CreateCompanyRequest{
		Name:        "Hongdae Apparel",
		BusinessNo:  "123-45-67890",
		OwnerUserID: ownerID.String(),
	})
	require.NoError(t, err)

	product, err := catalog.CreateProduct(ctx, catalogdomain.CreateProductRequest{
		Code:      "TEE-001",
		Name:      "Basic Tee",
		BasePrice: 10000,
	})
	require.NoError(t, err)

	productID, err := snowflake.ParseString(product.ID)
	require.NoError(t, err)

	return &fixture{
		svc:       svc,
		db:        db,
		node:      node,
		fake:      fake,
		catalog:   catalog,
		inventory: inventory,
		mileage:   mileage,
		orders:    orders,
		companyID: company.ID,
		ownerID:   ownerID,
		productID: product.ID,
		variant:   invdomain.VariantKey{ProductID: productID}.Normalize(),
	}
}

func (f *fixture) stockQuantity(t *testing.T) int64 {
	t.Helper()
	status, err := f.inventory.StatusOf(context.Background(), f.variant)
	require.NoError(t, err)
	return status.QuantityOnHand
}

func (f *fixture) ownerBalance(t *testing.T) int64 {
	t.Helper()
	balance, err := f.mileage.BalanceOf(context.Background(), f.ownerID)
	require.NoError(t, err)
	return balance
}

func TestProcessReturnSettlesEverything(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order, err := f.orders.Create(ctx, orderdomain.CreateOrderRequest{
		CompanyID: f.companyID,
		UserID:    f.ownerID.String(),
		Items: []orderdomain.CreateOrderItem{
			{ProductID: f.productID, Quantity: 3, UnitPrice: 10000},
		},
	})
	require.NoError(t, err)

	stmt, err := f.svc.CreateReturn(ctx, domain.CreateReturnRequest{
		CompanyID:    f.companyID,
		OrderID:      order.ID,
		RefundMethod: "mileage",
		ReasonCode:   "defect",
		Items: []domain.ItemInput{
			{ProductID: f.productID, Quantity: 3, UnitPrice: 10000},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "RS-20250609-0001", stmt.StatementNumber)
	assert.Equal(t, domain.StatusPending, stmt.Status)
	assert.Equal(t, "2025-06-09", stmt.BusinessDay)
	assert.Equal(t, int64(33000), stmt.Total)

	processed, err := f.svc.Process(ctx, stmt.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRefunded, processed.Status)
	assert.Equal(t, int64(33000), processed.Total)
	assert.Equal(t, int64(33000), processed.MileageMoved)

	// Returned goods come back into stock and the refund lands on the
	// company owner's mileage.
	assert.Equal(t, int64(3), f.stockQuantity(t))
	assert.Equal(t, int64(33000), f.ownerBalance(t))

	refunded, err := f.orders.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, orderdomain.StatusRefunded, refunded.Status)

	var count int64
	require.NoError(t, f.db.Model(&auditdomain.AuditLog{}).Where("action = ?", "statement.process").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestProcessDeduction(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.inventory.Adjust(ctx, invdomain.AdjustRequest{
		Key: f.variant, Delta: 5, Type: invdomain.MovementInbound,
	})
	require.NoError(t, err)
	_, err = f.mileage.Credit(ctx, miledomain.CreditRequest{UserID: f.ownerID, Amount: 50000})
	require.NoError(t, err)

	stmt, err := f.svc.CreateDeduction(ctx, domain.CreateDeductionRequest{
		CompanyID:  f.companyID,
		ReasonCode: "shortage",
		Items: []domain.ItemInput{
			{ProductID: f.productID, Quantity: 2, UnitPrice: 10000},
		},
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stmt.StatementNumber, "DS-20250609-"), stmt.StatementNumber)

	processed, err := f.svc.Process(ctx, stmt.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, processed.Status)
	assert.Equal(t, int64(22000), processed.Total)
	assert.Equal(t, int64(-22000), processed.MileageMoved)

	assert.Equal(t, int64(3), f.stockQuantity(t))
	assert.Equal(t, int64(28000), f.ownerBalance(t))
}

func TestProcessDeductionInsufficientStockRollsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.inventory.Adjust(ctx, invdomain.AdjustRequest{
		Key: f.variant, Delta: 1, Type: invdomain.MovementInbound,
	})
	require.NoError(t, err)
	_, err = f.mileage.Credit(ctx, miledomain.CreditRequest{UserID: f.ownerID, Amount: 100000})
	require.NoError(t, err)

	stmt, err := f.svc.CreateDeduction(ctx, domain.CreateDeductionRequest{
		CompanyID: f.companyID,
		Items: []domain.ItemInput{
			{ProductID: f.productID, Quantity: 2, UnitPrice: 10000},
		},
	})
	require.NoError(t, err)

	_, err = f.svc.Process(ctx, stmt.ID)
	assert.ErrorIs(t, err, invdomain.ErrInsufficientStock)

	// Nothing committed: same stock, same balance, still pending.
	assert.Equal(t, int64(1), f.stockQuantity(t))
	assert.Equal(t, int64(100000), f.ownerBalance(t))

	got, err := f.svc.Get(ctx, stmt.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, got.Status)
}

func TestProcessUnknownVariantFailsWholeStatement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	stmt, err := f.svc.CreateReturn(ctx, domain.CreateReturnRequest{
		CompanyID: f.companyID,
		Items: []domain.ItemInput{
			{ProductID: f.productID, Quantity: 3, UnitPrice: 10000},
			{ProductName: "No Such Product", Quantity: 1, UnitPrice: 5000},
		},
	})
	require.NoError(t, err)

	_, err = f.svc.Process(ctx, stmt.ID)
	assert.ErrorIs(t, err, catalogdomain.ErrUnknownProduct)

	// The resolvable first line must not have moved stock either.
	assert.Equal(t, int64(0), f.stockQuantity(t))
	assert.Equal(t, int64(0), f.ownerBalance(t))

	got, err := f.svc.Get(ctx, stmt.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, got.Status)
}

func TestProcessTwice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	stmt, err := f.svc.CreateReturn(ctx, domain.CreateReturnRequest{
		CompanyID: f.companyID,
		Items:     []domain.ItemInput{{ProductID: f.productID, Quantity: 1, UnitPrice: 10000}},
	})
	require.NoError(t, err)

	_, err = f.svc.Process(ctx, stmt.ID)
	require.NoError(t, err)

	_, err = f.svc.Process(ctx, stmt.ID)
	assert.ErrorIs(t, err, domain.ErrAlreadyProcessed)

	// The second attempt must not double the ledgers.
	assert.Equal(t, int64(1), f.stockQuantity(t))
	assert.Equal(t, int64(11000), f.ownerBalance(t))
}

func TestRejectTerminatesStatement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ret, err := f.svc.CreateReturn(ctx, domain.CreateReturnRequest{
		CompanyID: f.companyID,
		Items:     []domain.ItemInput{{ProductID: f.productID, Quantity: 1, UnitPrice: 10000}},
	})
	require.NoError(t, err)

	rejected, err := f.svc.Reject(ctx, ret.ID, "not our goods")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, rejected.Status)
	assert.Equal(t, "not our goods", rejected.RejectReason)

	_, err = f.svc.Process(ctx, ret.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = f.svc.Reject(ctx, ret.ID, "again")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	// Deductions terminate as cancelled instead.
	ded, err := f.svc.CreateDeduction(ctx, domain.CreateDeductionRequest{
		CompanyID: f.companyID,
		Items:     []domain.ItemInput{{ProductID: f.productID, Quantity: 1, UnitPrice: 10000}},
	})
	require.NoError(t, err)

	cancelled, err := f.svc.Reject(ctx, ded.ID, "")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, cancelled.Status)
}

func TestUpdateItemsPendingOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	stmt, err := f.svc.CreateReturn(ctx, domain.CreateReturnRequest{
		CompanyID: f.companyID,
		Items:     []domain.ItemInput{{ProductID: f.productID, Quantity: 1, UnitPrice: 10000}},
	})
	require.NoError(t, err)

	updated, err := f.svc.UpdateItems(ctx, stmt.ID, []domain.ItemInput{
		{ProductID: f.productID, Quantity: 2, UnitPrice: 10000},
		{ProductID: f.productID, Quantity: 1, UnitPrice: 5000},
	})
	require.NoError(t, err)
	require.Len(t, updated.Items, 2)
	assert.Equal(t, 1, updated.Items[0].LineNo)
	assert.Equal(t, 2, updated.Items[1].LineNo)
	assert.Equal(t, int64(27500), updated.Total)

	_, err = f.svc.Process(ctx, stmt.ID)
	require.NoError(t, err)

	_, err = f.svc.UpdateItems(ctx, stmt.ID, []domain.ItemInput{
		{ProductID: f.productID, Quantity: 1, UnitPrice: 100},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestDeletePendingOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	stmt, err := f.svc.CreateReturn(ctx, domain.CreateReturnRequest{
		CompanyID: f.companyID,
		Items:     []domain.ItemInput{{ProductID: f.productID, Quantity: 1, UnitPrice: 10000}},
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, stmt.ID))
	_, err = f.svc.Get(ctx, stmt.ID)
	assert.ErrorIs(t, err, domain.ErrStatementNotFound)

	processedStmt, err := f.svc.CreateReturn(ctx, domain.CreateReturnRequest{
		CompanyID: f.companyID,
		Items:     []domain.ItemInput{{ProductID: f.productID, Quantity: 1, UnitPrice: 10000}},
	})
	require.NoError(t, err)
	_, err = f.svc.Process(ctx, processedStmt.ID)
	require.NoError(t, err)

	err = f.svc.Delete(ctx, processedStmt.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestStatementNumberSequencesPerDay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	item := []domain.ItemInput{{ProductID: f.productID, Quantity: 1, UnitPrice: 1000}}

	first, err := f.svc.CreateReturn(ctx, domain.CreateReturnRequest{CompanyID: f.companyID, Items: item})
	require.NoError(t, err)
	second, err := f.svc.CreateReturn(ctx, domain.CreateReturnRequest{CompanyID: f.companyID, Items: item})
	require.NoError(t, err)
	assert.Equal(t, "RS-20250609-0001", first.StatementNumber)
	assert.Equal(t, "RS-20250609-0002", second.StatementNumber)

	// Deductions run their own sequence.
	ded, err := f.svc.CreateDeduction(ctx, domain.CreateDeductionRequest{CompanyID: f.companyID, Items: item})
	require.NoError(t, err)
	assert.Equal(t, "DS-20250609-0001", ded.StatementNumber)

	// Past the cutoff creates fall on the next business day.
	f.fake.Advance(6 * time.Hour)
	rolled, err := f.svc.CreateReturn(ctx, domain.CreateReturnRequest{CompanyID: f.companyID, Items: item})
	require.NoError(t, err)
	assert.Equal(t, "RS-20250610-0001", rolled.StatementNumber)
}

func TestStatementNumberNotReusedAfterDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	item := []domain.ItemInput{{ProductID: f.productID, Quantity: 1, UnitPrice: 1000}}

	first, err := f.svc.CreateReturn(ctx, domain.CreateReturnRequest{CompanyID: f.companyID, Items: item})
	require.NoError(t, err)
	second, err := f.svc.CreateReturn(ctx, domain.CreateReturnRequest{CompanyID: f.companyID, Items: item})
	require.NoError(t, err)
	assert.Equal(t, "RS-20250609-0001", first.StatementNumber)
	assert.Equal(t, "RS-20250609-0002", second.StatementNumber)

	// Deleting an earlier pending statement leaves a gap; the sequence
	// keeps moving forward past the surviving 0002.
	require.NoError(t, f.svc.Delete(ctx, first.ID))

	third, err := f.svc.CreateReturn(ctx, domain.CreateReturnRequest{CompanyID: f.companyID, Items: item})
	require.NoError(t, err)
	assert.Equal(t, "RS-20250609-0003", third.StatementNumber)

	// And creation keeps working afterwards.
	fourth, err := f.svc.CreateReturn(ctx, domain.CreateReturnRequest{CompanyID: f.companyID, Items: item})
	require.NoError(t, err)
	assert.Equal(t, "RS-20250609-0004", fourth.StatementNumber)
}

func TestListFiltersAndPaginates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	item := []domain.ItemInput{{ProductID: f.productID, Quantity: 1, UnitPrice: 1000}}
	for i := 0; i < 3; i++ {
		_, err := f.svc.CreateReturn(ctx, domain.CreateReturnRequest{CompanyID: f.companyID, Items: item})
		require.NoError(t, err)
	}
	ded, err := f.svc.CreateDeduction(ctx, domain.CreateDeductionRequest{CompanyID: f.companyID, Items: item})
	require.NoError(t, err)

	returns, err := f.svc.List(ctx, domain.ListRequest{CompanyID: f.companyID, Type: domain.TypeReturn, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, returns.Statements, 2)
	assert.True(t, returns.HasMore)

	rest, err := f.svc.List(ctx, domain.ListRequest{
		CompanyID: f.companyID,
		Type:      domain.TypeReturn,
		PageSize:  2,
		PageToken: returns.NextPageToken,
	})
	require.NoError(t, err)
	require.Len(t, rest.Statements, 1)
	assert.False(t, rest.HasMore)

	deductions, err := f.svc.List(ctx, domain.ListRequest{CompanyID: f.companyID, Type: domain.TypeDeduction})
	require.NoError(t, err)
	require.Len(t, deductions.Statements, 1)
	assert.Equal(t, ded.ID, deductions.Statements[0].ID)

	_, err = f.svc.List(ctx, domain.ListRequest{PageToken: "garbage"})
	assert.ErrorIs(t, err, domain.ErrInvalidPageToken)
}
