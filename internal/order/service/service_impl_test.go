package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/domaehub/settle/internal/businessday"
	"github.com/domaehub/settle/internal/clock"
	"github.com/domaehub/settle/internal/order/domain"
	"github.com/domaehub/settle/internal/order/repository"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (domain.Service, *clock.FakeClock, *snowflake.Node) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Order{}, &domain.OrderItem{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	loc, err := time.LoadLocation("Asia/Seoul")
	require.NoError(t, err)
	calc := businessday.NewCalculator(loc, businessday.NewCalendar(businessday.DefaultLunarTable()))

	// Monday 2025-06-09 10:00 in Seoul, well before the cutoff.
	fake := clock.NewFakeClock(time.Date(2025, 6, 9, 10, 0, 0, 0, loc))

	svc := NewService(Params{
		DB:         db,
		Log:        zap.NewNop(),
		GenID:      node,
		Clock:      fake,
		Calculator: calc,
		Repo:       repository.Provide(),
	})
	return svc, fake, node
}

func createOrder(t *testing.T, svc domain.Service, node *snowflake.Node) *domain.OrderResponse {
	t.Helper()
	order, err := svc.Create(context.Background(), domain.CreateOrderRequest{
		CompanyID: node.Generate().String(),
		UserID:    node.Generate().String(),
		Items: []domain.CreateOrderItem{
			{ProductID: node.Generate().String(), Color: "black", Size: "M", Quantity: 2, UnitPrice: 10000},
		},
	})
	require.NoError(t, err)
	return order
}

func TestCreateAssignsBusinessDay(t *testing.T) {
	svc, _, node := newTestService(t)

	order := createOrder(t, svc, node)
	assert.Equal(t, "2025-06-09", order.BusinessDay)
	assert.Equal(t, domain.StatusPlaced, order.Status)
	assert.True(t, order.Editable)
	assert.True(t, strings.HasPrefix(order.OrderNumber, "ORD-20250609-"), order.OrderNumber)
}

func TestCreateAfterCutoffRollsForward(t *testing.T) {
	svc, fake, node := newTestService(t)

	loc, err := time.LoadLocation("Asia/Seoul")
	require.NoError(t, err)
	// Friday 2025-06-13 16:00 settles under the following Monday.
	fake.Set(time.Date(2025, 6, 13, 16, 0, 0, 0, loc))

	order := createOrder(t, svc, node)
	assert.Equal(t, "2025-06-16", order.BusinessDay)
}

func TestCreateValidation(t *testing.T) {
	svc, _, node := newTestService(t)
	ctx := context.Background()

	item := domain.CreateOrderItem{ProductID: node.Generate().String(), Quantity: 1, UnitPrice: 100}

	_, err := svc.Create(ctx, domain.CreateOrderRequest{CompanyID: "nope", UserID: node.Generate().String(), Items: []domain.CreateOrderItem{item}})
	assert.ErrorIs(t, err, domain.ErrInvalidCompany)

	_, err = svc.Create(ctx, domain.CreateOrderRequest{CompanyID: node.Generate().String(), UserID: "", Items: []domain.CreateOrderItem{item}})
	assert.ErrorIs(t, err, domain.ErrInvalidUser)

	_, err = svc.Create(ctx, domain.CreateOrderRequest{CompanyID: node.Generate().String(), UserID: node.Generate().String()})
	assert.ErrorIs(t, err, domain.ErrEmptyOrder)

	_, err = svc.Create(ctx, domain.CreateOrderRequest{
		CompanyID: node.Generate().String(),
		UserID:    node.Generate().String(),
		Items:     []domain.CreateOrderItem{{ProductID: node.Generate().String(), Quantity: 0, UnitPrice: 100}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidItem)
}

func TestMutationLockedAfterCutoff(t *testing.T) {
	svc, fake, node := newTestService(t)
	ctx := context.Background()

	order := createOrder(t, svc, node)

	// Still inside the settlement window.
	updated, err := svc.UpdateStatus(ctx, order.ID, domain.StatusPreparing)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPreparing, updated.Status)

	updated, err = svc.SetTracking(ctx, order.ID, "CJ-1234")
	require.NoError(t, err)
	assert.Equal(t, "CJ-1234", updated.TrackingNumber)

	// Past the cutoff the order belongs to a closed business day.
	fake.Advance(6 * time.Hour)

	_, err = svc.UpdateStatus(ctx, order.ID, domain.StatusShipped)
	assert.ErrorIs(t, err, domain.ErrOrderLocked)
	_, err = svc.SetTracking(ctx, order.ID, "CJ-5678")
	assert.ErrorIs(t, err, domain.ErrOrderLocked)
	err = svc.Delete(ctx, order.ID)
	assert.ErrorIs(t, err, domain.ErrOrderLocked)

	got, err := svc.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.False(t, got.Editable)
	assert.Equal(t, domain.StatusPreparing, got.Status)
}

func TestDeleteWhileEditable(t *testing.T) {
	svc, _, node := newTestService(t)
	ctx := context.Background()

	order := createOrder(t, svc, node)
	require.NoError(t, svc.Delete(ctx, order.ID))

	_, err := svc.Get(ctx, order.ID)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestListByDay(t *testing.T) {
	svc, fake, node := newTestService(t)
	ctx := context.Background()
	companyID := node.Generate()

	item := domain.CreateOrderItem{ProductID: node.Generate().String(), Quantity: 1, UnitPrice: 100}

	first, err := svc.Create(ctx, domain.CreateOrderRequest{CompanyID: companyID.String(), UserID: node.Generate().String(), Items: []domain.CreateOrderItem{item}})
	require.NoError(t, err)

	fake.Advance(time.Hour)
	second, err := svc.Create(ctx, domain.CreateOrderRequest{CompanyID: companyID.String(), UserID: node.Generate().String(), Items: []domain.CreateOrderItem{item}})
	require.NoError(t, err)

	// Another company's order on the same day is not listed.
	_, err = svc.Create(ctx, domain.CreateOrderRequest{CompanyID: node.Generate().String(), UserID: node.Generate().String(), Items: []domain.CreateOrderItem{item}})
	require.NoError(t, err)

	orders, err := svc.ListByDay(ctx, domain.ListByDayRequest{CompanyID: companyID.String(), BusinessDay: "2025-06-09"})
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, first.ID, orders[0].ID)
	assert.Equal(t, second.ID, orders[1].ID)

	// A blank day defaults to the current working date.
	orders, err = svc.ListByDay(ctx, domain.ListByDayRequest{CompanyID: companyID.String()})
	require.NoError(t, err)
	assert.Len(t, orders, 2)

	_, err = svc.ListByDay(ctx, domain.ListByDayRequest{CompanyID: companyID.String(), BusinessDay: "last tuesday"})
	assert.Error(t, err)
}
