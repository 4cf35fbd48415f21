package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/domaehub/settle/internal/clock"
	"github.com/domaehub/settle/internal/inventory/domain"
	"github.com/domaehub/settle/internal/inventory/repository"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (domain.Service, *gorm.DB, *snowflake.Node) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.StockRecord{}, &domain.StockMovement{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := NewService(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.NewFakeClock(time.Date(2025, 6, 10, 2, 0, 0, 0, time.UTC)),
		Repo:  repository.Provide(),
	})
	return svc, db, node
}

func TestAdjustSumOfDeltas(t *testing.T) {
	svc, _, node := newTestService(t)
	ctx := context.Background()
	key := domain.VariantKey{ProductID: node.Generate(), Color: "black", Size: "M"}

	deltas := []struct {
		delta int64
		typ   domain.MovementType
	}{
		{50, domain.MovementInbound},
		{-8, domain.MovementOutbound},
		{3, domain.MovementReturnIn},
		{-1, domain.MovementAdjustment},
	}
	var want int64
	for _, d := range deltas {
		movement, err := svc.Adjust(ctx, domain.AdjustRequest{Key: key, Delta: d.delta, Type: d.typ})
		require.NoError(t, err)
		want += d.delta
		assert.Equal(t, want, movement.ResultingQuantity)
	}

	status, err := svc.StatusOf(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, want, status.QuantityOnHand)
}

func TestAdjustInsufficientStockLeavesQuantityUnchanged(t *testing.T) {
	svc, _, node := newTestService(t)
	ctx := context.Background()
	key := domain.VariantKey{ProductID: node.Generate()}

	_, err := svc.Adjust(ctx, domain.AdjustRequest{Key: key, Delta: 5, Type: domain.MovementInbound})
	require.NoError(t, err)

	_, err = svc.Adjust(ctx, domain.AdjustRequest{Key: key, Delta: -6, Type: domain.MovementOutbound})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	status, err := svc.StatusOf(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, int64(5), status.QuantityOnHand)

	// The refused movement must not appear in history either.
	history, err := svc.HistoryOf(ctx, domain.HistoryRequest{Key: key})
	require.NoError(t, err)
	assert.Len(t, history.Movements, 1)
}

func TestAdjustValidation(t *testing.T) {
	svc, _, node := newTestService(t)
	ctx := context.Background()

	_, err := svc.Adjust(ctx, domain.AdjustRequest{Key: domain.VariantKey{}, Delta: 1, Type: domain.MovementInbound})
	assert.ErrorIs(t, err, domain.ErrInvalidVariant)

	key := domain.VariantKey{ProductID: node.Generate()}
	_, err = svc.Adjust(ctx, domain.AdjustRequest{Key: key, Delta: 0, Type: domain.MovementInbound})
	assert.ErrorIs(t, err, domain.ErrInvalidDelta)

	_, err = svc.Adjust(ctx, domain.AdjustRequest{Key: key, Delta: 1, Type: "teleport"})
	assert.ErrorIs(t, err, domain.ErrInvalidType)
}

func TestAdjustManyPartialFailure(t *testing.T) {
	svc, _, node := newTestService(t)
	ctx := context.Background()

	stocked := domain.VariantKey{ProductID: node.Generate()}
	empty := domain.VariantKey{ProductID: node.Generate()}

	_, err := svc.Adjust(ctx, domain.AdjustRequest{Key: stocked, Delta: 10, Type: domain.MovementInbound})
	require.NoError(t, err)

	results := svc.AdjustMany(ctx, []domain.AdjustRequest{
		{Key: stocked, Delta: -4, Type: domain.MovementOutbound},
		{Key: empty, Delta: -1, Type: domain.MovementOutbound},
		{Key: stocked, Delta: -2, Type: domain.MovementOutbound},
	})

	require.Len(t, results, 3)
	assert.NoError(t, results[0].Err)
	assert.ErrorIs(t, results[1].Err, domain.ErrInsufficientStock)
	assert.NoError(t, results[2].Err)

	status, err := svc.StatusOf(ctx, stocked)
	require.NoError(t, err)
	assert.Equal(t, int64(4), status.QuantityOnHand)
}

func TestHistoryPagination(t *testing.T) {
	svc, _, node := newTestService(t)
	ctx := context.Background()
	key := domain.VariantKey{ProductID: node.Generate()}

	for i := 0; i < 5; i++ {
		_, err := svc.Adjust(ctx, domain.AdjustRequest{Key: key, Delta: 1, Type: domain.MovementInbound})
		require.NoError(t, err)
	}

	first, err := svc.HistoryOf(ctx, domain.HistoryRequest{Key: key, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, first.Movements, 2)
	assert.True(t, first.HasMore)
	// Newest first.
	assert.Equal(t, int64(5), first.Movements[0].ResultingQuantity)
	assert.Equal(t, int64(4), first.Movements[1].ResultingQuantity)

	second, err := svc.HistoryOf(ctx, domain.HistoryRequest{Key: key, PageSize: 2, PageToken: first.NextPageToken})
	require.NoError(t, err)
	require.Len(t, second.Movements, 2)
	assert.Equal(t, int64(3), second.Movements[0].ResultingQuantity)

	third, err := svc.HistoryOf(ctx, domain.HistoryRequest{Key: key, PageSize: 2, PageToken: second.NextPageToken})
	require.NoError(t, err)
	require.Len(t, third.Movements, 1)
	assert.False(t, third.HasMore)
	assert.Empty(t, third.NextPageToken)

	_, err = svc.HistoryOf(ctx, domain.HistoryRequest{Key: key, PageToken: "not-a-token"})
	assert.ErrorIs(t, err, domain.ErrInvalidPageToken)
}

func TestStatusThresholds(t *testing.T) {
	svc, _, node := newTestService(t)
	ctx := context.Background()

	// Unknown variants report zero on hand rather than an error.
	unknown := domain.VariantKey{ProductID: node.Generate()}
	status, err := svc.StatusOf(ctx, unknown)
	require.NoError(t, err)
	assert.Equal(t, int64(0), status.QuantityOnHand)
	assert.Equal(t, domain.StockStatusOutOfStock, status.Status)

	cases := []struct {
		quantity int64
		want     domain.StockStatus
	}{
		{1, domain.StockStatusLow},
		{10, domain.StockStatusLow},
		{11, domain.StockStatusNormal},
	}
	for _, tc := range cases {
		key := domain.VariantKey{ProductID: node.Generate()}
		_, err := svc.Adjust(ctx, domain.AdjustRequest{Key: key, Delta: tc.quantity, Type: domain.MovementInbound})
		require.NoError(t, err)

		status, err := svc.StatusOf(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, tc.want, status.Status, "quantity %d", tc.quantity)
	}
}

func TestMovementsAreImmutableAppendOnly(t *testing.T) {
	svc, db, node := newTestService(t)
	ctx := context.Background()
	key := domain.VariantKey{ProductID: node.Generate()}

	_, err := svc.Adjust(ctx, domain.AdjustRequest{Key: key, Delta: 7, Type: domain.MovementInbound, Reason: "restock"})
	require.NoError(t, err)
	_, err = svc.Adjust(ctx, domain.AdjustRequest{Key: key, Delta: -2, Type: domain.MovementOutbound})
	require.NoError(t, err)

	var movements []domain.StockMovement
	require.NoError(t, db.Order("id ASC").Find(&movements).Error)
	require.Len(t, movements, 2)
	assert.Equal(t, int64(7), movements[0].ResultingQuantity)
	assert.Equal(t, int64(5), movements[1].ResultingQuantity)
	assert.NotEmpty(t, movements[0].CorrelationID)
	assert.NotEqual(t, movements[0].CorrelationID, movements[1].CorrelationID)

	var rec domain.StockRecord
	require.NoError(t, db.First(&rec, "product_id = ?", key.ProductID).Error)
	assert.Equal(t, movements[1].ResultingQuantity, rec.QuantityOnHand)
}
