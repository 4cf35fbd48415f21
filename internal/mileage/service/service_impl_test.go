package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/domaehub/settle/internal/clock"
	"github.com/domaehub/settle/internal/mileage/domain"
	"github.com/domaehub/settle/internal/mileage/repository"
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
	require.NoError(t, db.AutoMigrate(&domain.MileageAccount{}, &domain.MileageEntry{}))

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

func TestCreditAndDebit(t *testing.T) {
	svc, _, node := newTestService(t)
	ctx := context.Background()
	userID := node.Generate()

	credit, err := svc.Credit(ctx, domain.CreditRequest{UserID: userID, Amount: 10000, Source: domain.SourceRefund})
	require.NoError(t, err)
	assert.Equal(t, domain.KindEarn, credit.Kind)
	assert.Equal(t, int64(10000), credit.Amount)
	assert.Equal(t, int64(10000), credit.Balance)
	assert.Equal(t, domain.StatusCompleted, credit.Status)

	debit, err := svc.Debit(ctx, domain.DebitRequest{UserID: userID, Amount: 3000, Source: domain.SourceOrder})
	require.NoError(t, err)
	assert.Equal(t, domain.KindSpend, debit.Kind)
	assert.Equal(t, int64(-3000), debit.Amount)
	assert.Equal(t, int64(7000), debit.Balance)

	balance, err := svc.BalanceOf(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(7000), balance)
}

func TestDebitInsufficientMileage(t *testing.T) {
	svc, db, node := newTestService(t)
	ctx := context.Background()
	userID := node.Generate()

	_, err := svc.Credit(ctx, domain.CreditRequest{UserID: userID, Amount: 500})
	require.NoError(t, err)

	_, err = svc.Debit(ctx, domain.DebitRequest{UserID: userID, Amount: 501})
	assert.ErrorIs(t, err, domain.ErrInsufficientMileage)

	balance, err := svc.BalanceOf(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(500), balance)

	var count int64
	require.NoError(t, db.Model(&domain.MileageEntry{}).Where("user_id = ?", userID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestDebitOverrideGoesNegative(t *testing.T) {
	svc, _, node := newTestService(t)
	ctx := context.Background()
	userID := node.Generate()

	debit, err := svc.Debit(ctx, domain.DebitRequest{
		UserID:   userID,
		Amount:   2000,
		Source:   domain.SourceAuto,
		Override: true,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(-2000), debit.Balance)

	balance, err := svc.BalanceOf(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(-2000), balance)
}

func TestBalanceMatchesCompletedEntrySum(t *testing.T) {
	svc, db, node := newTestService(t)
	ctx := context.Background()
	userID := node.Generate()

	_, err := svc.Credit(ctx, domain.CreditRequest{UserID: userID, Amount: 10000})
	require.NoError(t, err)
	_, err = svc.Debit(ctx, domain.DebitRequest{UserID: userID, Amount: 2500})
	require.NoError(t, err)
	_, err = svc.Credit(ctx, domain.CreditRequest{UserID: userID, Amount: 300})
	require.NoError(t, err)

	balance, err := svc.BalanceOf(ctx, userID)
	require.NoError(t, err)

	sum, err := repository.Provide().SumCompleted(ctx, db, userID)
	require.NoError(t, err)
	assert.Equal(t, sum, balance)
	assert.Equal(t, int64(7800), balance)
}

func TestReverseAppendsCompensatingEntry(t *testing.T) {
	svc, db, node := newTestService(t)
	ctx := context.Background()
	userID := node.Generate()

	credit, err := svc.Credit(ctx, domain.CreditRequest{UserID: userID, Amount: 1500})
	require.NoError(t, err)

	creditID, err := snowflake.ParseString(credit.ID)
	require.NoError(t, err)

	reversed, err := svc.Reverse(ctx, creditID)
	require.NoError(t, err)
	assert.Equal(t, domain.KindSpend, reversed.Kind)
	assert.Equal(t, int64(-1500), reversed.Amount)
	assert.Equal(t, credit.ID, reversed.ReferenceID)
	assert.Equal(t, int64(0), reversed.Balance)

	// The original entry itself is untouched.
	var original domain.MileageEntry
	require.NoError(t, db.First(&original, "id = ?", creditID).Error)
	assert.Equal(t, int64(1500), original.Amount)
	assert.Equal(t, domain.StatusCompleted, original.Status)
}

func TestReverseUnknownEntry(t *testing.T) {
	svc, _, node := newTestService(t)

	_, err := svc.Reverse(context.Background(), node.Generate())
	assert.ErrorIs(t, err, domain.ErrEntryNotFound)
}

func TestEntryValidation(t *testing.T) {
	svc, _, node := newTestService(t)
	ctx := context.Background()

	_, err := svc.Credit(ctx, domain.CreditRequest{UserID: 0, Amount: 100})
	assert.ErrorIs(t, err, domain.ErrInvalidUser)

	_, err = svc.Credit(ctx, domain.CreditRequest{UserID: node.Generate(), Amount: 0})
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = svc.Debit(ctx, domain.DebitRequest{UserID: node.Generate(), Amount: -5})
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
}
