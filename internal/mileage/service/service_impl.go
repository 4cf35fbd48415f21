package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/domaehub/settle/internal/clock"
	"github.com/domaehub/settle/internal/mileage/domain"
	obsmetrics "github.com/domaehub/settle/internal/observability/metrics"
	"github.com/domaehub/settle/pkg/db"
	"github.com/domaehub/settle/pkg/keymutex"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Repo    domain.Repository
	Metrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	repo    domain.Repository
	metrics *obsmetrics.Metrics
	locks   *keymutex.KeyMutex
}

func NewService(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("mileage.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		repo:    p.Repo,
		metrics: p.Metrics,
		locks:   keymutex.New(),
	}
}

func (s *Service) Credit(ctx context.Context, req domain.CreditRequest) (*domain.EntryResponse, error) {
	return s.runEntry(ctx, func(tx *gorm.DB) (*domain.MileageEntry, error) {
		return s.CreditTx(ctx, tx, req)
	})
}

func (s *Service) Debit(ctx context.Context, req domain.DebitRequest) (*domain.EntryResponse, error) {
	return s.runEntry(ctx, func(tx *gorm.DB) (*domain.MileageEntry, error) {
		return s.DebitTx(ctx, tx, req)
	})
}

func (s *Service) runEntry(ctx context.Context, fn func(tx *gorm.DB) (*domain.MileageEntry, error)) (*domain.EntryResponse, error) {
	entry, err := s.runEntryOnce(ctx, fn)
	if err != nil && db.IsTransientErr(err) {
		entry, err = s.runEntryOnce(ctx, fn)
	}
	if err != nil {
		return nil, err
	}

	balance, err := s.BalanceOf(ctx, entry.UserID)
	if err != nil {
		return nil, err
	}
	resp := toEntryResponse(entry, balance)
	return &resp, nil
}

func (s *Service) runEntryOnce(ctx context.Context, fn func(tx *gorm.DB) (*domain.MileageEntry, error)) (*domain.MileageEntry, error) {
	var entry *domain.MileageEntry
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		entry, err = fn(tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// CreditTx appends an earn entry and bumps the balance projection in
// the caller's transaction.
func (s *Service) CreditTx(ctx context.Context, tx *gorm.DB, req domain.CreditRequest) (*domain.MileageEntry, error) {
	if req.UserID == 0 {
		return nil, domain.ErrInvalidUser
	}
	if req.Amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	return s.appendTx(ctx, tx, req.UserID, req.Amount, domain.KindEarn, req.Source, req.ReferenceID)
}

// DebitTx appends a spend entry. The resulting balance may not go
// negative unless the request carries an administrative override.
func (s *Service) DebitTx(ctx context.Context, tx *gorm.DB, req domain.DebitRequest) (*domain.MileageEntry, error) {
	if req.UserID == 0 {
		return nil, domain.ErrInvalidUser
	}
	if req.Amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}

	unlock := s.locks.Lock(req.UserID.String())
	defer unlock()

	account, err := s.repo.FindAccountForUpdate(ctx, tx, req.UserID)
	if err != nil {
		return nil, err
	}
	var balance int64
	if account != nil {
		balance = account.Balance
	}
	if balance-req.Amount < 0 && !req.Override {
		return nil, domain.ErrInsufficientMileage
	}

	return s.appendLocked(ctx, tx, account, req.UserID, -req.Amount, domain.KindSpend, req.Source, req.ReferenceID)
}

func (s *Service) appendTx(ctx context.Context, tx *gorm.DB, userID snowflake.ID, amount int64, kind domain.EntryKind, source domain.EntrySource, referenceID string) (*domain.MileageEntry, error) {
	unlock := s.locks.Lock(userID.String())
	defer unlock()

	account, err := s.repo.FindAccountForUpdate(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	return s.appendLocked(ctx, tx, account, userID, amount, kind, source, referenceID)
}

func (s *Service) appendLocked(ctx context.Context, tx *gorm.DB, account *domain.MileageAccount, userID snowflake.ID, amount int64, kind domain.EntryKind, source domain.EntrySource, referenceID string) (*domain.MileageEntry, error) {
	now := s.clock.Now()

	if account == nil {
		account = &domain.MileageAccount{UserID: userID, UpdatedAt: now}
		if err := s.repo.CreateAccount(ctx, tx, account); err != nil {
			return nil, err
		}
	}

	if source == "" {
		source = domain.SourceManual
	}
	entry := &domain.MileageEntry{
		ID:          s.genID.Generate(),
		UserID:      userID,
		Amount:      amount,
		Kind:        kind,
		Source:      source,
		ReferenceID: strings.TrimSpace(referenceID),
		Status:      domain.StatusCompleted,
		CreatedAt:   now,
	}
	if err := s.repo.InsertEntry(ctx, tx, entry); err != nil {
		return nil, err
	}

	account.Balance += amount
	account.UpdatedAt = now
	if err := s.repo.UpdateBalance(ctx, tx, account); err != nil {
		return nil, err
	}

	s.metrics.RecordMileageMoved(string(kind), amount)
	return entry, nil
}

// BalanceOf reads the balance projection, which is maintained in the
// same transaction as every entry insert.
func (s *Service) BalanceOf(ctx context.Context, userID snowflake.ID) (int64, error) {
	if userID == 0 {
		return 0, domain.ErrInvalidUser
	}
	account, err := s.repo.FindAccount(ctx, s.db, userID)
	if err != nil {
		return 0, err
	}
	if account == nil {
		return 0, nil
	}
	return account.Balance, nil
}

func (s *Service) Reverse(ctx context.Context, entryID snowflake.ID) (*domain.EntryResponse, error) {
	original, err := s.repo.FindEntry(ctx, s.db, entryID)
	if err != nil {
		return nil, err
	}
	if original == nil {
		return nil, domain.ErrEntryNotFound
	}

	if original.Amount < 0 {
		return s.Credit(ctx, domain.CreditRequest{
			UserID:      original.UserID,
			Amount:      -original.Amount,
			Source:      domain.SourceManual,
			ReferenceID: original.ID.String(),
		})
	}
	return s.Debit(ctx, domain.DebitRequest{
		UserID:      original.UserID,
		Amount:      original.Amount,
		Source:      domain.SourceManual,
		ReferenceID: original.ID.String(),
		Override:    true,
	})
}

func toEntryResponse(entry *domain.MileageEntry, balance int64) domain.EntryResponse {
	return domain.EntryResponse{
		ID:          entry.ID.String(),
		UserID:      entry.UserID.String(),
		Amount:      entry.Amount,
		Kind:        entry.Kind,
		Source:      entry.Source,
		ReferenceID: entry.ReferenceID,
		Status:      entry.Status,
		Balance:     balance,
		CreatedAt:   entry.CreatedAt.UTC().Truncate(time.Second),
	}
}
