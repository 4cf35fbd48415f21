package repository

import (
	"context"
	"database/sql"

	"github.com/bwmarrin/snowflake"
	"github.com/domaehub/settle/internal/mileage/domain"
	"github.com/domaehub/settle/pkg/db"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindAccountForUpdate(ctx context.Context, tx *gorm.DB, userID snowflake.ID) (*domain.MileageAccount, error) {
	var account domain.MileageAccount
	err := tx.WithContext(ctx).Raw(
		`SELECT user_id, balance, updated_at FROM mileage_accounts WHERE user_id = ?`+db.LockSuffix(tx),
		userID,
	).Scan(&account).Error
	if err != nil {
		return nil, err
	}
	if account.UserID == 0 {
		return nil, nil
	}
	return &account, nil
}

func (r *repo) CreateAccount(ctx context.Context, tx *gorm.DB, account *domain.MileageAccount) error {
	return tx.WithContext(ctx).Exec(
		`INSERT INTO mileage_accounts (user_id, balance, updated_at) VALUES (?, ?, ?)`,
		account.UserID,
		account.Balance,
		account.UpdatedAt,
	).Error
}

func (r *repo) UpdateBalance(ctx context.Context, tx *gorm.DB, account *domain.MileageAccount) error {
	return tx.WithContext(ctx).Exec(
		`UPDATE mileage_accounts SET balance = ?, updated_at = ? WHERE user_id = ?`,
		account.Balance,
		account.UpdatedAt,
		account.UserID,
	).Error
}

func (r *repo) InsertEntry(ctx context.Context, tx *gorm.DB, entry *domain.MileageEntry) error {
	return tx.WithContext(ctx).Exec(
		`INSERT INTO mileage_entries (id, user_id, amount, kind, source, reference_id, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.UserID,
		entry.Amount,
		string(entry.Kind),
		string(entry.Source),
		entry.ReferenceID,
		string(entry.Status),
		entry.CreatedAt,
	).Error
}

func (r *repo) FindAccount(ctx context.Context, conn *gorm.DB, userID snowflake.ID) (*domain.MileageAccount, error) {
	var account domain.MileageAccount
	err := conn.WithContext(ctx).Raw(
		`SELECT user_id, balance, updated_at FROM mileage_accounts WHERE user_id = ?`,
		userID,
	).Scan(&account).Error
	if err != nil {
		return nil, err
	}
	if account.UserID == 0 {
		return nil, nil
	}
	return &account, nil
}

func (r *repo) FindEntry(ctx context.Context, conn *gorm.DB, entryID snowflake.ID) (*domain.MileageEntry, error) {
	var entry domain.MileageEntry
	err := conn.WithContext(ctx).Raw(
		`SELECT id, user_id, amount, kind, source, reference_id, status, created_at
		 FROM mileage_entries WHERE id = ?`,
		entryID,
	).Scan(&entry).Error
	if err != nil {
		return nil, err
	}
	if entry.ID == 0 {
		return nil, nil
	}
	return &entry, nil
}

func (r *repo) SumCompleted(ctx context.Context, conn *gorm.DB, userID snowflake.ID) (int64, error) {
	var total sql.NullInt64
	err := conn.WithContext(ctx).Raw(
		`SELECT SUM(amount) FROM mileage_entries WHERE user_id = ? AND status = ?`,
		userID,
		string(domain.StatusCompleted),
	).Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total.Int64, nil
}
