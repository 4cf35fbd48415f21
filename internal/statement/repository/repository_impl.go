package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/domaehub/settle/internal/statement/domain"
	"github.com/domaehub/settle/pkg/db"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

const statementColumns = `id, statement_number, type, company_id, order_id, status, refund_method, reason_code, reject_reason, business_day, processed_at, created_at, updated_at`

func (r *repo) Insert(ctx context.Context, conn *gorm.DB, statement *domain.Statement, items []domain.StatementItem) error {
	err := conn.WithContext(ctx).Exec(
		`INSERT INTO statements (`+statementColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		statement.ID,
		statement.StatementNumber,
		statement.Type,
		statement.CompanyID,
		statement.OrderID,
		statement.Status,
		statement.RefundMethod,
		statement.ReasonCode,
		statement.RejectReason,
		statement.BusinessDay,
		statement.ProcessedAt,
		statement.CreatedAt,
		statement.UpdatedAt,
	).Error
	if err != nil {
		return err
	}
	return r.insertItems(ctx, conn, items)
}

func (r *repo) FindByID(ctx context.Context, conn *gorm.DB, id snowflake.ID) (*domain.Statement, error) {
	return r.findByID(ctx, conn, id, "")
}

func (r *repo) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*domain.Statement, error) {
	return r.findByID(ctx, tx, id, db.LockSuffix(tx))
}

func (r *repo) findByID(ctx context.Context, conn *gorm.DB, id snowflake.ID, lock string) (*domain.Statement, error) {
	var s domain.Statement
	err := conn.WithContext(ctx).Raw(
		`SELECT `+statementColumns+` FROM statements WHERE id = ?`+lock,
		id,
	).Scan(&s).Error
	if err != nil {
		return nil, err
	}
	if s.ID == 0 {
		return nil, nil
	}
	return &s, nil
}

func (r *repo) ListItems(ctx context.Context, conn *gorm.DB, statementID snowflake.ID) ([]domain.StatementItem, error) {
	var items []domain.StatementItem
	err := conn.WithContext(ctx).Raw(
		`SELECT id, statement_id, line_no, product_id, product_name, color, size, quantity, unit_price, created_at
		 FROM statement_items WHERE statement_id = ? ORDER BY line_no ASC`,
		statementID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) List(ctx context.Context, conn *gorm.DB, filter domain.ListFilter) ([]domain.Statement, error) {
	query := `SELECT ` + statementColumns + ` FROM statements WHERE 1 = 1`
	args := make([]interface{}, 0, 5)
	if filter.CompanyID != 0 {
		query += ` AND company_id = ?`
		args = append(args, filter.CompanyID)
	}
	if filter.Type != "" {
		query += ` AND type = ?`
		args = append(args, filter.Type)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, filter.Status)
	}
	if filter.BeforeID > 0 {
		query += ` AND id < ?`
		args = append(args, filter.BeforeID)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, filter.Limit)

	var statements []domain.Statement
	err := conn.WithContext(ctx).Raw(query, args...).Scan(&statements).Error
	if err != nil {
		return nil, err
	}
	return statements, nil
}

func (r *repo) ReplaceItems(ctx context.Context, tx *gorm.DB, statementID snowflake.ID, items []domain.StatementItem) error {
	err := tx.WithContext(ctx).Exec(`DELETE FROM statement_items WHERE statement_id = ?`, statementID).Error
	if err != nil {
		return err
	}
	return r.insertItems(ctx, tx, items)
}

func (r *repo) UpdateStatus(ctx context.Context, conn *gorm.DB, statement *domain.Statement) error {
	return conn.WithContext(ctx).Exec(
		`UPDATE statements SET status = ?, reject_reason = ?, processed_at = ?, updated_at = ? WHERE id = ?`,
		statement.Status,
		statement.RejectReason,
		statement.ProcessedAt,
		statement.UpdatedAt,
		statement.ID,
	).Error
}

func (r *repo) Delete(ctx context.Context, tx *gorm.DB, id snowflake.ID) error {
	err := tx.WithContext(ctx).Exec(`DELETE FROM statement_items WHERE statement_id = ?`, id).Error
	if err != nil {
		return err
	}
	return tx.WithContext(ctx).Exec(`DELETE FROM statements WHERE id = ?`, id).Error
}

func (r *repo) LastNumberForDay(ctx context.Context, conn *gorm.DB, typ domain.StatementType, businessDay string) (string, error) {
	var number string
	err := conn.WithContext(ctx).Raw(
		`SELECT statement_number FROM statements WHERE type = ? AND business_day = ?
		 ORDER BY LENGTH(statement_number) DESC, statement_number DESC LIMIT 1`,
		typ,
		businessDay,
	).Scan(&number).Error
	if err != nil {
		return "", err
	}
	return number, nil
}

func (r *repo) insertItems(ctx context.Context, conn *gorm.DB, items []domain.StatementItem) error {
	for _, item := range items {
		err := conn.WithContext(ctx).Exec(
			`INSERT INTO statement_items (id, statement_id, line_no, product_id, product_name, color, size, quantity, unit_price, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			item.ID,
			item.StatementID,
			item.LineNo,
			item.ProductID,
			item.ProductName,
			item.Color,
			item.Size,
			item.Quantity,
			item.UnitPrice,
			item.CreatedAt,
		).Error
		if err != nil {
			return err
		}
	}
	return nil
}
