package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/domaehub/settle/internal/audit/domain"
	"github.com/domaehub/settle/internal/businessday"
	catalogdomain "github.com/domaehub/settle/internal/catalog/domain"
	"github.com/domaehub/settle/internal/clock"
	companydomain "github.com/domaehub/settle/internal/company/domain"
	invdomain "github.com/domaehub/settle/internal/inventory/domain"
	miledomain "github.com/domaehub/settle/internal/mileage/domain"
	obsmetrics "github.com/domaehub/settle/internal/observability/metrics"
	orderdomain "github.com/domaehub/settle/internal/order/domain"
	"github.com/domaehub/settle/internal/statement/domain"
	"github.com/domaehub/settle/pkg/db"
	"github.com/domaehub/settle/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultListPageSize = 50
	maxListPageSize     = 250
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	Calc      *businessday.Calculator
	Repo      domain.Repository
	Catalog   catalogdomain.Service
	Inventory invdomain.Service
	Mileage   miledomain.Service
	Orders    orderdomain.Service
	Companies companydomain.Service
	Audit     auditdomain.Service
	Metrics   *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	clock     clock.Clock
	calc      *businessday.Calculator
	repo      domain.Repository
	catalog   catalogdomain.Service
	inventory invdomain.Service
	mileage   miledomain.Service
	orders    orderdomain.Service
	companies companydomain.Service
	audit     auditdomain.Service
	metrics   *obsmetrics.Metrics
}

func NewService(p Params) domain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("statement.service"),
		genID:     p.GenID,
		clock:     p.Clock,
		calc:      p.Calc,
		repo:      p.Repo,
		catalog:   p.Catalog,
		inventory: p.Inventory,
		mileage:   p.Mileage,
		orders:    p.Orders,
		companies: p.Companies,
		audit:     p.Audit,
		metrics:   p.Metrics,
	}
}

func (s *Service) CreateReturn(ctx context.Context, req domain.CreateReturnRequest) (*domain.StatementResponse, error) {
	companyID, err := snowflake.ParseString(strings.TrimSpace(req.CompanyID))
	if err != nil || companyID == 0 {
		return nil, domain.ErrInvalidCompany
	}

	method := domain.RefundMethod(strings.TrimSpace(req.RefundMethod))
	if method == "" {
		method = domain.RefundMileage
	}
	if method != domain.RefundMileage && method != domain.RefundBank {
		return nil, domain.ErrInvalidRefund
	}

	var orderID *snowflake.ID
	if strings.TrimSpace(req.OrderID) != "" {
		id, err := snowflake.ParseString(strings.TrimSpace(req.OrderID))
		if err != nil {
			return nil, domain.ErrInvalidID
		}
		orderID = &id
	}

	return s.create(ctx, &domain.Statement{
		Type:         domain.TypeReturn,
		CompanyID:    companyID,
		OrderID:      orderID,
		RefundMethod: method,
		ReasonCode:   strings.TrimSpace(req.ReasonCode),
	}, req.Items)
}

func (s *Service) CreateDeduction(ctx context.Context, req domain.CreateDeductionRequest) (*domain.StatementResponse, error) {
	companyID, err := snowflake.ParseString(strings.TrimSpace(req.CompanyID))
	if err != nil || companyID == 0 {
		return nil, domain.ErrInvalidCompany
	}
	return s.create(ctx, &domain.Statement{
		Type:       domain.TypeDeduction,
		CompanyID:  companyID,
		ReasonCode: strings.TrimSpace(req.ReasonCode),
	}, req.Items)
}

func (s *Service) create(ctx context.Context, stmt *domain.Statement, inputs []domain.ItemInput) (*domain.StatementResponse, error) {
	if len(inputs) == 0 {
		return nil, domain.ErrEmptyStatement
	}

	now := s.clock.Now()
	stmt.ID = s.genID.Generate()
	stmt.Status = domain.StatusPending
	stmt.BusinessDay = s.calc.WorkingDate(now).String()
	stmt.CreatedAt = now
	stmt.UpdatedAt = now

	items, err := s.buildItems(stmt.ID, inputs, now)
	if err != nil {
		return nil, err
	}

	insert := func(tx *gorm.DB) error {
		last, err := s.repo.LastNumberForDay(ctx, tx, stmt.Type, stmt.BusinessDay)
		if err != nil {
			return err
		}
		stmt.StatementNumber = statementNumber(stmt.Type, stmt.BusinessDay, nextSequence(last))
		return s.repo.Insert(ctx, tx, stmt, items)
	}

	err = s.db.WithContext(ctx).Transaction(insert)
	if err != nil && db.IsDuplicateKeyErr(err) {
		// Statement number collided with a concurrent create for the
		// same day; re-read the latest number and insert once more.
		err = s.db.WithContext(ctx).Transaction(insert)
	}
	if err != nil {
		return nil, err
	}

	s.audit.AuditLog(ctx, auditdomain.Entry{
		CompanyID:  &stmt.CompanyID,
		Action:     "statement.create",
		TargetType: "statement",
		TargetID:   stmt.ID.String(),
		Metadata: map[string]interface{}{
			"type":             string(stmt.Type),
			"statement_number": stmt.StatementNumber,
			"total":            domain.StatementTotal(items),
		},
	})

	resp := toStatementResponse(stmt, items)
	return &resp, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.StatementResponse, error) {
	stmt, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.ListItems(ctx, s.db, stmt.ID)
	if err != nil {
		return nil, err
	}
	resp := toStatementResponse(stmt, items)
	return &resp, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) (*domain.ListResponse, error) {
	filter := domain.ListFilter{
		Type:   req.Type,
		Status: req.Status,
		Limit:  pagination.Clamp(req.PageSize, defaultListPageSize, maxListPageSize) + 1,
	}
	if strings.TrimSpace(req.CompanyID) != "" {
		companyID, err := snowflake.ParseString(strings.TrimSpace(req.CompanyID))
		if err != nil {
			return nil, domain.ErrInvalidCompany
		}
		filter.CompanyID = companyID
	}
	if strings.TrimSpace(req.PageToken) != "" {
		cursor, err := pagination.DecodeCursor(req.PageToken)
		if err != nil {
			return nil, domain.ErrInvalidPageToken
		}
		filter.BeforeID, err = strconv.ParseInt(cursor.ID, 10, 64)
		if err != nil {
			return nil, domain.ErrInvalidPageToken
		}
	}

	statements, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return nil, err
	}

	resp := &domain.ListResponse{}
	limit := filter.Limit - 1
	if len(statements) > limit {
		resp.HasMore = true
		statements = statements[:limit]
	}
	for i := range statements {
		items, err := s.repo.ListItems(ctx, s.db, statements[i].ID)
		if err != nil {
			return nil, err
		}
		resp.Statements = append(resp.Statements, toStatementResponse(&statements[i], items))
	}
	if resp.HasMore && len(statements) > 0 {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID: strconv.FormatInt(int64(statements[len(statements)-1].ID), 10),
		})
		if err != nil {
			return nil, err
		}
		resp.NextPageToken = token
	}
	return resp, nil
}

func (s *Service) UpdateItems(ctx context.Context, id string, inputs []domain.ItemInput) (*domain.StatementResponse, error) {
	if len(inputs) == 0 {
		return nil, domain.ErrEmptyStatement
	}
	stmt, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if stmt.Status != domain.StatusPending {
		return nil, domain.ErrInvalidTransition
	}

	now := s.clock.Now()
	items, err := s.buildItems(stmt.ID, inputs, now)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := s.repo.FindByIDForUpdate(ctx, tx, stmt.ID)
		if err != nil {
			return err
		}
		if locked == nil {
			return domain.ErrStatementNotFound
		}
		if locked.Status != domain.StatusPending {
			return domain.ErrInvalidTransition
		}
		return s.repo.ReplaceItems(ctx, tx, stmt.ID, items)
	})
	if err != nil {
		return nil, err
	}

	resp := toStatementResponse(stmt, items)
	return &resp, nil
}

func (s *Service) Reject(ctx context.Context, id string, reason string) (*domain.StatementResponse, error) {
	stmt, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := s.repo.FindByIDForUpdate(ctx, tx, stmt.ID)
		if err != nil {
			return err
		}
		if locked == nil {
			return domain.ErrStatementNotFound
		}
		if locked.Status.Processed() {
			return domain.ErrAlreadyProcessed
		}
		if locked.Status != domain.StatusPending {
			return domain.ErrInvalidTransition
		}

		stmt = locked
		stmt.Status = domain.StatusRejected
		if stmt.Type == domain.TypeDeduction {
			stmt.Status = domain.StatusCancelled
		}
		stmt.RejectReason = strings.TrimSpace(reason)
		stmt.UpdatedAt = s.clock.Now()
		return s.repo.UpdateStatus(ctx, tx, stmt)
	})
	if err != nil {
		return nil, err
	}

	s.audit.AuditLog(ctx, auditdomain.Entry{
		CompanyID:  &stmt.CompanyID,
		Action:     "statement.reject",
		TargetType: "statement",
		TargetID:   stmt.ID.String(),
		Metadata:   map[string]interface{}{"reason": stmt.RejectReason},
	})
	s.metrics.RecordStatementProcessed(string(stmt.Type), "rejected")

	items, err := s.repo.ListItems(ctx, s.db, stmt.ID)
	if err != nil {
		return nil, err
	}
	resp := toStatementResponse(stmt, items)
	return &resp, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	stmt, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := s.repo.FindByIDForUpdate(ctx, tx, stmt.ID)
		if err != nil {
			return err
		}
		if locked == nil {
			return domain.ErrStatementNotFound
		}
		if locked.Status != domain.StatusPending {
			return domain.ErrInvalidTransition
		}
		return s.repo.Delete(ctx, tx, stmt.ID)
	})
}

func (s *Service) Process(ctx context.Context, id string) (*domain.ProcessResponse, error) {
	statementID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	resp, err := s.processOnce(ctx, statementID)
	if err != nil && db.IsTransientErr(err) {
		s.log.Debug("retrying statement processing after transient conflict",
			zap.String("statement_id", statementID.String()), zap.Error(err))
		resp, err = s.processOnce(ctx, statementID)
	}
	if err != nil {
		s.metrics.RecordStatementProcessed("unknown", "error")
		return nil, err
	}

	s.metrics.RecordStatementProcessed(string(resp.Type), "processed")
	return resp, nil
}

// processOnce settles the statement in a single transaction. Every
// variant is resolved before the first ledger write so an unknown
// variant fails the whole statement with nothing committed.
func (s *Service) processOnce(ctx context.Context, statementID snowflake.ID) (*domain.ProcessResponse, error) {
	var resp *domain.ProcessResponse
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stmt, err := s.repo.FindByIDForUpdate(ctx, tx, statementID)
		if err != nil {
			return err
		}
		if stmt == nil {
			return domain.ErrStatementNotFound
		}
		if stmt.Status.Processed() {
			return domain.ErrAlreadyProcessed
		}
		if stmt.Status != domain.StatusPending {
			return domain.ErrInvalidTransition
		}

		items, err := s.repo.ListItems(ctx, tx, stmt.ID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return domain.ErrEmptyStatement
		}

		variants := make([]*catalogdomain.Variant, len(items))
		for i, item := range items {
			req := catalogdomain.ResolveRequest{
				ProductName: item.ProductName,
				Color:       item.Color,
				Size:        item.Size,
			}
			if item.ProductID != nil {
				req.ProductID = *item.ProductID
			}
			variants[i], err = s.catalog.ResolveVariant(ctx, req)
			if err != nil {
				return err
			}
		}

		movementType := invdomain.MovementReturnIn
		sign := int64(1)
		if stmt.Type == domain.TypeDeduction {
			movementType = invdomain.MovementReturnOut
			sign = -1
		}
		for i, item := range items {
			_, err := s.inventory.ApplyTx(ctx, tx, invdomain.AdjustRequest{
				Key: invdomain.VariantKey{
					ProductID: variants[i].ProductID,
					Color:     variants[i].Color,
					Size:      variants[i].Size,
				},
				Delta:         sign * item.Quantity,
				Type:          movementType,
				Reason:        stmt.ReasonCode,
				ReferenceType: invdomain.ReferenceStatement,
				ReferenceID:   stmt.ID.String(),
			})
			if err != nil {
				return err
			}
		}

		total := domain.StatementTotal(items)
		var mileageMoved int64
		switch {
		case stmt.Type == domain.TypeReturn && stmt.RefundMethod == domain.RefundMileage:
			ownerID, err := s.companies.OwnerOf(ctx, stmt.CompanyID)
			if err != nil {
				return err
			}
			_, err = s.mileage.CreditTx(ctx, tx, miledomain.CreditRequest{
				UserID:      ownerID,
				Amount:      total,
				Source:      miledomain.SourceRefund,
				ReferenceID: stmt.ID.String(),
			})
			if err != nil {
				return err
			}
			mileageMoved = total
		case stmt.Type == domain.TypeDeduction:
			ownerID, err := s.companies.OwnerOf(ctx, stmt.CompanyID)
			if err != nil {
				return err
			}
			_, err = s.mileage.DebitTx(ctx, tx, miledomain.DebitRequest{
				UserID:      ownerID,
				Amount:      total,
				Source:      miledomain.SourceAuto,
				ReferenceID: stmt.ID.String(),
			})
			if err != nil {
				return err
			}
			mileageMoved = -total
		}

		now := s.clock.Now()
		stmt.Status = domain.StatusRefunded
		if stmt.Type == domain.TypeDeduction {
			stmt.Status = domain.StatusCompleted
		}
		stmt.ProcessedAt = &now
		stmt.UpdatedAt = now
		if err := s.repo.UpdateStatus(ctx, tx, stmt); err != nil {
			return err
		}

		if stmt.Type == domain.TypeReturn && stmt.OrderID != nil {
			if err := s.orders.MarkRefundedTx(ctx, tx, *stmt.OrderID); err != nil {
				return err
			}
		}

		s.audit.AuditLogTx(ctx, tx, auditdomain.Entry{
			CompanyID:  &stmt.CompanyID,
			Action:     "statement.process",
			TargetType: "statement",
			TargetID:   stmt.ID.String(),
			Metadata: map[string]interface{}{
				"type":             string(stmt.Type),
				"statement_number": stmt.StatementNumber,
				"total":            total,
				"mileage_moved":    mileageMoved,
			},
		})

		resp = &domain.ProcessResponse{
			ID:              stmt.ID.String(),
			StatementNumber: stmt.StatementNumber,
			Type:            stmt.Type,
			Status:          stmt.Status,
			Total:           total,
			MileageMoved:    mileageMoved,
			ProcessedAt:     now,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *Service) find(ctx context.Context, id string) (*domain.Statement, error) {
	statementID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrInvalidID
	}
	stmt, err := s.repo.FindByID(ctx, s.db, statementID)
	if err != nil {
		return nil, err
	}
	if stmt == nil {
		return nil, domain.ErrStatementNotFound
	}
	return stmt, nil
}

func (s *Service) buildItems(statementID snowflake.ID, inputs []domain.ItemInput, now time.Time) ([]domain.StatementItem, error) {
	items := make([]domain.StatementItem, 0, len(inputs))
	for i, input := range inputs {
		if input.Quantity <= 0 || input.UnitPrice < 0 {
			return nil, domain.ErrInvalidItem
		}
		name := strings.TrimSpace(input.ProductName)
		var productID *snowflake.ID
		if strings.TrimSpace(input.ProductID) != "" {
			id, err := snowflake.ParseString(strings.TrimSpace(input.ProductID))
			if err != nil {
				return nil, domain.ErrInvalidItem
			}
			productID = &id
		}
		if productID == nil && name == "" {
			return nil, domain.ErrInvalidItem
		}
		items = append(items, domain.StatementItem{
			ID:          s.genID.Generate(),
			StatementID: statementID,
			LineNo:      i + 1,
			ProductID:   productID,
			ProductName: name,
			Color:       normalizeOption(input.Color),
			Size:        normalizeOption(input.Size),
			Quantity:    input.Quantity,
			UnitPrice:   input.UnitPrice,
			CreatedAt:   now,
		})
	}
	return items, nil
}

func statementNumber(typ domain.StatementType, businessDay string, seq int64) string {
	compact := strings.ReplaceAll(businessDay, "-", "")
	return fmt.Sprintf("%s-%s-%04d", typ.NumberPrefix(), compact, seq)
}

// nextSequence advances past the highest number ever issued for the
// day. Deleting a pending statement must not free its number for reuse.
func nextSequence(lastNumber string) int64 {
	if lastNumber == "" {
		return 1
	}
	idx := strings.LastIndex(lastNumber, "-")
	if idx < 0 {
		return 1
	}
	seq, err := strconv.ParseInt(lastNumber[idx+1:], 10, 64)
	if err != nil {
		return 1
	}
	return seq + 1
}

func normalizeOption(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return invdomain.OptionDefault
	}
	return v
}

func toStatementResponse(stmt *domain.Statement, items []domain.StatementItem) domain.StatementResponse {
	resp := domain.StatementResponse{
		ID:              stmt.ID.String(),
		StatementNumber: stmt.StatementNumber,
		Type:            stmt.Type,
		CompanyID:       stmt.CompanyID.String(),
		Status:          stmt.Status,
		RefundMethod:    stmt.RefundMethod,
		ReasonCode:      stmt.ReasonCode,
		RejectReason:    stmt.RejectReason,
		BusinessDay:     stmt.BusinessDay,
		Total:           domain.StatementTotal(items),
		ProcessedAt:     stmt.ProcessedAt,
		CreatedAt:       stmt.CreatedAt.UTC().Truncate(time.Second),
	}
	if stmt.OrderID != nil {
		resp.OrderID = stmt.OrderID.String()
	}
	for _, item := range items {
		lineTotal := domain.LineTotal(item.Quantity, item.UnitPrice)
		line := domain.ItemResponse{
			ID:          item.ID.String(),
			LineNo:      item.LineNo,
			ProductName: item.ProductName,
			Color:       item.Color,
			Size:        item.Size,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			LineTotal:   lineTotal,
			Tax:         domain.Tax(lineTotal),
			Total:       domain.Total(item.Quantity, item.UnitPrice),
		}
		if item.ProductID != nil {
			line.ProductID = item.ProductID.String()
		}
		resp.Items = append(resp.Items, line)
	}
	return resp
}
