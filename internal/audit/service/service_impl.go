package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/domaehub/settle/internal/audit/domain"
	"github.com/domaehub/settle/internal/auditctx"
	"github.com/domaehub/settle/internal/clock"
	"github.com/domaehub/settle/internal/companyctx"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const defaultListLimit = 100

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func NewService(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("audit.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) AuditLog(ctx context.Context, entry domain.Entry) {
	s.AuditLogTx(ctx, s.db, entry)
}

func (s *Service) AuditLogTx(ctx context.Context, tx *gorm.DB, entry domain.Entry) {
	row := s.build(ctx, entry)
	if err := s.repo.Insert(ctx, tx, row); err != nil {
		s.log.Warn("audit write failed",
			zap.String("action", entry.Action),
			zap.String("target_type", entry.TargetType),
			zap.String("target_id", entry.TargetID),
			zap.Error(err))
	}
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) ([]domain.AuditLog, error) {
	var companyID *snowflake.ID
	if strings.TrimSpace(req.CompanyID) != "" {
		id, err := snowflake.ParseString(strings.TrimSpace(req.CompanyID))
		if err != nil {
			return nil, err
		}
		companyID = &id
	}
	limit := req.Limit
	if limit <= 0 || limit > defaultListLimit {
		limit = defaultListLimit
	}
	return s.repo.List(ctx, s.db, companyID, req.TargetType, req.TargetID, limit)
}

func (s *Service) build(ctx context.Context, entry domain.Entry) *domain.AuditLog {
	actorType, actorID := auditctx.ActorFromContext(ctx)
	if actorType == "" {
		actorType = domain.ActorSystem
	}

	if entry.CompanyID == nil {
		if companyID, ok := companyctx.CompanyIDFromContext(ctx); ok {
			entry.CompanyID = &companyID
		}
	}

	var metadata datatypes.JSONMap
	if len(entry.Metadata) > 0 {
		metadata = datatypes.JSONMap(entry.Metadata)
	}

	return &domain.AuditLog{
		ID:         s.genID.Generate(),
		CompanyID:  entry.CompanyID,
		ActorType:  actorType,
		ActorID:    actorID,
		Action:     entry.Action,
		TargetType: entry.TargetType,
		TargetID:   entry.TargetID,
		RequestID:  auditctx.RequestIDFromContext(ctx),
		IPAddress:  auditctx.IPAddressFromContext(ctx),
		UserAgent:  auditctx.UserAgentFromContext(ctx),
		Metadata:   metadata,
		CreatedAt:  s.clock.Now(),
	}
}
