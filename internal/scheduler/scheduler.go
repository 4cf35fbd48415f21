package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	auditdomain "github.com/domaehub/settle/internal/audit/domain"
	"github.com/domaehub/settle/internal/auditctx"
	"github.com/domaehub/settle/internal/clock"
	sampledomain "github.com/domaehub/settle/internal/sample/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var ErrInvalidConfig = errors.New("scheduler: invalid configuration")

type Params struct {
	fx.In

	SampleSvc sampledomain.Service
	AuditSvc  auditdomain.Service
	Log       *zap.Logger
	Clock     clock.Clock
	Config    Config `optional:"true"`
}

// Scheduler drives the periodic sweeps that keep derived state
// current, today just the overdue sample flip.
type Scheduler struct {
	log       *zap.Logger
	cfg       Config
	clock     clock.Clock
	sampleSvc sampledomain.Service
	auditSvc  auditdomain.Service
}

func New(p Params) (*Scheduler, error) {
	if p.SampleSvc == nil || p.AuditSvc == nil || p.Log == nil || p.Clock == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		log:       p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:       p.Config.withDefaults(),
		clock:     p.Clock,
		sampleSvc: p.SampleSvc,
		auditSvc:  p.AuditSvc,
	}, nil
}

func (s *Scheduler) runJob(parent context.Context, name string, timeout time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	ctx = auditctx.WithActor(ctx, auditdomain.ActorSystem, "scheduler")
	start := s.clock.Now()
	err := fn(ctx)
	elapsed := time.Since(start)

	log := s.log.With(zap.String("job", name), zap.Duration("elapsed", elapsed))
	if err == nil {
		log.Debug("job finished")
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		log.Warn("job timed out", zap.Duration("timeout", timeout), zap.Error(err))
		return nil
	}
	log.Warn("job failed", zap.Error(err))
	return fmt.Errorf("%s: %w", name, err)
}

func (s *Scheduler) RunOnce(parent context.Context) error {
	var err error
	if s.isJobEnabled("overdue_samples") {
		err = errors.Join(err, s.runJob(parent, "overdue_samples", s.cfg.JobTimeout, s.OverdueSamplesJob))
	}
	return err
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()

	for {
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) isJobEnabled(jobName string) bool {
	// Empty EnabledJobs enables everything (monolith mode).
	if len(s.cfg.EnabledJobs) == 0 {
		return true
	}
	for _, enabled := range s.cfg.EnabledJobs {
		if strings.EqualFold(enabled, jobName) {
			return true
		}
	}
	return false
}

func (s *Scheduler) OverdueSamplesJob(ctx context.Context) error {
	flipped, err := s.sampleSvc.MarkOverdue(ctx, s.cfg.BatchSize)
	if err != nil {
		return err
	}
	if flipped > 0 {
		s.log.Info("marked samples overdue", zap.Int("count", flipped))
		s.auditSvc.AuditLog(ctx, auditdomain.Entry{
			Action:     "sample.mark_overdue",
			TargetType: "sample",
			Metadata:   map[string]interface{}{"count": flipped},
		})
	}
	return nil
}
