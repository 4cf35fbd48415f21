package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	auditdomain "github.com/domaehub/settle/internal/audit/domain"
	"github.com/domaehub/settle/internal/auditctx"
	"github.com/domaehub/settle/internal/clock"
	sampledomain "github.com/domaehub/settle/internal/sample/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type stubSamples struct {
	sampledomain.Service

	flipped   int
	err       error
	batchSize int
	actorID   string
}

func (s *stubSamples) MarkOverdue(ctx context.Context, batchSize int) (int, error) {
	s.batchSize = batchSize
	_, s.actorID = auditctx.ActorFromContext(ctx)
	return s.flipped, s.err
}

type stubAudit struct {
	entries []auditdomain.Entry
}

func (s *stubAudit) AuditLog(ctx context.Context, entry auditdomain.Entry) {
	s.entries = append(s.entries, entry)
}

func (s *stubAudit) AuditLogTx(ctx context.Context, tx *gorm.DB, entry auditdomain.Entry) {
	s.AuditLog(ctx, entry)
}

func (s *stubAudit) List(ctx context.Context, req auditdomain.ListRequest) ([]auditdomain.AuditLog, error) {
	return nil, nil
}

func newScheduler(t *testing.T, samples *stubSamples, audit *stubAudit, cfg Config) *Scheduler {
	t.Helper()
	s, err := New(Params{
		SampleSvc: samples,
		AuditSvc:  audit,
		Log:       zap.NewNop(),
		Clock:     clock.NewFakeClock(time.Date(2025, 6, 9, 1, 0, 0, 0, time.UTC)),
		Config:    cfg,
	})
	require.NoError(t, err)
	return s
}

func TestNewRejectsMissingDeps(t *testing.T) {
	_, err := New(Params{Log: zap.NewNop()})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestRunOnceSweepsOverdueSamples(t *testing.T) {
	samples := &stubSamples{flipped: 3}
	audit := &stubAudit{}
	s := newScheduler(t, samples, audit, Config{BatchSize: 25})

	require.NoError(t, s.RunOnce(context.Background()))

	assert.Equal(t, 25, samples.batchSize)
	assert.Equal(t, "scheduler", samples.actorID)

	require.Len(t, audit.entries, 1)
	assert.Equal(t, "sample.mark_overdue", audit.entries[0].Action)
	assert.Equal(t, 3, audit.entries[0].Metadata["count"])
}

func TestRunOnceSkipsAuditWhenNothingFlipped(t *testing.T) {
	samples := &stubSamples{}
	audit := &stubAudit{}
	s := newScheduler(t, samples, audit, Config{})

	require.NoError(t, s.RunOnce(context.Background()))
	assert.Empty(t, audit.entries)
}

func TestRunOnceReportsJobFailure(t *testing.T) {
	samples := &stubSamples{err: errors.New("db down")}
	s := newScheduler(t, samples, &stubAudit{}, Config{})

	err := s.RunOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "overdue_samples")
}

func TestDisabledJobIsSkipped(t *testing.T) {
	samples := &stubSamples{flipped: 1, batchSize: -1}
	s := newScheduler(t, samples, &stubAudit{}, Config{EnabledJobs: []string{"something_else"}})

	require.NoError(t, s.RunOnce(context.Background()))
	assert.Equal(t, -1, samples.batchSize)
}

func TestEnabledJobsCaseInsensitive(t *testing.T) {
	samples := &stubSamples{}
	s := newScheduler(t, samples, &stubAudit{}, Config{EnabledJobs: []string{"Overdue_Samples"}, BatchSize: 10})

	require.NoError(t, s.RunOnce(context.Background()))
	assert.Equal(t, 10, samples.batchSize)
}
