package reconcile

import (
	"context"
	"errors"
	"time"

	"github.com/domaehub/settle/internal/observability/metrics"
	stmtdomain "github.com/domaehub/settle/internal/statement/domain"
	"github.com/domaehub/settle/pkg/locker"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const batchLockTTL = 5 * time.Minute

// BatchError captures one statement's failure inside a batch. Batches
// never abort; every id gets an outcome.
type BatchError struct {
	StatementID string `json:"statement_id"`
	Message     string `json:"message"`
}

type BatchResult struct {
	ProcessedCount    int          `json:"processed_count"`
	TotalMileageMoved int64        `json:"total_mileage_moved"`
	Errors            []BatchError `json:"errors,omitempty"`
}

type Params struct {
	fx.In

	Log        *zap.Logger
	Statements stmtdomain.Service
	Locker     *locker.Locker
	Metrics    *metrics.Metrics `optional:"true"`
}

// Coordinator drives bulk settlement over a set of statement ids. Each
// statement commits or rolls back on its own; one bad statement never
// blocks the rest of the batch.
type Coordinator struct {
	log        *zap.Logger
	statements stmtdomain.Service
	locker     *locker.Locker
	metrics    *metrics.Metrics
}

func NewCoordinator(p Params) *Coordinator {
	return &Coordinator{
		log:        p.Log.Named("reconcile.coordinator"),
		statements: p.Statements,
		locker:     p.Locker,
		metrics:    p.Metrics,
	}
}

func (c *Coordinator) ProcessBatch(ctx context.Context, ids []string) BatchResult {
	result := BatchResult{}
	c.metrics.ObserveBatchSize(len(ids))

	for _, id := range ids {
		resp, err := c.process(ctx, id)
		if err != nil {
			result.Errors = append(result.Errors, BatchError{
				StatementID: id,
				Message:     err.Error(),
			})
			c.log.Warn("statement failed in batch",
				zap.String("statement_id", id), zap.Error(err))
			continue
		}
		result.ProcessedCount++
		result.TotalMileageMoved += resp.MileageMoved
		c.log.Info("statement settled",
			zap.String("statement_id", id),
			zap.String("statement_number", resp.StatementNumber),
			zap.Int64("total", resp.Total),
			zap.Int64("mileage_moved", resp.MileageMoved))
	}
	return result
}

// process guards each statement with a distributed lock when redis is
// configured so two batch runs cannot settle the same statement twice.
// Without redis the row lock inside Process is the only guard.
func (c *Coordinator) process(ctx context.Context, id string) (*stmtdomain.ProcessResponse, error) {
	var resp *stmtdomain.ProcessResponse
	err := c.locker.WithLock(ctx, "reconcile:statement:"+id, batchLockTTL, func(ctx context.Context) error {
		var err error
		resp, err = c.statements.Process(ctx, id)
		return err
	})
	if errors.Is(err, locker.ErrNotObtained) {
		return nil, stmtdomain.ErrAlreadyProcessed
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}

var Module = fx.Module("reconcile.coordinator",
	fx.Provide(NewCoordinator),
)
