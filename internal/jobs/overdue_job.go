package jobs

import (
	"context"
	"time"

	applog "github.com/straye-as/finance-api/internal/logger"
	"github.com/straye-as/finance-api/internal/service"
	"go.uber.org/zap"
)

const OverdueSweepJobName = "overdue_sweep"

// OverdueSweeper reports installments past their due date
type OverdueSweeper interface {
	SweepOverdue(ctx context.Context) (service.OverdueReport, error)
}

// OverdueSweepJob logs overdue totals and refreshes dashboards. Installment
// statuses are never rewritten; overdue is always derived.
type OverdueSweepJob struct {
	sweeper OverdueSweeper
	logger  *zap.Logger
	timeout time.Duration
}

func NewOverdueSweepJob(sweeper OverdueSweeper, logger *zap.Logger, timeout time.Duration) *OverdueSweepJob {
	return &OverdueSweepJob{sweeper: sweeper, logger: applog.WithJob(logger, OverdueSweepJobName), timeout: timeout}
}

func (j *OverdueSweepJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	start := time.Now()
	report, err := j.sweeper.SweepOverdue(ctx)
	if err != nil {
		j.logger.Error("overdue sweep failed", zap.Error(err), zap.Duration("duration", time.Since(start)))
		return
	}

	if report.Count > 0 {
		j.logger.Warn("installments overdue",
			zap.Int("count", report.Count),
			zap.Float64("amount", report.Amount),
			zap.Duration("duration", time.Since(start)))
	}
}

// RegisterOverdueSweepJob schedules the sweep on cronExpr
func RegisterOverdueSweepJob(scheduler *Scheduler, sweeper OverdueSweeper, logger *zap.Logger, cronExpr string, timeout time.Duration) error {
	job := NewOverdueSweepJob(sweeper, logger, timeout)
	return scheduler.AddJob(OverdueSweepJobName, cronExpr, job.Run)
}
