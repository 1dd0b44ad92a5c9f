package jobs

import (
	"context"
	"time"

	applog "github.com/straye-as/finance-api/internal/logger"
	"go.uber.org/zap"
)

const ReceiptSyncJobName = "erp_receipt_sync"

// PaymentSyncer pulls ERP payments into the receipts ledger
type PaymentSyncer interface {
	SyncPayments(ctx context.Context) (recorded, skipped, failed int, err error)
}

// ReceiptSyncJob records new ERP customer payments as approved receipts
type ReceiptSyncJob struct {
	syncer  PaymentSyncer
	logger  *zap.Logger
	timeout time.Duration
}

func NewReceiptSyncJob(syncer PaymentSyncer, logger *zap.Logger, timeout time.Duration) *ReceiptSyncJob {
	return &ReceiptSyncJob{syncer: syncer, logger: applog.WithJob(logger, ReceiptSyncJobName), timeout: timeout}
}

func (j *ReceiptSyncJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	start := time.Now()
	recorded, skipped, failed, err := j.syncer.SyncPayments(ctx)
	if err != nil {
		j.logger.Error("ERP receipt sync failed",
			zap.Error(err),
			zap.Duration("duration", time.Since(start)))
		return
	}

	j.logger.Info("ERP receipt sync completed",
		zap.Int("recorded", recorded),
		zap.Int("skipped", skipped),
		zap.Int("failed", failed),
		zap.Duration("duration", time.Since(start)))
}

// RegisterReceiptSyncJob schedules the sync on cronExpr. With runAtStartup
// the first sync starts immediately in the background.
func RegisterReceiptSyncJob(scheduler *Scheduler, syncer PaymentSyncer, logger *zap.Logger, cronExpr string, timeout time.Duration, runAtStartup bool) error {
	job := NewReceiptSyncJob(syncer, logger, timeout)
	if err := scheduler.AddJob(ReceiptSyncJobName, cronExpr, job.Run); err != nil {
		return err
	}
	if runAtStartup {
		go job.Run()
	}
	return nil
}
