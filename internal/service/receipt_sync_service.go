package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/straye-as/finance-api/internal/datawarehouse"
	"go.uber.org/zap"
)

// PaymentSource yields ERP customer payments booked since a point in time
type PaymentSource interface {
	GetCustomerPayments(ctx context.Context, since time.Time) ([]datawarehouse.Payment, error)
}

// ReceiptSyncService imports ERP payments as approved receipts
type ReceiptSyncService struct {
	source       PaymentSource
	receipts     *ReceiptService
	lookbackDays int
	logger       *zap.Logger
	clock        clock
}

func NewReceiptSyncService(source PaymentSource, receipts *ReceiptService, lookbackDays int, loc *time.Location, logger *zap.Logger) *ReceiptSyncService {
	if lookbackDays <= 0 {
		lookbackDays = 30
	}
	return &ReceiptSyncService{
		source:       source,
		receipts:     receipts,
		lookbackDays: lookbackDays,
		logger:       logger,
		clock:        newClock(loc),
	}
}

// SyncPayments records every payment in the lookback window that is not
// yet known. Payments for unknown project codes are counted as skipped;
// other failures are counted as failed and do not stop the run.
func (s *ReceiptSyncService) SyncPayments(ctx context.Context) (recorded, skipped, failed int, err error) {
	since := s.clock.Now().AddDate(0, 0, -s.lookbackDays)

	payments, err := s.source.GetCustomerPayments(ctx, since)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("failed to fetch ERP payments: %w", err)
	}

	for _, p := range payments {
		created, err := s.receipts.RecordERPPayment(ctx, ERPPayment{
			Reference:   p.Reference,
			ProjectCode: p.ProjectCode,
			Amount:      p.Amount,
			PaidAt:      p.PaidAt,
			Description: p.Description,
		})
		switch {
		case errors.Is(err, ErrProjectNotFound):
			skipped++
		case err != nil:
			failed++
			s.logger.Warn("failed to record ERP payment",
				zap.String("erp_reference", p.Reference),
				zap.String("project_code", p.ProjectCode),
				zap.Error(err),
			)
		case created:
			recorded++
		default:
			skipped++
		}
	}

	if recorded > 0 {
		s.receipts.InvalidateDashboard(ctx)
	}
	return recorded, skipped, failed, nil
}
