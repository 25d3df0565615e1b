// Package service holds the business logic between the HTTP handlers and
// the storage layer.
package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/sakutaro/tanabota/internal/metrics"
	"github.com/sakutaro/tanabota/internal/models"
	"github.com/sakutaro/tanabota/internal/storage"
	"github.com/sakutaro/tanabota/internal/tanabota"
)

// POSService settles point-of-sale payment events against the user's rules.
type POSService struct {
	store        storage.Store
	engine       *tanabota.Engine
	demoFallback bool
}

// NewPOSService creates a POSService. When demoFallback is set, settlements
// where no rule fired get a synthetic execution item appended to the
// response so demos never show an empty list. The synthetic item is never
// persisted and does not count toward the ledger total.
func NewPOSService(store storage.Store, engine *tanabota.Engine, demoFallback bool) *POSService {
	return &POSService{store: store, engine: engine, demoFallback: demoFallback}
}

// Execute settles one payment event. The header, log rows and final total
// are written inside a single database transaction; any failure rolls the
// whole settlement back.
func (s *POSService) Execute(ctx context.Context, ev models.PaymentEvent) (*models.TanabotaTransaction, []*models.TanabotaActionLog, error) {
	var (
		tx   *models.TanabotaTransaction
		logs []*models.TanabotaActionLog
	)
	err := s.store.InTx(ctx, func(txStore storage.Store) error {
		var settleErr error
		tx, logs, settleErr = s.engine.Settle(ctx, txStore, ev)
		return settleErr
	})
	if err != nil {
		switch {
		case errors.Is(err, tanabota.ErrUserNotFound):
			metrics.SettlementsTotal.WithLabelValues("not_found").Inc()
		default:
			metrics.SettlementsTotal.WithLabelValues("error").Inc()
			slog.Error("settlement failed", "user_id", ev.UserID, "error", err)
		}
		return nil, nil, err
	}

	metrics.SettlementsTotal.WithLabelValues("ok").Inc()
	metrics.TanabotaYenTotal.Add(float64(tx.TanabotaTotal))
	for _, log := range logs {
		metrics.RuleExecutions.WithLabelValues(log.ActionType).Inc()
	}
	slog.Info("settlement executed",
		"transaction_id", tx.ID,
		"user_id", ev.UserID,
		"amount_paid", ev.AmountPaid,
		"tanabota_total", tx.TanabotaTotal,
		"executions", len(logs),
	)

	if s.demoFallback && len(logs) == 0 {
		if floor := DemoFloor(ev.AmountPaid); floor != nil {
			floor.TransactionID = tx.ID
			logs = append(logs, floor)
		}
	}
	return tx, logs, nil
}

// DemoFloor builds the synthetic execution item used when demo fallback is
// on and no rule fired: 1% of the payment, at least 1 yen. Returns nil for
// a zero payment. The item has no rule or action ID and is response-only.
func DemoFloor(amountPaid int64) *models.TanabotaActionLog {
	if amountPaid <= 0 {
		return nil
	}
	amount := amountPaid / 100
	if amount < 1 {
		amount = 1
	}
	return &models.TanabotaActionLog{
		ActionType:     "demo_floor",
		TanabotaAmount: amount,
	}
}
