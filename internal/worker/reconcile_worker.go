package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/FernandoChao/moneyzen-api/internal/amqp"
	"github.com/FernandoChao/moneyzen-api/internal/core"
	"github.com/FernandoChao/moneyzen-api/internal/store"
)

// ReconcileWorker re-applies the derived writes (account balance, monthly
// summary) for transactions whose side effects failed on the write path.
type ReconcileWorker struct {
	store store.Store
	now   func() time.Time
}

func NewReconcileWorker(st store.Store) *ReconcileWorker {
	return &ReconcileWorker{
		store: st,
		now:   time.Now,
	}
}

// HandleReconcileMessage processes a single reconcile message from AMQP
func (w *ReconcileWorker) HandleReconcileMessage(ctx context.Context, msg *amqp.ReconcileMessage) error {
	slog.InfoContext(ctx, "Processing reconcile message",
		"txId", msg.TxID,
		"needBalance", msg.NeedBalance,
		"needSummary", msg.NeedSummary)

	tx, err := w.store.GetTransaction(ctx, msg.TxID)
	if err != nil {
		return fmt.Errorf("get transaction from store: %w", err)
	}

	if msg.NeedBalance {
		if err := w.reapplyBalance(ctx, tx); err != nil {
			return fmt.Errorf("reapply balance: %w", err)
		}
	}

	if msg.NeedSummary {
		if err := w.reapplySummary(ctx, tx); err != nil {
			return fmt.Errorf("reapply summary: %w", err)
		}
	}

	slog.InfoContext(ctx, "Successfully reconciled transaction", "txId", msg.TxID)
	return nil
}

func (w *ReconcileWorker) reapplyBalance(ctx context.Context, tx core.Transaction) error {
	delta := tx.Type.Signed(tx.Amount)
	if err := w.store.ApplyBalanceDelta(ctx, tx.AccountID, tx.UID, delta, w.now().UTC()); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Reapplied balance delta",
		"txId", tx.ID,
		"accountId", tx.AccountID,
		"delta", delta)
	return nil
}

func (w *ReconcileWorker) reapplySummary(ctx context.Context, tx core.Transaction) error {
	month := core.MonthKey(tx.Date)
	prior, err := w.store.GetMonthlySummary(ctx, tx.UID, month)
	if err != nil {
		return fmt.Errorf("get monthly summary: %w", err)
	}

	summary := core.Aggregate(prior, tx, w.now().UTC())
	if err := w.store.UpsertMonthlySummary(ctx, summary); err != nil {
		return fmt.Errorf("upsert monthly summary: %w", err)
	}

	slog.InfoContext(ctx, "Reapplied monthly summary",
		"txId", tx.ID,
		"month", month)
	return nil
}
