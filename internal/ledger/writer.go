// Package ledger implements the transactional write path: one validated
// transaction becomes three store mutations with defined ordering and
// partial-failure semantics.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/FernandoChao/moneyzen-api/internal/core"
	"github.com/FernandoChao/moneyzen-api/internal/store"
)

// ReconcilePublisher flags transactions whose side effects were not applied
// so a worker can retry them later.
type ReconcilePublisher interface {
	PublishReconcile(ctx context.Context, txID, uid string, needBalance, needSummary bool) error
}

// Writer applies validated transactions to the store.
type Writer struct {
	store     store.Store
	publisher ReconcilePublisher // optional
	now       func() time.Time
}

func NewWriter(st store.Store, publisher ReconcilePublisher) *Writer {
	return &Writer{
		store:     st,
		publisher: publisher,
		now:       time.Now,
	}
}

// Record persists the transaction, then applies the balance and summary side
// effects in that order. The insert is the durability point: once it succeeds
// the transaction id is returned even if a later step fails. Side-effect
// failures are logged and flagged for reconciliation instead of failing the
// caller, who therefore learns whether the transaction was recorded but never
// whether the aggregates caught up.
func (w *Writer) Record(ctx context.Context, uid string, req core.TransactionRequest) (string, error) {
	tx := core.Transaction{
		UID:       uid,
		AccountID: req.AccountID,
		Amount:    req.Amount,
		Type:      req.Type,
		Category:  req.Category,
		Date:      req.Date,
		CreatedAt: w.now().UTC(),
	}

	txID, err := w.store.InsertTransaction(ctx, tx)
	if err != nil {
		return "", fmt.Errorf("insert transaction: %w", err)
	}
	tx.ID = txID

	balanceErr := w.applyBalance(ctx, tx)
	summaryErr := w.applySummary(ctx, tx)
	if balanceErr != nil || summaryErr != nil {
		w.flagForReconcile(ctx, tx, balanceErr != nil, summaryErr != nil)
	}

	return txID, nil
}

func (w *Writer) applyBalance(ctx context.Context, tx core.Transaction) error {
	delta := tx.Type.Signed(tx.Amount)
	if err := w.store.ApplyBalanceDelta(ctx, tx.AccountID, tx.UID, delta, w.now().UTC()); err != nil {
		slog.WarnContext(ctx, "Balance update failed after durable insert",
			"tx_id", tx.ID,
			"account_id", tx.AccountID,
			"delta", delta,
			"error", err)
		return err
	}
	return nil
}

// applySummary recomputes the monthly summary with a read-then-write cycle.
// The two store calls are not atomic together: two concurrent writers in the
// same owner+month bucket can read the same prior summary and the second
// write wins. Balances do not have this problem because their increment is a
// single atomic store call.
func (w *Writer) applySummary(ctx context.Context, tx core.Transaction) error {
	month := core.MonthKey(tx.Date)

	prior, err := w.store.GetMonthlySummary(ctx, tx.UID, month)
	if err != nil {
		slog.WarnContext(ctx, "Summary lookup failed after durable insert",
			"tx_id", tx.ID,
			"uid", tx.UID,
			"month", month,
			"error", err)
		return err
	}

	next := core.Aggregate(prior, tx, w.now().UTC())
	if err := w.store.UpsertMonthlySummary(ctx, next); err != nil {
		slog.WarnContext(ctx, "Summary upsert failed after durable insert",
			"tx_id", tx.ID,
			"uid", tx.UID,
			"month", month,
			"error", err)
		return err
	}
	return nil
}

func (w *Writer) flagForReconcile(ctx context.Context, tx core.Transaction, needBalance, needSummary bool) {
	if w.publisher == nil {
		slog.WarnContext(ctx, "No reconcile publisher configured, side effects stay unapplied",
			"tx_id", tx.ID,
			"need_balance", needBalance,
			"need_summary", needSummary)
		return
	}
	if err := w.publisher.PublishReconcile(ctx, tx.ID, tx.UID, needBalance, needSummary); err != nil {
		slog.ErrorContext(ctx, "Failed to publish reconcile message",
			"tx_id", tx.ID,
			"error", err)
	}
}
