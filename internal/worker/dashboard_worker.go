package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
)

// DashboardSource recomputes derived views from stored collections.
type DashboardSource interface {
	Invalidate(userID string)
	Dashboard(ctx context.Context, userID string) (core.Dashboard, error)
}

// DashboardWorker refreshes a user's dashboard whenever a change event for
// that user arrives.
type DashboardWorker struct {
	source    DashboardSource
	processed atomic.Int64
}

func NewDashboardWorker(source DashboardSource) *DashboardWorker {
	return &DashboardWorker{source: source}
}

// HandleTransactionEvent reloads the user's collection and recomputes their
// dashboard. A returned error requeues the event.
func (w *DashboardWorker) HandleTransactionEvent(ctx context.Context, evt *amqp.TransactionEvent) error {
	slog.InfoContext(ctx, "Processing transaction event",
		"kind", evt.Kind,
		"user_id", evt.UserID,
		"transaction_id", evt.TransactionID)

	// The event may come from another process; never trust the cache.
	w.source.Invalidate(evt.UserID)

	d, err := w.source.Dashboard(ctx, evt.UserID)
	if err != nil {
		return fmt.Errorf("recompute dashboard for %s: %w", evt.UserID, err)
	}
	w.processed.Add(1)

	slog.InfoContext(ctx, "Dashboard recomputed",
		"user_id", evt.UserID,
		"total_income", d.Summary.TotalIncome.String(),
		"total_expenses", d.Summary.TotalExpenses.String(),
		"savings", d.Summary.Savings.String(),
		"categories", len(d.Categories),
		"lag_ms", time.Since(evt.Timestamp).Milliseconds())

	return nil
}

// Processed returns the number of events handled successfully.
func (w *DashboardWorker) Processed() int64 {
	return w.processed.Load()
}
