package worker

import (
	"context"
	"errors"
	"testing"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/services"
	"fintrack/internal/storage/memory"

	"github.com/shopspring/decimal"
)

type recordingSource struct {
	invalidated []string
	dashboards  []string
	err         error
}

func (r *recordingSource) Invalidate(userID string) { r.invalidated = append(r.invalidated, userID) }

func (r *recordingSource) Dashboard(_ context.Context, userID string) (core.Dashboard, error) {
	r.dashboards = append(r.dashboards, userID)
	return core.Dashboard{}, r.err
}

func TestHandleTransactionEventRecomputesFromStorage(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	svc := services.NewTransactionService(repo, services.Options{})
	w := NewDashboardWorker(svc)

	// Warm the cache, then change storage behind the service's back as
	// another process would.
	if _, err := svc.Load(ctx, "u1"); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := repo.Save(ctx, "u1", core.SeedTransactions("u1")[:2]); err != nil {
		t.Fatalf("save: %v", err)
	}

	evt := amqp.NewTransactionEvent(amqp.EventDeleted, "u1", "seed_2")
	if err := w.HandleTransactionEvent(ctx, evt); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if w.Processed() != 1 {
		t.Fatalf("processed = %d, want 1", w.Processed())
	}

	// The service must now serve what storage holds, not the stale cache.
	txs, err := svc.Load(ctx, "u1")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("expected 2 stored transactions after refresh, got %d", len(txs))
	}
	summary, err := svc.Summary(ctx, "u1")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if !summary.TotalExpenses.Equal(decimal.RequireFromString("6.5")) {
		t.Fatalf("expected recomputed expenses 6.5, got %s", summary.TotalExpenses)
	}
}

func TestHandleTransactionEventInvalidatesBeforeRecompute(t *testing.T) {
	src := &recordingSource{}
	w := NewDashboardWorker(src)

	if err := w.HandleTransactionEvent(context.Background(), amqp.NewTransactionEvent(amqp.EventUpdated, "u2", "t1")); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(src.invalidated) != 1 || src.invalidated[0] != "u2" {
		t.Fatalf("expected invalidation for u2, got %v", src.invalidated)
	}
	if len(src.dashboards) != 1 || src.dashboards[0] != "u2" {
		t.Fatalf("expected one recompute for u2, got %v", src.dashboards)
	}
}

func TestHandleTransactionEventReturnsErrorForRequeue(t *testing.T) {
	src := &recordingSource{err: core.ErrStorageUnavailable}
	w := NewDashboardWorker(src)

	err := w.HandleTransactionEvent(context.Background(), amqp.NewTransactionEvent(amqp.EventCreated, "u1", "t1"))
	if !errors.Is(err, core.ErrStorageUnavailable) {
		t.Fatalf("expected storage error, got %v", err)
	}
	if len(src.invalidated) != 1 || src.invalidated[0] != "u1" {
		t.Fatalf("expected cache invalidation for u1, got %v", src.invalidated)
	}
	if w.Processed() != 0 {
		t.Fatal("failed event must not count as processed")
	}
}
