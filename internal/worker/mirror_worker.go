// Package worker keeps external mirrors of the record store up to date.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"tracker/internal/amqp"
	"tracker/internal/core"
	applog "tracker/internal/log"
	"tracker/internal/store"

	"golang.org/x/sync/errgroup"
)

// ErrSinkFailed marks a sync where at least one sink failed.
var ErrSinkFailed = errors.New("mirror sink failed")

// Sink receives full snapshots of the record set.
type Sink interface {
	Name() string
	Push(ctx context.Context, records []core.Expense) error
}

// MirrorWorker pushes a fresh snapshot to every sink after each change
// event and on a fixed interval. Full snapshots make delivery idempotent,
// so a lost or duplicated event is repaired by the next sync.
type MirrorWorker struct {
	store    store.Reader
	sinks    []Sink
	interval time.Duration

	// syncs run one at a time
	mu sync.Mutex
}

func NewMirrorWorker(r store.Reader, interval time.Duration, sinks ...Sink) *MirrorWorker {
	return &MirrorWorker{
		store:    r,
		sinks:    sinks,
		interval: interval,
	}
}

// Sync reads the store once and pushes the snapshot to all sinks
// concurrently. A failing sink does not stop the others; their errors are
// joined.
func (w *MirrorWorker) Sync(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	records, err := w.store.List(ctx)
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}

	var (
		errMu sync.Mutex
		errs  []error
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, sink := range w.sinks {
		g.Go(func() error {
			start := time.Now()
			if err := sink.Push(gctx, records); err != nil {
				slog.ErrorContext(gctx, "Mirror sink failed",
					applog.FieldComponent, applog.ComponentWorker,
					applog.FieldOperation, applog.OpSync,
					applog.FieldSink, sink.Name(),
					applog.FieldRecords, len(records),
					applog.FieldError, err)
				errMu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", sink.Name(), err))
				errMu.Unlock()
				return nil
			}
			slog.InfoContext(gctx, "Mirror sink updated",
				applog.FieldComponent, applog.ComponentWorker,
				applog.FieldSink, sink.Name(),
				applog.FieldRecords, len(records),
				"duration", time.Since(start))
			return nil
		})
	}
	_ = g.Wait()

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrSinkFailed, errors.Join(errs...))
	}
	return nil
}

// HandleEvent resyncs after a change. Sink failures are logged and left to
// the periodic resync; only a store failure asks for redelivery.
func (w *MirrorWorker) HandleEvent(ctx context.Context, ev *amqp.ExpenseEvent) error {
	slog.InfoContext(ctx, "Processing expense event", "op", ev.Op, "id", ev.ID)

	err := w.Sync(ctx)
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrSinkFailed) {
		slog.WarnContext(ctx, "Some mirrors are stale until the next resync", "error", err)
		return nil
	}
	return err
}

// Run syncs immediately and then every interval until ctx is done.
func (w *MirrorWorker) Run(ctx context.Context) error {
	if err := w.Sync(ctx); err != nil {
		slog.ErrorContext(ctx, "Initial mirror sync failed", "error", err)
	}
	if w.interval <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Mirror worker stopping", "reason", ctx.Err())
			return ctx.Err()
		case <-ticker.C:
			if err := w.Sync(ctx); err != nil {
				slog.ErrorContext(ctx, "Periodic mirror sync failed", "error", err)
			}
		}
	}
}
