// Package worker keeps an external export target in step with the ledger.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"groupledger/internal/amqp"
	"groupledger/internal/core"
	"groupledger/internal/ledger"
	applog "groupledger/internal/log"
	"groupledger/internal/sheets"
)

// ExportWorker reloads the ledger and rewrites the export table when it
// changed. It is driven by change messages and by a periodic tick that
// catches anything a lost message missed.
type ExportWorker struct {
	svc    *ledger.Service
	writer sheets.RowWriter
	opts   core.ExportOptions
	logger *slog.Logger

	// pending holds at most one export request from OnApply.
	pending chan struct{}

	mu       sync.Mutex
	lastRows []core.ExportRow
	exported bool
	lastRef  string
}

func NewExportWorker(svc *ledger.Service, writer sheets.RowWriter, opts core.ExportOptions, logger *slog.Logger) *ExportWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExportWorker{
		svc:     svc,
		writer:  writer,
		opts:    opts,
		logger:  logger,
		pending: make(chan struct{}, 1),
	}
}

// OnApply requests an export of the view just applied. It never blocks, so
// it can be registered with ledger.WithOnApply.
func (w *ExportWorker) OnApply(core.View) {
	select {
	case w.pending <- struct{}{}:
	default:
	}
}

// HandleChange processes one change message from AMQP.
func (w *ExportWorker) HandleChange(ctx context.Context, msg *amqp.ChangeMessage) error {
	w.logger.InfoContext(ctx, "Processing change message",
		"record_id", msg.ID,
		"op", msg.Op,
		"seq", msg.Seq)
	_, err := w.Sync(ctx)
	return err
}

// Sync reloads the record set and exports it if the table differs from the
// last one written. It reports whether a write happened.
func (w *ExportWorker) Sync(ctx context.Context) (bool, error) {
	if err := w.svc.Refresh(ctx); err != nil {
		return false, fmt.Errorf("reload ledger: %w", err)
	}
	return w.exportCurrent(ctx)
}

// Follow runs the service on feed and exports after every applied
// snapshot. The service must have been built with WithOnApply(w.OnApply).
// It returns when ctx is done or the feed closes.
func (w *ExportWorker) Follow(ctx context.Context, feed ledger.Feed) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return w.svc.Run(gctx, feed)
	})
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case <-w.pending:
				if _, err := w.exportCurrent(gctx); err != nil {
					w.logger.ErrorContext(gctx, "Export after change failed", "seq", w.svc.View().Seq, "error", err)
				}
			}
		}
	})
	return g.Wait()
}

func (w *ExportWorker) exportCurrent(ctx context.Context) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	rows := w.svc.ExportRows(w.opts)
	if w.exported && reflect.DeepEqual(rows, w.lastRows) {
		w.logger.DebugContext(ctx, "Export unchanged, skipping write", "rows", len(rows))
		return false, nil
	}

	cells := make([][]any, len(rows))
	for i, r := range rows {
		cells[i] = r.Values()
	}
	ref, err := w.writer.WriteRows(ctx, core.ExportHeader, cells)
	if err != nil {
		return false, fmt.Errorf("write export: %w", err)
	}

	w.lastRows = rows
	w.exported = true
	w.lastRef = ref
	view := w.svc.View()
	w.logger.InfoContext(ctx, "Ledger exported", applog.NewFields().
		WithOperation(applog.OpExport).
		WithSeq(view.Seq).
		WithSheetsRef(ref).
		ToSlice()...)
	return true, nil
}

// LastRef returns the reference of the last successful export.
func (w *ExportWorker) LastRef() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastRef
}

// Run exports once at startup and then every interval until ctx is done.
// Failures are logged and retried on the next tick.
func (w *ExportWorker) Run(ctx context.Context, interval time.Duration) error {
	w.logger.InfoContext(ctx, "Performing startup export")
	if _, err := w.Sync(ctx); err != nil {
		w.logger.ErrorContext(ctx, "Startup export failed", "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.Sync(ctx); err != nil {
				w.logger.ErrorContext(ctx, "Periodic export failed", "error", err)
			}
		}
	}
}
