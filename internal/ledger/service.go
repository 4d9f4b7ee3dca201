package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"groupledger/internal/core"
	"groupledger/internal/sheets"
)

// Service is the boundary between the pure core and the store. It keeps the
// most recent complete snapshot, recomputes the derived view on every
// snapshot and validates commands before they reach the store.
type Service struct {
	store  Store
	cfg    core.Config
	logger *slog.Logger

	mu   sync.RWMutex
	snap core.Snapshot
	view core.View

	onApply func(core.View)

	settling singleflight.Group
}

// Option configures a Service.
type Option func(*Service)

// WithOnApply registers a callback invoked after each accepted snapshot.
func WithOnApply(fn func(core.View)) Option {
	return func(s *Service) { s.onApply = fn }
}

func NewService(store Store, cfg core.Config, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		store:  store,
		cfg:    cfg,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.view = core.Compute(core.Snapshot{}, cfg)
	return s
}

// Config returns the ledger configuration the service derives views with.
func (s *Service) Config() core.Config {
	return s.cfg
}

// Apply replaces the working set with snap and recomputes the view.
// A numbered snapshot older than the current one is dropped; unnumbered
// snapshots always replace the records and keep the current sequence.
func (s *Service) Apply(snap core.Snapshot) bool {
	s.mu.Lock()
	if snap.Seq != 0 && snap.Seq < s.snap.Seq {
		current := s.snap.Seq
		s.mu.Unlock()
		s.logger.Debug("Dropping stale snapshot", "seq", snap.Seq, "current_seq", current)
		return false
	}
	if snap.Seq == 0 {
		snap.Seq = s.snap.Seq
	}
	records := make([]core.Record, len(snap.Records))
	copy(records, snap.Records)
	snap.Records = records

	s.snap = snap
	s.view = core.Compute(snap, s.cfg)
	view := s.view
	s.mu.Unlock()

	s.logger.Debug("Snapshot applied", "seq", snap.Seq, "count", len(records))
	if s.onApply != nil {
		s.onApply(view)
	}
	return true
}

// Snapshot returns the current snapshot.
func (s *Service) Snapshot() core.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// View returns the view derived from the current snapshot.
func (s *Service) View() core.View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view
}

// Refresh pulls the full record set from the store and applies it.
func (s *Service) Refresh(ctx context.Context) error {
	records, err := s.store.List(ctx)
	if err != nil {
		return fmt.Errorf("list records: %w", err)
	}
	s.Apply(core.Snapshot{Records: records})
	return nil
}

// Run applies every snapshot from feed until ctx is done or the feed closes.
func (s *Service) Run(ctx context.Context, feed Feed) error {
	snapshots, err := feed.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	s.logger.InfoContext(ctx, "Subscribed to snapshot feed")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case snap, ok := <-snapshots:
			if !ok {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return ErrFeedClosed
			}
			s.Apply(snap)
		}
	}
}

// Create validates in and asks the store to persist it. The working set is
// not touched; the new record shows up with the next snapshot.
func (s *Service) Create(ctx context.Context, in core.Input) (core.Record, error) {
	if err := in.Validate(); err != nil {
		return core.Record{}, err
	}
	rec, err := s.store.Create(ctx, in)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to create record", "item", in.Item, "error", err)
		return core.Record{}, fmt.Errorf("create record: %w", err)
	}
	s.logger.InfoContext(ctx, "Record created",
		"record_id", rec.ID,
		"item", rec.Item,
		"category", rec.Category,
		"payer", rec.Payer,
		"amount_cents", rec.Amount.Cents)
	return rec, nil
}

// Submit parses raw form input and creates the record. Parse failures are
// returned without calling the store.
func (s *Service) Submit(ctx context.Context, f core.Form) (core.Record, error) {
	in, err := f.Input()
	if err != nil {
		s.logger.DebugContext(ctx, "Rejected record input", "error", err)
		return core.Record{}, err
	}
	return s.Create(ctx, in)
}

// Update edits an unpaid record. Paid records reject edits with
// ErrRecordSettled; a patch that only sets the paid flag is handled as
// MarkPaid.
func (s *Service) Update(ctx context.Context, id string, p core.Patch) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if p.OnlySettles() {
		_, err := s.MarkPaid(ctx, id)
		return err
	}
	rec, err := s.lookup(id)
	if err != nil {
		return err
	}
	if core.StateOf(rec) == core.Paid {
		return ErrRecordSettled
	}
	if err := s.store.Update(ctx, id, p); err != nil {
		s.logger.ErrorContext(ctx, "Failed to update record", "record_id", id, "error", err)
		return fmt.Errorf("update record: %w", err)
	}
	s.logger.InfoContext(ctx, "Record updated", "record_id", id)
	return nil
}

// MarkPaid settles the record. It reports whether a write was issued: a
// record already Paid in the current snapshot is left alone and no error is
// returned. Concurrent calls for the same id share one store write and
// all of them see its outcome.
func (s *Service) MarkPaid(ctx context.Context, id string) (bool, error) {
	v, err, _ := s.settling.Do(id, func() (any, error) {
		rec, err := s.lookup(id)
		if err != nil {
			return false, err
		}
		patch, ok := core.MarkPaid(rec)
		if !ok {
			s.logger.DebugContext(ctx, "Record already paid, skipping settlement", "record_id", id)
			return false, nil
		}
		if err := s.store.Update(ctx, id, patch); err != nil {
			return false, fmt.Errorf("settle record: %w", err)
		}
		s.logger.InfoContext(ctx, "Record settled", "record_id", id)
		return true, nil
	})
	if err != nil {
		if !errors.Is(err, ErrRecordNotFound) {
			s.logger.ErrorContext(ctx, "Failed to settle record", "record_id", id, "error", err)
		}
		return false, err
	}
	return v.(bool), nil
}

// Delete removes a record in any settlement state.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		s.logger.ErrorContext(ctx, "Failed to delete record", "record_id", id, "error", err)
		return fmt.Errorf("delete record: %w", err)
	}
	s.logger.InfoContext(ctx, "Record deleted", "record_id", id)
	return nil
}

// ExportRows projects the current ordered view into export rows.
func (s *Service) ExportRows(opts core.ExportOptions) []core.ExportRow {
	view := s.View()
	return core.Export(view.Ordered, s.cfg.Classifier(), opts)
}

// Export writes the current export table through w.
func (s *Service) Export(ctx context.Context, w sheets.RowWriter, opts core.ExportOptions) (string, error) {
	rows := s.ExportRows(opts)
	cells := make([][]any, len(rows))
	for i, r := range rows {
		cells[i] = r.Values()
	}
	ref, err := w.WriteRows(ctx, core.ExportHeader, cells)
	if err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	s.logger.InfoContext(ctx, "Ledger exported", "rows", len(rows), "sheets_ref", ref)
	return ref, nil
}

func (s *Service) lookup(id string) (core.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.snap.Find(id)
	if !ok {
		return core.Record{}, fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}
	return rec, nil
}
