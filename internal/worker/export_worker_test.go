package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"groupledger/internal/amqp"
	"groupledger/internal/core"
	"groupledger/internal/ledger"
	sheetmem "groupledger/internal/sheets/memory"
	"groupledger/internal/storage/memory"
)

type failingWriter struct{}

func (failingWriter) WriteRows(context.Context, []string, [][]any) (string, error) {
	return "", errors.New("quota exceeded")
}

func newWorker(t *testing.T) (*memory.Store, *sheetmem.Sheet, *ExportWorker) {
	t.Helper()
	store := memory.New(memory.WithClock(func() time.Time {
		return time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	}))
	var w *ExportWorker
	svc := ledger.NewService(store, core.DefaultConfig(), nil,
		ledger.WithOnApply(func(v core.View) { w.OnApply(v) }))
	sheet := sheetmem.New("Ledger")
	opts := core.ExportOptions{Location: time.UTC, DateLayout: "2006-01-02"}
	w = NewExportWorker(svc, sheet, opts, nil)
	return store, sheet, w
}

func TestExportWorker_SyncSkipsUnchanged(t *testing.T) {
	store, sheet, w := newWorker(t)
	ctx := context.Background()

	wrote, err := w.Sync(ctx)
	require.NoError(t, err)
	assert.True(t, wrote, "first sync always writes, even an empty ledger")

	wrote, err = w.Sync(ctx)
	require.NoError(t, err)
	assert.False(t, wrote)

	_, err = store.Create(ctx, core.Input{Item: "Tent", Category: "Misc", Amount: core.Money{Cents: 1000}, Payer: "Ann"})
	require.NoError(t, err)

	wrote, err = w.Sync(ctx)
	require.NoError(t, err)
	assert.True(t, wrote)
	assert.Equal(t, 2, sheet.Writes())

	_, rows := sheet.Table()
	require.Len(t, rows, 1)
	assert.Equal(t, []any{"2025-05-01", "Tent", "Misc", -10.0, "Ann", "", "Unpaid"}, rows[0])
	assert.NotEmpty(t, w.LastRef())
}

func TestExportWorker_HandleChange(t *testing.T) {
	store, sheet, w := newWorker(t)
	ctx := context.Background()
	rec, err := store.Create(ctx, core.Input{Item: "Grant", Category: "Income", Amount: core.Money{Cents: 50000}, Payer: "Bea"})
	require.NoError(t, err)

	require.NoError(t, w.HandleChange(ctx, amqp.NewChangeMessage(rec.ID, "create", 1)))

	_, rows := sheet.Table()
	require.Len(t, rows, 1)
	assert.Equal(t, 500.0, rows[0][3])
}

func TestExportWorker_WriteFailure(t *testing.T) {
	store := memory.New()
	svc := ledger.NewService(store, core.DefaultConfig(), nil)
	w := NewExportWorker(svc, failingWriter{}, core.DefaultExportOptions(), nil)

	_, err := w.Sync(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
	assert.Empty(t, w.LastRef())
}

func TestExportWorker_RunStopsOnCancel(t *testing.T) {
	_, sheet, w := newWorker(t)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := w.Run(ctx, 10*time.Millisecond)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, sheet.Writes())
}

func TestExportWorker_Follow(t *testing.T) {
	store, sheet, w := newWorker(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- w.Follow(ctx, store) }()

	require.Eventually(t, func() bool { return sheet.Writes() == 1 }, time.Second, 5*time.Millisecond)

	_, err := store.Create(ctx, core.Input{Item: "Rope", Category: "Misc", Amount: core.Money{Cents: 300}, Payer: "Cid"})
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		_, rows := sheet.Table()
		return len(rows) == 1
	}, time.Second, 5*time.Millisecond)

	assert.Len(t, w.svc.Snapshot().Records, 1)

	store.Close()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, ledger.ErrFeedClosed)
	case <-time.After(time.Second):
		t.Fatal("Follow did not return after the feed closed")
	}
}
