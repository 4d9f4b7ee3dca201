package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"groupledger/internal/core"
	"groupledger/internal/ledger"
)

var fixed = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func next(t *testing.T, ch <-chan core.Snapshot) core.Snapshot {
	t.Helper()
	select {
	case snap, ok := <-ch:
		require.True(t, ok)
		return snap
	case <-time.After(time.Second):
		t.Fatal("no snapshot")
		return core.Snapshot{}
	}
}

func TestStore_CreateAssignsIDAndTimestamp(t *testing.T) {
	s := New(WithClock(func() time.Time { return fixed }))
	rec, err := s.Create(context.Background(), core.Input{Item: "Tent", Category: "Misc", Amount: core.Money{Cents: 100}, Payer: "Ann"})
	require.NoError(t, err)

	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, fixed, rec.Timestamp)
	assert.False(t, rec.IsPaid)

	list, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []core.Record{rec}, list)
}

func TestStore_CreateRejectsInvalidInput(t *testing.T) {
	s := New()
	_, err := s.Create(context.Background(), core.Input{Item: "Tent", Category: "Misc"})
	assert.ErrorIs(t, err, core.ErrEmptyPayer)
}

func TestStore_UpdateAndDelete(t *testing.T) {
	s := New(WithRecords(
		core.Record{ID: "a", Item: "Tent", Category: "Misc", Payer: "Ann"},
		core.Record{ID: "b", Item: "Stove", Category: "Misc", Payer: "Bea"},
		core.Record{ID: "c", Item: "Rope", Category: "Misc", Payer: "Cid"},
	))
	ctx := context.Background()

	paid := true
	require.NoError(t, s.Update(ctx, "b", core.Patch{IsPaid: &paid}))
	require.NoError(t, s.Delete(ctx, "a"))

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0].ID)
	assert.True(t, list[0].IsPaid)

	// Index must follow the shifted slice.
	note := "knotted"
	require.NoError(t, s.Update(ctx, "c", core.Patch{Note: &note}))
	list, _ = s.List(ctx)
	assert.Equal(t, "knotted", list[1].Note)

	assert.ErrorIs(t, s.Update(ctx, "a", core.Patch{Note: &note}), ledger.ErrRecordNotFound)
	assert.ErrorIs(t, s.Delete(ctx, "a"), ledger.ErrRecordNotFound)

	unpaid := false
	assert.ErrorIs(t, s.Update(ctx, "b", core.Patch{IsPaid: &unpaid}), core.ErrIllegalTransition)
	list, _ = s.List(ctx)
	assert.True(t, list[0].IsPaid)
}

func TestStore_FeedDeliversSnapshots(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := s.Subscribe(ctx)
	require.NoError(t, err)
	first := next(t, ch)
	assert.Empty(t, first.Records)

	rec, err := s.Create(ctx, core.Input{Item: "Tent", Category: "Misc", Payer: "Ann"})
	require.NoError(t, err)

	snap := next(t, ch)
	assert.Greater(t, snap.Seq, first.Seq)
	require.Len(t, snap.Records, 1)
	assert.Equal(t, rec.ID, snap.Records[0].ID)
}

func TestStore_ServiceEndToEnd(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	views := make(chan core.View, 16)
	svc := ledger.NewService(s, core.DefaultConfig(), nil, ledger.WithOnApply(func(v core.View) { views <- v }))
	go svc.Run(ctx, s)
	<-views

	rec, err := svc.Submit(ctx, core.Form{Item: "Grant", Category: "Income", Amount: "500", Payer: "Bea"})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		_, ok := svc.Snapshot().Find(rec.ID)
		return ok
	}, time.Second, 5*time.Millisecond)

	issued, err := svc.MarkPaid(ctx, rec.ID)
	require.NoError(t, err)
	assert.True(t, issued)

	require.Eventually(t, func() bool {
		r, _ := svc.Snapshot().Find(rec.ID)
		return r.IsPaid
	}, time.Second, 5*time.Millisecond)

	issued, err = svc.MarkPaid(ctx, rec.ID)
	require.NoError(t, err)
	assert.False(t, issued)

	assert.Equal(t, int64(50000), svc.View().Summary.NetBalance.Cents)
}
