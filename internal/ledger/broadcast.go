package ledger

import (
	"context"
	"sync"

	"groupledger/internal/core"
)

// Broadcaster fans full snapshots out to feed subscribers. Every published
// record set gets the next sequence number. A subscriber that falls behind
// only keeps the newest undelivered snapshot, so a slow reader never blocks
// a writer and never sees an older set after a newer one.
type Broadcaster struct {
	mu     sync.Mutex
	seq    uint64
	subs   map[chan core.Snapshot]struct{}
	closed bool
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[chan core.Snapshot]struct{})}
}

// Subscribe registers a subscriber and immediately queues current as its
// first snapshot. The channel is closed when ctx is done or on Close.
// Callers hold their own write lock while calling so current cannot race a
// Publish.
func (b *Broadcaster) Subscribe(ctx context.Context, current []core.Record) <-chan core.Snapshot {
	ch := make(chan core.Snapshot, 1)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch
	}
	b.subs[ch] = struct{}{}
	ch <- core.Snapshot{Seq: b.seq, Records: cloneRecords(current)}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.subs[ch]; ok {
			delete(b.subs, ch)
			close(ch)
		}
	}()
	return ch
}

// Publish numbers records as the next snapshot and delivers it.
func (b *Broadcaster) Publish(records []core.Record) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.seq++
	snap := core.Snapshot{Seq: b.seq, Records: cloneRecords(records)}
	for ch := range b.subs {
		select {
		case ch <- snap:
		default:
			// Replace the stale pending snapshot.
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
	return b.seq
}

// Seq returns the sequence number of the last published snapshot.
func (b *Broadcaster) Seq() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.seq
}

// Subscribers returns the number of open subscriptions.
func (b *Broadcaster) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Close closes every subscription. Later subscribers get a closed channel.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for ch := range b.subs {
		delete(b.subs, ch)
		close(ch)
	}
}

func cloneRecords(records []core.Record) []core.Record {
	out := make([]core.Record, len(records))
	copy(out, records)
	return out
}
