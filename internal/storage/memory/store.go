// Package memory is an in-process record store with a snapshot feed. It is
// the default backend for local use and the fake the other layers test with.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"groupledger/internal/core"
	"groupledger/internal/ledger"
)

type Store struct {
	mu      sync.Mutex
	records []core.Record
	index   map[string]int

	hub *ledger.Broadcaster
	now func() time.Time
}

var (
	_ ledger.Store = (*Store)(nil)
	_ ledger.Feed  = (*Store)(nil)
)

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the timestamp source used on create.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithRecords seeds the store. Seeded records keep their IDs and state.
func WithRecords(records ...core.Record) Option {
	return func(s *Store) {
		for _, r := range records {
			s.index[r.ID] = len(s.records)
			s.records = append(s.records, r)
		}
	}
}

func New(opts ...Option) *Store {
	s := &Store{
		index: make(map[string]int),
		hub:   ledger.NewBroadcaster(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Create(ctx context.Context, in core.Input) (core.Record, error) {
	if err := ctx.Err(); err != nil {
		return core.Record{}, err
	}
	if err := in.Validate(); err != nil {
		return core.Record{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rec := core.NewRecord(uuid.NewString(), in, s.now())
	s.index[rec.ID] = len(s.records)
	s.records = append(s.records, rec)
	s.hub.Publish(s.records)
	return rec, nil
}

func (s *Store) Update(ctx context.Context, id string, p core.Patch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return fmt.Errorf("%w: %s", ledger.ErrRecordNotFound, id)
	}
	updated := p.Apply(s.records[i])
	if s.records[i].IsPaid && !updated.IsPaid {
		return core.ErrIllegalTransition
	}
	s.records[i] = updated
	s.hub.Publish(s.records)
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return fmt.Errorf("%w: %s", ledger.ErrRecordNotFound, id)
	}
	s.records = append(s.records[:i], s.records[i+1:]...)
	delete(s.index, id)
	for j := i; j < len(s.records); j++ {
		s.index[s.records[j].ID] = j
	}
	s.hub.Publish(s.records)
	return nil
}

// List returns records in insertion order.
func (s *Store) List(ctx context.Context) ([]core.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Record, len(s.records))
	copy(out, s.records)
	return out, nil
}

func (s *Store) Subscribe(ctx context.Context) (<-chan core.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hub.Subscribe(ctx, s.records), nil
}

// Close ends every open subscription.
func (s *Store) Close() error {
	s.hub.Close()
	return nil
}
