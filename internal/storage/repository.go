package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"groupledger/internal/core"
	"groupledger/internal/ledger"

	_ "modernc.org/sqlite"
)

// publishTimeout bounds one change announcement.
const publishTimeout = 5 * time.Second

// Change operations reported to a ChangePublisher.
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// ChangePublisher is told about every committed write so other processes can
// reload. Publish failures are logged and never fail the write.
type ChangePublisher interface {
	PublishChange(ctx context.Context, id, op string, seq uint64) error
}

// SQLiteRepository is a ledger.Store and ledger.Feed backed by SQLite.
type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries

	// mu serialises write, reload and publish so snapshots go out in
	// commit order.
	mu        sync.Mutex
	hub       *ledger.Broadcaster
	publisher ChangePublisher
	now       func() time.Time
}

var (
	_ ledger.Store = (*SQLiteRepository)(nil)
	_ ledger.Feed  = (*SQLiteRepository)(nil)
)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		hub:     ledger.NewBroadcaster(),
		now:     time.Now,
	}, nil
}

// SetPublisher attaches an optional change publisher.
func (r *SQLiteRepository) SetPublisher(p ChangePublisher) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.publisher = p
}

func (r *SQLiteRepository) Close() error {
	r.hub.Close()
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Create(ctx context.Context, in core.Input) (core.Record, error) {
	if err := in.Validate(); err != nil {
		return core.Record{}, err
	}
	rec, ch, err := r.create(ctx, in)
	if err != nil {
		return core.Record{}, err
	}
	r.notify(ctx, ch)
	return rec, nil
}

func (r *SQLiteRepository) create(ctx context.Context, in core.Input) (core.Record, change, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	rec := core.NewRecord(uuid.NewString(), in, now)
	err := r.queries.CreateRecord(ctx, CreateRecordParams{
		ID:          rec.ID,
		Item:        rec.Item,
		Unit:        rec.Unit,
		Category:    string(rec.Category),
		AmountCents: rec.Amount.Cents,
		Payer:       string(rec.Payer),
		Note:        rec.Note,
		CreatedAt:   sql.NullInt64{Int64: now.UnixMilli(), Valid: true},
		UpdatedAt:   now.UnixMilli(),
	})
	if err != nil {
		return core.Record{}, change{}, fmt.Errorf("insert record: %w", err)
	}
	// Millisecond precision is what a reload will see.
	rec.Timestamp = time.UnixMilli(now.UnixMilli())

	slog.InfoContext(ctx, "Record saved to SQLite",
		"record_id", rec.ID,
		"item", rec.Item,
		"amount_cents", rec.Amount.Cents)

	return rec, r.afterWrite(ctx, rec.ID, OpCreate), nil
}

func (r *SQLiteRepository) Update(ctx context.Context, id string, p core.Patch) error {
	ch, err := r.update(ctx, id, p)
	if err != nil {
		return err
	}
	r.notify(ctx, ch)
	return nil
}

func (r *SQLiteRepository) update(ctx context.Context, id string, p core.Patch) (change, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return change{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	row, err := q.GetRecord(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return change{}, fmt.Errorf("%w: %s", ledger.ErrRecordNotFound, id)
	}
	if err != nil {
		return change{}, fmt.Errorf("get record: %w", err)
	}

	rec := p.Apply(rowToRecord(row))
	if row.IsPaid && !rec.IsPaid {
		return change{}, core.ErrIllegalTransition
	}
	if _, err := q.UpdateRecord(ctx, UpdateRecordParams{
		Item:        rec.Item,
		Unit:        rec.Unit,
		Category:    string(rec.Category),
		AmountCents: rec.Amount.Cents,
		Payer:       string(rec.Payer),
		Note:        rec.Note,
		IsPaid:      rec.IsPaid,
		UpdatedAt:   r.now().UnixMilli(),
		ID:          id,
	}); err != nil {
		return change{}, fmt.Errorf("update record: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return change{}, fmt.Errorf("commit transaction: %w", err)
	}

	return r.afterWrite(ctx, id, OpUpdate), nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	ch, err := r.remove(ctx, id)
	if err != nil {
		return err
	}
	r.notify(ctx, ch)
	return nil
}

func (r *SQLiteRepository) remove(ctx context.Context, id string) (change, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, err := r.queries.DeleteRecord(ctx, id)
	if err != nil {
		return change{}, fmt.Errorf("delete record: %w", err)
	}
	if n == 0 {
		return change{}, fmt.Errorf("%w: %s", ledger.ErrRecordNotFound, id)
	}
	return r.afterWrite(ctx, id, OpDelete), nil
}

// List returns every record in insertion order.
func (r *SQLiteRepository) List(ctx context.Context) ([]core.Record, error) {
	rows, err := r.queries.ListRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	records := make([]core.Record, len(rows))
	for i, row := range rows {
		records[i] = rowToRecord(row)
	}
	return records, nil
}

// Subscribe delivers the current table and a fresh snapshot after every
// write made through this repository.
func (r *SQLiteRepository) Subscribe(ctx context.Context) (<-chan core.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	records, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	return r.hub.Subscribe(ctx, records), nil
}

// change is a committed write waiting to be announced.
type change struct {
	id        string
	op        string
	seq       uint64
	publisher ChangePublisher
}

// afterWrite reloads the table for subscribers and captures what notify
// needs. Called with mu held.
func (r *SQLiteRepository) afterWrite(ctx context.Context, id, op string) change {
	seq := r.hub.Seq()
	if r.hub.Subscribers() > 0 {
		records, err := r.List(ctx)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to reload records after write", "record_id", id, "error", err)
		} else {
			seq = r.hub.Publish(records)
		}
	}
	return change{id: id, op: op, seq: seq, publisher: r.publisher}
}

// notify announces a change to the publisher. Called without mu so a slow
// broker never holds up other writes.
func (r *SQLiteRepository) notify(ctx context.Context, ch change) {
	if ch.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := ch.publisher.PublishChange(ctx, ch.id, ch.op, ch.seq); err != nil {
		slog.WarnContext(ctx, "Failed to publish change, worker will catch up on next interval",
			"record_id", ch.id,
			"op", ch.op,
			"error", err)
	}
}

func rowToRecord(row RecordRow) core.Record {
	rec := core.Record{
		ID:       row.ID,
		Item:     row.Item,
		Unit:     row.Unit,
		Category: core.Category(row.Category),
		Amount:   core.Money{Cents: row.AmountCents},
		Payer:    core.Payer(row.Payer),
		Note:     row.Note,
		IsPaid:   row.IsPaid,
	}
	if row.CreatedAt.Valid {
		rec.Timestamp = time.UnixMilli(row.CreatedAt.Int64)
	}
	return rec
}
