package storage

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// RecordRow mirrors one row of the records table.
type RecordRow struct {
	ID          string
	Item        string
	Unit        string
	Category    string
	AmountCents int64
	Payer       string
	Note        string
	CreatedAt   sql.NullInt64
	IsPaid      bool
	UpdatedAt   int64
}

const createRecord = `
INSERT INTO records (id, item, unit, category, amount_cents, payer, note, created_at, is_paid, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, ?)
`

type CreateRecordParams struct {
	ID          string
	Item        string
	Unit        string
	Category    string
	AmountCents int64
	Payer       string
	Note        string
	CreatedAt   sql.NullInt64
	UpdatedAt   int64
}

func (q *Queries) CreateRecord(ctx context.Context, arg CreateRecordParams) error {
	_, err := q.db.ExecContext(ctx, createRecord,
		arg.ID,
		arg.Item,
		arg.Unit,
		arg.Category,
		arg.AmountCents,
		arg.Payer,
		arg.Note,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return err
}

const getRecord = `
SELECT id, item, unit, category, amount_cents, payer, note, created_at, is_paid, updated_at
FROM records WHERE id = ?
`

func (q *Queries) GetRecord(ctx context.Context, id string) (RecordRow, error) {
	row := q.db.QueryRowContext(ctx, getRecord, id)
	var i RecordRow
	err := row.Scan(
		&i.ID,
		&i.Item,
		&i.Unit,
		&i.Category,
		&i.AmountCents,
		&i.Payer,
		&i.Note,
		&i.CreatedAt,
		&i.IsPaid,
		&i.UpdatedAt,
	)
	return i, err
}

const listRecords = `
SELECT id, item, unit, category, amount_cents, payer, note, created_at, is_paid, updated_at
FROM records ORDER BY seq
`

func (q *Queries) ListRecords(ctx context.Context) ([]RecordRow, error) {
	rows, err := q.db.QueryContext(ctx, listRecords)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []RecordRow
	for rows.Next() {
		var i RecordRow
		if err := rows.Scan(
			&i.ID,
			&i.Item,
			&i.Unit,
			&i.Category,
			&i.AmountCents,
			&i.Payer,
			&i.Note,
			&i.CreatedAt,
			&i.IsPaid,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const updateRecord = `
UPDATE records
SET item = ?, unit = ?, category = ?, amount_cents = ?, payer = ?, note = ?, is_paid = ?, updated_at = ?
WHERE id = ?
`

type UpdateRecordParams struct {
	Item        string
	Unit        string
	Category    string
	AmountCents int64
	Payer       string
	Note        string
	IsPaid      bool
	UpdatedAt   int64
	ID          string
}

func (q *Queries) UpdateRecord(ctx context.Context, arg UpdateRecordParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateRecord,
		arg.Item,
		arg.Unit,
		arg.Category,
		arg.AmountCents,
		arg.Payer,
		arg.Note,
		arg.IsPaid,
		arg.UpdatedAt,
		arg.ID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteRecord = `
DELETE FROM records WHERE id = ?
`

func (q *Queries) DeleteRecord(ctx context.Context, id string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteRecord, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
