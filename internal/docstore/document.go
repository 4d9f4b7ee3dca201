package docstore

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"groupledger/internal/core"
)

// document is the stored shape of a record. Documents written by other
// clients may only carry the float amount and may lack a timestamp.
type document struct {
	ID          string     `bson:"_id"`
	Item        string     `bson:"item"`
	Unit        string     `bson:"unit,omitempty"`
	Category    string     `bson:"category"`
	AmountCents *int64     `bson:"amount_cents,omitempty"`
	Amount      *float64   `bson:"amount,omitempty"`
	Payer       string     `bson:"payer"`
	Note        string     `bson:"note,omitempty"`
	Timestamp   *time.Time `bson:"timestamp,omitempty"`
	IsPaid      bool       `bson:"isPaid"`
}

func toDocument(r core.Record) document {
	cents := r.Amount.Cents
	amount := r.Amount.Float()
	doc := document{
		ID:          r.ID,
		Item:        r.Item,
		Unit:        r.Unit,
		Category:    string(r.Category),
		AmountCents: &cents,
		Amount:      &amount,
		Payer:       string(r.Payer),
		Note:        r.Note,
		IsPaid:      r.IsPaid,
	}
	if !r.Timestamp.IsZero() {
		ts := r.Timestamp.UTC()
		doc.Timestamp = &ts
	}
	return doc
}

// toRecord converts a stored document. Integer cents win over the float
// amount; a document with neither, or with a negative amount, is invalid.
func (d document) toRecord() (core.Record, error) {
	var amount core.Money
	switch {
	case d.AmountCents != nil:
		amount = core.Money{Cents: *d.AmountCents}
	case d.Amount != nil:
		m, err := core.MoneyFromFloat(*d.Amount)
		if err != nil {
			return core.Record{}, err
		}
		amount = m
	default:
		return core.Record{}, core.ErrInvalidAmount
	}
	if err := amount.Validate(); err != nil {
		return core.Record{}, err
	}

	rec := core.Record{
		ID:       d.ID,
		Item:     d.Item,
		Unit:     d.Unit,
		Category: core.Category(d.Category),
		Amount:   amount,
		Payer:    core.Payer(d.Payer),
		Note:     d.Note,
		IsPaid:   d.IsPaid,
	}
	if d.Timestamp != nil {
		rec.Timestamp = *d.Timestamp
	}
	return rec, nil
}

// setFields builds the $set document for a patch. Only fields present in
// the patch are written.
func setFields(p core.Patch) bson.M {
	set := bson.M{}
	if p.Item != nil {
		set["item"] = *p.Item
	}
	if p.Unit != nil {
		set["unit"] = *p.Unit
	}
	if p.Category != nil {
		set["category"] = string(*p.Category)
	}
	if p.Amount != nil {
		set["amount_cents"] = p.Amount.Cents
		set["amount"] = p.Amount.Float()
	}
	if p.Payer != nil {
		set["payer"] = string(*p.Payer)
	}
	if p.Note != nil {
		set["note"] = *p.Note
	}
	if p.IsPaid != nil {
		set["isPaid"] = *p.IsPaid
	}
	return set
}
