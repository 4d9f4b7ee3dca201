package core

import (
	"errors"
	"strings"
	"time"
)

type (
	// Category is a classification label. The canonical set is configured,
	// anything else a user types is accepted as a custom category.
	Category string

	// Payer is the name of the person who handled the money.
	Payer string

	// Record is one ledger entry as delivered by the store.
	Record struct {
		ID        string
		Item      string
		Unit      string
		Category  Category
		Amount    Money
		Payer     Payer
		Note      string
		Timestamp time.Time // zero when the store did not provide one
		IsPaid    bool
	}

	// Input is the payload of a create operation. The store assigns ID,
	// Timestamp and IsPaid=false.
	Input struct {
		Item     string
		Unit     string
		Category Category
		Amount   Money
		Payer    Payer
		Note     string
	}

	// Form holds raw, unparsed user input for a new record.
	Form struct {
		Item     string
		Unit     string
		Category string
		Amount   string
		Payer    string
		Note     string
	}

	// Patch is a partial field set applied by an update operation.
	// Nil fields are left untouched.
	Patch struct {
		Item     *string
		Unit     *string
		Category *Category
		Amount   *Money
		Payer    *Payer
		Note     *string
		IsPaid   *bool
	}
)

var (
	ErrEmptyItem     = errors.New("empty item")
	ErrEmptyCategory = errors.New("empty category")
	ErrEmptyPayer    = errors.New("empty payer")
	ErrEmptyPatch    = errors.New("empty patch")
	ErrItemTooLong   = errors.New("item too long (max 200 characters)")
)

const maxItemLength = 200

func (c Category) String() string { return string(c) }

// IsBlank reports whether the category is empty after trimming.
func (c Category) IsBlank() bool { return strings.TrimSpace(string(c)) == "" }

func (p Payer) String() string { return string(p) }

// IsBlank reports whether the payer is empty after trimming.
func (p Payer) IsBlank() bool { return strings.TrimSpace(string(p)) == "" }

func (in Input) Validate() error {
	if strings.TrimSpace(in.Item) == "" {
		return ErrEmptyItem
	}
	if len(in.Item) > maxItemLength {
		return ErrItemTooLong
	}
	if in.Category.IsBlank() {
		return ErrEmptyCategory
	}
	if err := in.Amount.Validate(); err != nil {
		return err
	}
	if in.Payer.IsBlank() {
		return ErrEmptyPayer
	}
	return nil
}

// Input parses the form. Text fields are trimmed and the amount goes
// through ParseAmount, so a blank or non-numeric amount fails here, before
// anything reaches a store.
func (f Form) Input() (Input, error) {
	cents, err := ParseAmount(f.Amount)
	if err != nil {
		return Input{}, err
	}
	in := Input{
		Item:     strings.TrimSpace(f.Item),
		Unit:     strings.TrimSpace(f.Unit),
		Category: Category(strings.TrimSpace(f.Category)),
		Amount:   Money{Cents: cents},
		Payer:    Payer(strings.TrimSpace(f.Payer)),
		Note:     strings.TrimSpace(f.Note),
	}
	if err := in.Validate(); err != nil {
		return Input{}, err
	}
	return in, nil
}

// NewRecord materialises an Input the way every store does on create.
func NewRecord(id string, in Input, ts time.Time) Record {
	return Record{
		ID:        id,
		Item:      in.Item,
		Unit:      in.Unit,
		Category:  in.Category,
		Amount:    in.Amount,
		Payer:     in.Payer,
		Note:      in.Note,
		Timestamp: ts,
		IsPaid:    false,
	}
}

// IsEmpty reports whether the patch carries no field at all.
func (p Patch) IsEmpty() bool {
	return p.Item == nil && p.Unit == nil && p.Category == nil && p.Amount == nil &&
		p.Payer == nil && p.Note == nil && p.IsPaid == nil
}

// OnlySettles reports whether the patch is exactly the settlement mutation.
func (p Patch) OnlySettles() bool {
	return p.IsPaid != nil && p.Item == nil && p.Unit == nil && p.Category == nil &&
		p.Amount == nil && p.Payer == nil && p.Note == nil
}

// Validate rejects patches that would blank a required field or unset the
// paid flag.
func (p Patch) Validate() error {
	if p.IsEmpty() {
		return ErrEmptyPatch
	}
	if p.Item != nil {
		if strings.TrimSpace(*p.Item) == "" {
			return ErrEmptyItem
		}
		if len(*p.Item) > maxItemLength {
			return ErrItemTooLong
		}
	}
	if p.Category != nil && p.Category.IsBlank() {
		return ErrEmptyCategory
	}
	if p.Payer != nil && p.Payer.IsBlank() {
		return ErrEmptyPayer
	}
	if p.Amount != nil {
		if err := p.Amount.Validate(); err != nil {
			return err
		}
	}
	if p.IsPaid != nil && !*p.IsPaid {
		return ErrIllegalTransition
	}
	return nil
}

// Apply returns a copy of r with the patch fields set.
func (p Patch) Apply(r Record) Record {
	if p.Item != nil {
		r.Item = *p.Item
	}
	if p.Unit != nil {
		r.Unit = *p.Unit
	}
	if p.Category != nil {
		r.Category = *p.Category
	}
	if p.Amount != nil {
		r.Amount = *p.Amount
	}
	if p.Payer != nil {
		r.Payer = *p.Payer
	}
	if p.Note != nil {
		r.Note = *p.Note
	}
	if p.IsPaid != nil {
		r.IsPaid = *p.IsPaid
	}
	return r
}
