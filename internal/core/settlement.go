package core

import "errors"

// SettlementState is the payment status of a record.
type SettlementState int

const (
	Unpaid SettlementState = iota
	Paid
)

// ErrIllegalTransition is returned for a patch that tries to move a record
// back to Unpaid. No such transition exists.
var ErrIllegalTransition = errors.New("illegal settlement transition")

func (s SettlementState) String() string {
	if s == Paid {
		return "paid"
	}
	return "unpaid"
}

// StateOf returns the settlement state of r.
func StateOf(r Record) SettlementState {
	if r.IsPaid {
		return Paid
	}
	return Unpaid
}

// MarkPaid returns the single-field mutation that settles r. For a record
// already Paid it returns ok=false and the caller must not write anything.
func MarkPaid(r Record) (Patch, bool) {
	if StateOf(r) == Paid {
		return Patch{}, false
	}
	paid := true
	return Patch{IsPaid: &paid}, true
}
