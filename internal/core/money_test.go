package core

import (
	"math"
	"testing"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{" 2.50 ", 250, true},
		{"0", 0, true},
		{".5", 50, true},
		{"500", 50000, true},
		{"-1", 0, false},
		{"+1", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
		{"   ", 0, false},
		{".", 0, false},
		{"1e3", 0, false},
		{"NaN", 0, false},
		{"Inf", 0, false},
		{"99999999999999999999", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error, got %d", tc.in, got)
		}
	}
}

func TestMoneyString(t *testing.T) {
	cases := map[int64]string{
		0:      "0",
		100:    "1",
		150:    "1.5",
		105:    "1.05",
		-1234:  "-12.34",
		50000:  "500",
		-10000: "-100",
	}
	for cents, want := range cases {
		if got := (Money{Cents: cents}).String(); got != want {
			t.Fatalf("Money{%d}.String() = %q, want %q", cents, got, want)
		}
	}
}

func TestMoneyFromFloat(t *testing.T) {
	if m, err := MoneyFromFloat(12.34); err != nil || m.Cents != 1234 {
		t.Fatalf("expected 1234 cents, got %d (err=%v)", m.Cents, err)
	}
	for _, f := range []float64{-1, math.NaN(), math.Inf(1)} {
		if _, err := MoneyFromFloat(f); err == nil {
			t.Fatalf("expected error for %v", f)
		}
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 0}).Validate(); err != nil {
		t.Fatalf("zero should be valid, got %v", err)
	}
	if err := (Money{Cents: -1}).Validate(); err == nil {
		t.Fatalf("expected error for negative amount")
	}
}

func TestAmountCap(t *testing.T) {
	if got, err := ParseAmount("100000000000"); err != nil || got != MaxCents {
		t.Fatalf("expected MaxCents, got %d (err=%v)", got, err)
	}
	for _, in := range []string{"100000000000.01", "100000000001", "50000000000000000"} {
		if _, err := ParseAmount(in); err == nil {
			t.Fatalf("%q expected error above MaxCents", in)
		}
	}

	if m, err := MoneyFromFloat(1e11); err != nil || m.Cents != MaxCents {
		t.Fatalf("expected MaxCents, got %d (err=%v)", m.Cents, err)
	}
	for _, f := range []float64{1e11 + 1, float64(math.MaxInt64 / 100)} {
		if _, err := MoneyFromFloat(f); err == nil {
			t.Fatalf("expected error for %v", f)
		}
	}
	if err := (Money{Cents: MaxCents + 1}).Validate(); err == nil {
		t.Fatalf("expected error above MaxCents")
	}
}

func TestSummarizeAtCapStaysPositive(t *testing.T) {
	capped, err := ParseAmount("100000000000")
	if err != nil {
		t.Fatal(err)
	}
	records := []Record{
		{ID: "a", Category: "Misc", Payer: "Ann", Amount: Money{Cents: capped}},
		{ID: "b", Category: "Misc", Payer: "Ann", Amount: Money{Cents: capped}},
	}
	s := Summarize(records, IncomeLabel(DefaultIncomeCategory))
	if s.TotalExpense.Cents != 2*MaxCents || s.PayerHandled["Ann"].Cents != 2*MaxCents {
		t.Fatalf("unexpected totals: %+v", s)
	}
	if s.NetBalance.Cents != -2*MaxCents {
		t.Fatalf("net balance = %d", s.NetBalance.Cents)
	}
}
