package core

import (
	"reflect"
	"testing"
	"time"
)

var (
	t1 = time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)
	t2 = time.Date(2025, 1, 11, 9, 0, 0, 0, time.UTC)
	t3 = time.Date(2025, 1, 12, 9, 0, 0, 0, time.UTC)
)

func rec(id, item string, cat Category, cents int64, payer Payer, ts time.Time) Record {
	return Record{ID: id, Item: item, Category: cat, Amount: Money{Cents: cents}, Payer: payer, Timestamp: ts}
}

func ids(records []Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func TestScenarioTentAndGrant(t *testing.T) {
	canonical := CanonicalOrder{"Income", "Misc"}
	records := []Record{
		rec("tent", "Tent", "Misc", 10000, "Ann", t1),
		rec("grant", "Grant", "Income", 50000, "Bea", t2),
	}

	if got := ids(Order(records, canonical)); !reflect.DeepEqual(got, []string{"grant", "tent"}) {
		t.Fatalf("unexpected order: %v", got)
	}

	s := Summarize(records, IncomeLabel("Income"))
	if s.TotalIncome.Cents != 50000 || s.TotalExpense.Cents != 10000 || s.NetBalance.Cents != 40000 {
		t.Fatalf("unexpected totals: %+v", s)
	}
	want := map[Payer]Money{"Ann": {Cents: 10000}, "Bea": {Cents: 50000}}
	if !reflect.DeepEqual(s.PayerHandled, want) {
		t.Fatalf("unexpected payer totals: %v", s.PayerHandled)
	}
}

func TestSummarizeSamePayerAccumulates(t *testing.T) {
	records := []Record{
		rec("a", "Water", "Misc", 5000, "Cid", t1),
		rec("b", "Ice", "Misc", 5000, "Cid", t2),
	}
	s := Summarize(records, IncomeLabel(DefaultIncomeCategory))
	if s.PayerHandled["Cid"].Cents != 10000 {
		t.Fatalf("expected 10000 cents for Cid, got %d", s.PayerHandled["Cid"].Cents)
	}
	if len(s.PayerTotals) != 1 || s.GrandHandled.Cents != 10000 {
		t.Fatalf("unexpected payer totals: %+v", s.PayerTotals)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil, IncomeLabel(DefaultIncomeCategory))
	if s.TotalIncome.Cents != 0 || s.TotalExpense.Cents != 0 || s.NetBalance.Cents != 0 {
		t.Fatalf("expected zero totals, got %+v", s)
	}
	if s.PayerHandled == nil || len(s.PayerHandled) != 0 {
		t.Fatalf("expected empty payer map, got %v", s.PayerHandled)
	}
}

func TestSummarizePayerHandledIgnoresClass(t *testing.T) {
	records := []Record{
		rec("a", "Grant", "Income", 30000, "Ann", t1),
		rec("b", "Food", "Custom", 1000, "Ann", t2),
		rec("c", "Gas", "Misc", 2000, "Bea", t3),
	}
	s := Summarize(records, IncomeLabel("Income"))
	if s.PayerHandled["Ann"].Cents != 31000 {
		t.Fatalf("Ann handled %d", s.PayerHandled["Ann"].Cents)
	}
	if s.TotalExpense.Cents != 3000 {
		t.Fatalf("custom categories are expenses, got expense %d", s.TotalExpense.Cents)
	}
	if got := []Payer{s.PayerTotals[0].Payer, s.PayerTotals[1].Payer}; !reflect.DeepEqual(got, []Payer{"Ann", "Bea"}) {
		t.Fatalf("payer totals not in first-seen order: %v", got)
	}
}

func TestOrderCanonicalBeforeCustom(t *testing.T) {
	canonical := CanonicalOrder{"Income", "Category A", "Misc"}
	records := []Record{
		rec("custom-new", "x", "Snacks", 1, "Ann", t3),
		rec("misc-old", "x", "Misc", 1, "Ann", t1),
		rec("a-mid", "x", "Category A", 1, "Ann", t2),
		rec("income-old", "x", "Income", 1, "Ann", t1),
		rec("income-new", "x", "Income", 1, "Ann", t3),
	}
	got := ids(Order(records, canonical))
	want := []string{"income-new", "income-old", "a-mid", "misc-old", "custom-new"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("order = %v, want %v", got, want)
	}
}

func TestOrderIsStableAndPure(t *testing.T) {
	records := []Record{
		rec("first", "x", "Misc", 1, "Ann", t1),
		rec("second", "x", "Misc", 1, "Bea", t1),
		rec("zero-ts", "x", "Misc", 1, "Bea", time.Time{}),
		rec("third", "x", "Misc", 1, "Cid", t1),
	}
	before := ids(records)
	got := ids(Order(records, CanonicalOrder{"Misc"}))
	if !reflect.DeepEqual(got, []string{"first", "second", "third", "zero-ts"}) {
		t.Fatalf("unexpected order: %v", got)
	}
	if !reflect.DeepEqual(ids(records), before) {
		t.Fatalf("Order mutated its input")
	}
}

func TestRank(t *testing.T) {
	o := CanonicalOrder{"Income", "Misc"}
	if o.Rank("Misc") != 1 || o.Rank("Other") != UnrankedCategory {
		t.Fatalf("unexpected ranks")
	}
	if UnrankedCategory <= len(DefaultCanonicalOrder) {
		t.Fatalf("sentinel rank must exceed canonical indexes")
	}
}

func TestBuildVocabulary(t *testing.T) {
	canonical := CanonicalOrder{"Income", "Category A", "Misc"}

	empty := BuildVocabulary(nil, canonical)
	if len(empty.Payers) != 0 || !reflect.DeepEqual(empty.Categories, []Category(canonical)) {
		t.Fatalf("unexpected empty vocabulary: %+v", empty)
	}

	records := []Record{
		rec("1", "x", "Snacks", 1, "Cid", t1),
		rec("2", "x", "Misc", 1, "Ann", t1),
		rec("3", "x", "Drinks", 1, "Cid", t1),
		rec("4", "x", "Snacks", 1, "Bea", t1),
	}
	v := BuildVocabulary(records, canonical)
	if !reflect.DeepEqual(v.Payers, []Payer{"Cid", "Ann", "Bea"}) {
		t.Fatalf("payers = %v", v.Payers)
	}
	wantCats := []Category{"Income", "Category A", "Misc", "Snacks", "Drinks"}
	if !reflect.DeepEqual(v.Categories, wantCats) {
		t.Fatalf("categories = %v", v.Categories)
	}
}

func TestClassifier(t *testing.T) {
	cls := IncomeLabel("Income")
	if !cls.IsIncome("Income") || cls.IsIncome("income") || cls.IsIncome("Misc") || cls.IsIncome("Whatever") {
		t.Fatalf("classifier must match the reserved label exactly")
	}
	if !IsIncome("Income", "Income") || IsIncome("Misc", "Income") {
		t.Fatalf("IsIncome mismatch")
	}
	if Signed(Money{Cents: 5}, false).Cents != -5 || Signed(Money{Cents: 5}, true).Cents != 5 {
		t.Fatalf("sign convention broken")
	}
}

func TestMarkPaid(t *testing.T) {
	r := rec("1", "Tent", "Misc", 100, "Ann", t1)
	p, ok := MarkPaid(r)
	if !ok || p.IsPaid == nil || !*p.IsPaid || !p.OnlySettles() {
		t.Fatalf("expected single-field settle patch, got %+v ok=%v", p, ok)
	}

	paid := p.Apply(r)
	if StateOf(paid) != Paid {
		t.Fatalf("expected Paid state")
	}
	again, ok := MarkPaid(paid)
	if ok || !again.IsEmpty() {
		t.Fatalf("second MarkPaid must be a no-op, got %+v ok=%v", again, ok)
	}
	if StateOf(again.Apply(paid)) != Paid {
		t.Fatalf("paid is terminal")
	}
}

func TestExportProjection(t *testing.T) {
	canonical := CanonicalOrder{"Income", "Misc"}
	records := []Record{
		rec("tent", "Tent", "Misc", 10000, "Ann", t1),
		rec("grant", "Grant", "Income", 50000, "Bea", t2),
		rec("odd", "Odd", "Custom", 250, "Cid", time.Time{}),
	}
	records[1].IsPaid = true
	records[0].Note = "rain fly"

	ordered := Order(records, canonical)
	opts := ExportOptions{Location: time.UTC, DateLayout: "2006-01-02", PaidLabel: "P", UnpaidLabel: "U"}
	rows := Export(ordered, IncomeLabel("Income"), opts)

	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[0].Item != "Grant" || rows[0].SignedAmount.Cents != 50000 || rows[0].Status != "P" || rows[0].Date != "2025-01-11" {
		t.Fatalf("unexpected first row: %+v", rows[0])
	}
	if rows[1].Item != "Tent" || rows[1].SignedAmount.Cents != -10000 || rows[1].Status != "U" || rows[1].Note != "rain fly" {
		t.Fatalf("unexpected second row: %+v", rows[1])
	}
	if rows[2].Date != "" || rows[2].SignedAmount.Cents != -250 {
		t.Fatalf("missing timestamp must export an empty date: %+v", rows[2])
	}
	if len(rows[0].Values()) != len(ExportHeader) || len(rows[0].Strings()) != len(ExportHeader) {
		t.Fatalf("row width must match header")
	}
}

func TestExportOutOfRangeTimestamp(t *testing.T) {
	far := time.Date(12000, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := Export([]Record{rec("1", "x", "Misc", 1, "Ann", far)}, IncomeLabel("Income"), ExportOptions{})
	if rows[0].Date != "" {
		t.Fatalf("expected empty date, got %q", rows[0].Date)
	}
	if rows[0].Status != "Unpaid" {
		t.Fatalf("expected default unpaid label, got %q", rows[0].Status)
	}
}

func TestExportAgreesWithSummary(t *testing.T) {
	records := []Record{
		rec("1", "a", "Income", 12345, "Ann", t1),
		rec("2", "b", "Misc", 999, "Bea", t2),
		rec("3", "c", "Custom", 1, "Ann", t3),
		rec("4", "d", "Income", 7, "Cid", t1),
	}
	cfg := Config{Canonical: CanonicalOrder{"Income", "Misc"}, Income: "Income"}
	view := Compute(Snapshot{Records: records}, cfg)
	rows := Export(view.Ordered, cfg.Classifier(), DefaultExportOptions())

	var signed Money
	for _, r := range rows {
		signed = signed.Add(r.SignedAmount)
	}
	if signed != view.Summary.NetBalance {
		t.Fatalf("export sum %v != net balance %v", signed, view.Summary.NetBalance)
	}
	if view.Summary.NetBalance != view.Summary.TotalIncome.Sub(view.Summary.TotalExpense) {
		t.Fatalf("net balance must equal income minus expense")
	}
}

func TestSnapshotFind(t *testing.T) {
	s := Snapshot{Records: []Record{rec("1", "a", "Misc", 1, "Ann", t1)}}
	if _, ok := s.Find("1"); !ok {
		t.Fatalf("expected to find record")
	}
	if _, ok := s.Find("2"); ok {
		t.Fatalf("unexpected record")
	}
}
