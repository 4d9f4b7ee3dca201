package core

import "time"

// ExportHeader is the fixed column order of an exported ledger table.
var ExportHeader = []string{"Date", "Item", "Category", "Amount", "Payer", "Note", "Status"}

// DefaultDateLayout renders timestamps as "2025/1/31 14:05:09".
const DefaultDateLayout = "2006/1/2 15:04:05"

// ExportOptions controls how timestamps and settlement labels are rendered.
type ExportOptions struct {
	Location    *time.Location
	DateLayout  string
	PaidLabel   string
	UnpaidLabel string
}

// DefaultExportOptions renders dates in local time with DefaultDateLayout.
func DefaultExportOptions() ExportOptions {
	return ExportOptions{
		Location:    time.Local,
		DateLayout:  DefaultDateLayout,
		PaidLabel:   "Paid",
		UnpaidLabel: "Unpaid",
	}
}

// ExportRow is one flat row of the export table.
type ExportRow struct {
	Date         string
	Item         string
	Category     Category
	SignedAmount Money
	Payer        Payer
	Note         string
	Status       string
}

// Values returns the row as spreadsheet cells in ExportHeader order.
func (r ExportRow) Values() []any {
	return []any{r.Date, r.Item, string(r.Category), r.SignedAmount.Float(), string(r.Payer), r.Note, r.Status}
}

// Strings returns the row as text cells in ExportHeader order.
func (r ExportRow) Strings() []string {
	return []string{r.Date, r.Item, string(r.Category), r.SignedAmount.String(), string(r.Payer), r.Note, r.Status}
}

// Export projects already ordered records into export rows, keeping their
// order. Income amounts stay positive, expenses are negated.
func Export(ordered []Record, cls Classifier, opts ExportOptions) []ExportRow {
	opts = opts.withDefaults()
	rows := make([]ExportRow, 0, len(ordered))
	for _, r := range ordered {
		status := opts.UnpaidLabel
		if r.IsPaid {
			status = opts.PaidLabel
		}
		rows = append(rows, ExportRow{
			Date:         formatDate(r.Timestamp, opts),
			Item:         r.Item,
			Category:     r.Category,
			SignedAmount: Signed(r.Amount, cls.IsIncome(r.Category)),
			Payer:        r.Payer,
			Note:         r.Note,
			Status:       status,
		})
	}
	return rows
}

func (o ExportOptions) withDefaults() ExportOptions {
	def := DefaultExportOptions()
	if o.Location == nil {
		o.Location = def.Location
	}
	if o.DateLayout == "" {
		o.DateLayout = def.DateLayout
	}
	if o.PaidLabel == "" {
		o.PaidLabel = def.PaidLabel
	}
	if o.UnpaidLabel == "" {
		o.UnpaidLabel = def.UnpaidLabel
	}
	return o
}

// formatDate returns "" for a missing timestamp or one outside years 1..9999.
func formatDate(ts time.Time, opts ExportOptions) string {
	if ts.IsZero() {
		return ""
	}
	local := ts.In(opts.Location)
	if y := local.Year(); y < 1 || y > 9999 {
		return ""
	}
	return local.Format(opts.DateLayout)
}
