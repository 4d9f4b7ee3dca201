package core

// PayerTotal is the amount handled by one payer.
type PayerTotal struct {
	Payer   Payer
	Handled Money
}

// Summary holds the financial totals of a record set.
type Summary struct {
	TotalIncome  Money
	TotalExpense Money
	NetBalance   Money

	// PayerHandled sums every record per payer, income and expense alike:
	// it tracks money handled, not money owed.
	PayerHandled map[Payer]Money

	// PayerTotals is PayerHandled in first-seen payer order.
	PayerTotals  []PayerTotal
	GrandHandled Money
}

// Summarize folds the records into income, expense, net balance and
// per-payer handled totals.
func Summarize(records []Record, cls Classifier) Summary {
	s := Summary{
		PayerHandled: make(map[Payer]Money),
		PayerTotals:  make([]PayerTotal, 0),
	}
	index := make(map[Payer]int)

	for _, r := range records {
		if cls.IsIncome(r.Category) {
			s.TotalIncome = s.TotalIncome.Add(r.Amount)
		} else {
			s.TotalExpense = s.TotalExpense.Add(r.Amount)
		}

		s.PayerHandled[r.Payer] = s.PayerHandled[r.Payer].Add(r.Amount)
		if i, ok := index[r.Payer]; ok {
			s.PayerTotals[i].Handled = s.PayerTotals[i].Handled.Add(r.Amount)
		} else {
			index[r.Payer] = len(s.PayerTotals)
			s.PayerTotals = append(s.PayerTotals, PayerTotal{Payer: r.Payer, Handled: r.Amount})
		}
		s.GrandHandled = s.GrandHandled.Add(r.Amount)
	}

	s.NetBalance = s.TotalIncome.Sub(s.TotalExpense)
	return s
}
