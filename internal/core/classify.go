package core

// DefaultIncomeCategory is the reserved label that marks a record as income.
const DefaultIncomeCategory Category = "Income"

// Classifier decides whether a category counts as income. Every category
// that is not income is an expense; there is no third class.
type Classifier interface {
	IsIncome(c Category) bool
}

// IncomeLabel is a Classifier matching one reserved category label.
type IncomeLabel Category

// IsIncome reports whether c equals the income label exactly.
func (l IncomeLabel) IsIncome(c Category) bool {
	return IsIncome(c, Category(l))
}

// IsIncome reports whether category equals the reserved income label.
func IsIncome(category, income Category) bool {
	return category == income
}

// Signed applies the ledger sign convention: income is positive, expense
// negative.
func Signed(amount Money, income bool) Money {
	if income {
		return amount
	}
	return amount.Neg()
}
