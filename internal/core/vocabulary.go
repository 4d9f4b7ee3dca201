package core

// CanonicalOrder is the preferred category sequence. It drives the
// category vocabulary and the primary display sort key.
type CanonicalOrder []Category

// DefaultCanonicalOrder is used when no category list is configured.
var DefaultCanonicalOrder = CanonicalOrder{DefaultIncomeCategory, "Category A", "Category B", "Misc"}

// UnrankedCategory is the rank of a category outside the canonical order.
// It is larger than any canonical index, so custom categories sort last.
const UnrankedCategory = 999

// Rank returns the index of c in the canonical order, or UnrankedCategory.
func (o CanonicalOrder) Rank(c Category) int {
	for i, v := range o {
		if v == c {
			return i
		}
	}
	return UnrankedCategory
}

// Contains reports whether c is a canonical category.
func (o CanonicalOrder) Contains(c Category) bool {
	return o.Rank(c) != UnrankedCategory
}

// Vocabulary is the selectable set of payers and categories derived from
// the current records.
type Vocabulary struct {
	Payers     []Payer
	Categories []Category
}

// BuildVocabulary collects distinct payers in first-seen order and appends
// every non-canonical category, in first-seen order, after the canonical
// list. Values used only by deleted records are not retained.
func BuildVocabulary(records []Record, canonical CanonicalOrder) Vocabulary {
	v := Vocabulary{
		Payers:     make([]Payer, 0),
		Categories: make([]Category, 0, len(canonical)),
	}

	seenCat := make(map[Category]struct{}, len(canonical))
	for _, c := range canonical {
		if _, ok := seenCat[c]; ok {
			continue
		}
		seenCat[c] = struct{}{}
		v.Categories = append(v.Categories, c)
	}

	seenPayer := make(map[Payer]struct{})
	for _, r := range records {
		if _, ok := seenPayer[r.Payer]; !ok {
			seenPayer[r.Payer] = struct{}{}
			v.Payers = append(v.Payers, r.Payer)
		}
		if _, ok := seenCat[r.Category]; !ok {
			seenCat[r.Category] = struct{}{}
			v.Categories = append(v.Categories, r.Category)
		}
	}
	return v
}
