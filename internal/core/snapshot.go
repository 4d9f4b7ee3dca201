package core

// Snapshot is a complete view of the record set as delivered by a store.
// Seq increases with every change the store observes; zero means the store
// does not number its snapshots.
type Snapshot struct {
	Seq     uint64
	Records []Record
}

// Config bundles the ledger-wide settings the derived views depend on.
type Config struct {
	Canonical CanonicalOrder
	Income    Category
}

// DefaultConfig uses DefaultCanonicalOrder and DefaultIncomeCategory.
func DefaultConfig() Config {
	return Config{Canonical: DefaultCanonicalOrder, Income: DefaultIncomeCategory}
}

// Classifier returns the income classifier for this configuration.
func (c Config) Classifier() Classifier {
	return IncomeLabel(c.Income)
}

// View is everything derived from one snapshot.
type View struct {
	Seq        uint64
	Ordered    []Record
	Vocabulary Vocabulary
	Summary    Summary
}

// Compute derives the view of a snapshot from scratch.
func Compute(s Snapshot, cfg Config) View {
	cls := cfg.Classifier()
	return View{
		Seq:        s.Seq,
		Ordered:    Order(s.Records, cfg.Canonical),
		Vocabulary: BuildVocabulary(s.Records, cfg.Canonical),
		Summary:    Summarize(s.Records, cls),
	}
}

// Find returns the record with the given id.
func (s Snapshot) Find(id string) (Record, bool) {
	for _, r := range s.Records {
		if r.ID == id {
			return r, true
		}
	}
	return Record{}, false
}
