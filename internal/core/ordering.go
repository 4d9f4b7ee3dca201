package core

import "sort"

// Order returns the records in display order: canonical rank ascending,
// then timestamp descending. Ties keep their input order. The input slice
// is not modified.
func Order(records []Record, canonical CanonicalOrder) []Record {
	out := make([]Record, len(records))
	copy(out, records)

	ranks := make(map[Category]int, len(canonical))
	rank := func(c Category) int {
		if r, ok := ranks[c]; ok {
			return r
		}
		r := canonical.Rank(c)
		ranks[c] = r
		return r
	}

	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := rank(out[i].Category), rank(out[j].Category)
		if ri != rj {
			return ri < rj
		}
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}
