package scoring

import "sort"

// Ranked is a scored candidate waiting to be ordered.
type Ranked struct {
	ID         string
	Result     Result
	Reputation float64
}

// Rank sorts entries in place into a total order: value descending, then
// reputation descending, then id ascending.
func Rank(entries []Ranked) {
	sort.SliceStable(entries, func(i, j int) bool {
		return Less(entries[i], entries[j])
	})
}

// Less reports whether a sorts before b.
func Less(a, b Ranked) bool {
	if a.Result.Value != b.Result.Value {
		return a.Result.Value > b.Result.Value
	}
	if a.Reputation != b.Reputation {
		return a.Reputation > b.Reputation
	}
	return a.ID < b.ID
}
