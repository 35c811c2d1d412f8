package matchcheck

import (
	"fmt"
	"math"

	"github.com/okian/techmatch/internal/domain/scoring"
)

const scoreTolerance = 1e-9

// Verify returns every way rows break the ranking contract: ranks numbered
// from 1, scores in [0,1], unique ids, coverage counts consistent with the
// fully-qualified flag, and the total order score desc, reputation desc,
// id asc.
func Verify(rows []Row) []string {
	var out []string
	seen := make(map[string]struct{}, len(rows))
	for i, r := range rows {
		if r.Rank != i+1 {
			out = append(out, fmt.Sprintf("row %d: rank %d, want %d", i, r.Rank, i+1))
		}
		if r.Score < -scoreTolerance || r.Score > 1+scoreTolerance || math.IsNaN(r.Score) {
			out = append(out, fmt.Sprintf("row %d (%s): score %v outside [0,1]", i, r.ID, r.Score))
		}
		if _, dup := seen[r.ID]; dup {
			out = append(out, fmt.Sprintf("row %d: duplicate id %s", i, r.ID))
		}
		seen[r.ID] = struct{}{}
		if r.TotalRequired == 0 {
			out = append(out, fmt.Sprintf("row %d (%s): no required technology", i, r.ID))
		}
		if r.MatchedRequired > r.TotalRequired {
			out = append(out, fmt.Sprintf("row %d (%s): matched %d of %d required", i, r.ID, r.MatchedRequired, r.TotalRequired))
		}
		if want := r.MatchedRequired == r.TotalRequired; r.FullyQualified != want {
			out = append(out, fmt.Sprintf("row %d (%s): fullyQualified=%v with %d/%d required", i, r.ID, r.FullyQualified, r.MatchedRequired, r.TotalRequired))
		}
		if i > 0 && scoring.Less(ranked(r), ranked(rows[i-1])) {
			out = append(out, fmt.Sprintf("row %d (%s) should precede row %d (%s)", i, r.ID, i-1, rows[i-1].ID))
		}
	}
	return out
}

func ranked(r Row) scoring.Ranked {
	return scoring.Ranked{ID: r.ID, Result: scoring.Result{Value: r.Score}, Reputation: r.Reputation}
}
