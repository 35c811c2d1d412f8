package matchcheck_test

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/techmatch/internal/matchcheck"
)

func row(rank int, id string, score, rep float64, matched, total int) matchcheck.Row {
	return matchcheck.Row{
		Rank: rank, ID: id, Score: score, Reputation: rep,
		MatchedRequired: matched, TotalRequired: total, FullyQualified: matched == total,
	}
}

func TestVerify(t *testing.T) {
	Convey("Given ranking rows", t, func() {
		Convey("When they follow score, reputation and id order", func() {
			rows := []matchcheck.Row{
				row(1, "A", 1.0, 4, 1, 1),
				row(2, "F", 0.8, 5, 1, 1),
				row(3, "B", 0.8, 0, 1, 1),
				row(4, "G", 0.8, 0, 1, 1),
				row(5, "C", 0, 0, 0, 1),
			}

			Convey("Then there are no violations", func() {
				So(matchcheck.Verify(rows), ShouldBeEmpty)
			})
		})

		Convey("When an empty ranking is checked", func() {
			Convey("Then it is valid", func() {
				So(matchcheck.Verify(nil), ShouldBeEmpty)
			})
		})

		Convey("When a tie is broken by id the wrong way", func() {
			rows := []matchcheck.Row{row(1, "G", 0.8, 0, 1, 1), row(2, "B", 0.8, 0, 1, 1)}

			Convey("Then the order violation is reported", func() {
				v := matchcheck.Verify(rows)
				So(len(v), ShouldEqual, 1)
				So(v[0], ShouldContainSubstring, "should precede")
			})
		})

		Convey("When rows are malformed", func() {
			bad := row(3, "A", 1.5, 0, 1, 1)
			lying := row(2, "A", 0.5, 0, 0, 1)
			lying.FullyQualified = true

			Convey("Then each defect is named", func() {
				v := matchcheck.Verify([]matchcheck.Row{bad, lying})
				So(v, ShouldContain, "row 0: rank 3, want 1")
				So(v, ShouldContain, "row 0 (A): score 1.5 outside [0,1]")
				So(v, ShouldContain, "row 1: duplicate id A")
				So(v, ShouldContain, "row 1 (A): fullyQualified=true with 0/1 required")
			})
		})
	})
}
