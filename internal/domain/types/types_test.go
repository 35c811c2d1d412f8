package types_test

import (
	"encoding/json"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/techmatch/internal/domain/model"
	"github.com/okian/techmatch/internal/domain/types"
)

func rows() []model.MatchResult {
	return []model.MatchResult{
		{SubjectID: "p1", CounterpartID: "A", Score: 1, MatchedRequired: 1, TotalRequired: 1, MatchedOptional: 1, TotalOptional: 1, FullyQualified: true, Reputation: 4.5},
		{SubjectID: "p1", CounterpartID: "C", Score: 0, MatchedRequired: 0, TotalRequired: 1, MatchedOptional: 1, TotalOptional: 1},
		{SubjectID: "p1", CounterpartID: "B", Score: 0.8, MatchedRequired: 1, TotalRequired: 1, TotalOptional: 1, FullyQualified: true},
	}
}

func TestFreelancerMatches(t *testing.T) {
	Convey("Given ranked rows for a project", t, func() {
		Convey("When converted without a filter", func() {
			out := types.FreelancerMatches(rows(), false)

			Convey("Then order is kept and ranks start at one", func() {
				So(len(out), ShouldEqual, 3)
				So(out[0].Rank, ShouldEqual, 1)
				So(out[0].FreelancerID, ShouldEqual, "A")
				So(out[0].Reputation, ShouldEqual, 4.5)
				So(out[2].Rank, ShouldEqual, 3)
				So(out[2].FreelancerID, ShouldEqual, "B")
			})
		})

		Convey("When only fully qualified rows are requested", func() {
			out := types.FreelancerMatches(rows(), true)

			Convey("Then ranks stay contiguous", func() {
				So(len(out), ShouldEqual, 2)
				So(out[1].FreelancerID, ShouldEqual, "B")
				So(out[1].Rank, ShouldEqual, 2)
			})
		})

		Convey("When there are no rows", func() {
			out := types.FreelancerMatches(nil, false)

			Convey("Then the result encodes as an empty array", func() {
				b, err := json.Marshal(out)
				So(err, ShouldBeNil)
				So(string(b), ShouldEqual, "[]")
			})
		})
	})
}

func TestProjectMatches(t *testing.T) {
	Convey("Given ranked rows for a freelancer", t, func() {
		out := types.ProjectMatches(rows(), false)

		Convey("Then the counterpart becomes the project id", func() {
			So(out[0].ProjectID, ShouldEqual, "A")
			So(out[1].FullyQualified, ShouldBeFalse)
		})

		Convey("Then the wire names follow the API contract", func() {
			b, err := json.Marshal(out[0])
			So(err, ShouldBeNil)
			var m map[string]any
			So(json.Unmarshal(b, &m), ShouldBeNil)
			for _, k := range []string{"projectId", "score", "matchedRequired", "totalRequired", "matchedOptional", "totalOptional", "fullyQualified", "reputation"} {
				_, ok := m[k]
				So(ok, ShouldBeTrue)
			}
		})
	})
}
