package profile_test

import (
	"context"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/techmatch/internal/adapters/repository"
	"github.com/okian/techmatch/internal/domain/model"
	"github.com/okian/techmatch/internal/domain/profile"
)

func TestIndex(t *testing.T) {
	Convey("Given a store with one freelancer and one project", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore()
		java, err := store.InsertTech(ctx, "language", "Java")
		So(err, ShouldBeNil)
		docker, err := store.InsertTech(ctx, "tool", "Docker")
		So(err, ShouldBeNil)

		So(store.UpsertFreelancer(ctx, model.Freelancer{ID: "f1", Name: "Ada", Available: true}), ShouldBeNil)
		So(store.AddSkill(ctx, "f1", java.ID), ShouldBeNil)
		So(store.UpsertProject(ctx, model.Project{ID: "p1", OwnerID: "o1", Title: "API", Status: model.ProjectOpen}), ShouldBeNil)
		So(store.SetRequirement(ctx, "p1", java.ID, true), ShouldBeNil)
		So(store.SetRequirement(ctx, "p1", docker.ID, false), ShouldBeNil)

		idx := profile.NewIndex(store)

		Convey("When reading skills and requirements", func() {
			skills, err1 := idx.SkillsOf(ctx, "f1")
			reqs, err2 := idx.RequirementsOf(ctx, "p1")

			Convey("Then the declared sets come back", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(skills.IDs(), ShouldResemble, []model.TechID{java.ID})
				So(reqs.Required(), ShouldResemble, []model.TechID{java.ID})
				So(reqs.Optional(), ShouldResemble, []model.TechID{docker.ID})
			})
		})

		Convey("When a freelancer declared nothing", func() {
			So(store.UpsertFreelancer(ctx, model.Freelancer{ID: "f2", Name: "Bob"}), ShouldBeNil)
			skills, err := idx.SkillsOf(ctx, "f2")

			Convey("Then the set is empty, not an error", func() {
				So(err, ShouldBeNil)
				So(skills, ShouldNotBeNil)
				So(skills.Len(), ShouldEqual, 0)
			})
		})

		Convey("When availability flips", func() {
			before, _ := idx.Availability(ctx, "f1")
			So(store.SetAvailability(ctx, "f1", false), ShouldBeNil)
			after, _ := idx.Availability(ctx, "f1")

			Convey("Then the next read sees the change", func() {
				So(before, ShouldBeTrue)
				So(after, ShouldBeFalse)
			})
		})

		Convey("When looking up unknown entities", func() {
			_, errF := idx.Freelancer(ctx, "nobody")
			_, errP := idx.Project(ctx, "nothing")
			_, errA := idx.Availability(ctx, "nobody")

			Convey("Then not found is reported", func() {
				So(errors.Is(errF, profile.ErrNotFound), ShouldBeTrue)
				So(errors.Is(errP, profile.ErrNotFound), ShouldBeTrue)
				So(errors.Is(errA, profile.ErrNotFound), ShouldBeTrue)
			})
		})
	})
}
