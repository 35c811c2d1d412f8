package repository_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/techmatch/internal/adapters/repository"
	"github.com/okian/techmatch/internal/domain/catalog"
	"github.com/okian/techmatch/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

type storeFactory struct {
	name string
	open func(t *testing.T, opts ...repository.Option) repository.Store
}

func factories() []storeFactory {
	return []storeFactory{
		{name: "memory", open: func(t *testing.T, opts ...repository.Option) repository.Store {
			return repository.NewMemoryStore(opts...)
		}},
		{name: "sqlite", open: func(t *testing.T, opts ...repository.Option) repository.Store {
			path := filepath.Join(t.TempDir(), "techmatch.db")
			s, err := repository.OpenSQLite(context.Background(), path, opts...)
			if err != nil {
				t.Fatalf("open sqlite: %v", err)
			}
			return s
		}},
	}
}

func TestStore_Contract(t *testing.T) {
	for _, f := range factories() {
		f := f
		Convey("Given a "+f.name+" store", t, func() {
			ctx := context.Background()
			clock := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
			store := f.open(t, repository.WithClock(func() time.Time { return clock }))
			defer store.Close()

			Convey("When inserting the same technology with different casing", func() {
				a, err := store.InsertTech(ctx, "language", "Java")
				So(err, ShouldBeNil)
				b, err := store.InsertTech(ctx, "runtime", "  jAVA ")
				So(err, ShouldBeNil)

				Convey("Then a single entry exists", func() {
					So(b.ID, ShouldEqual, a.ID)
					So(b.Name, ShouldEqual, "Java")
					So(b.Category, ShouldEqual, "language")
					all, err := store.ListTech(ctx)
					So(err, ShouldBeNil)
					So(len(all), ShouldEqual, 1)
				})
			})

			Convey("When looking up unknown subjects", func() {
				_, err := store.FindFreelancer(ctx, "nobody")
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
				_, err = store.FindProject(ctx, "nothing")
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
				_, err = store.FindTechByID(ctx, 42)
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)

				Convey("Then collection lookups return empty, not nil", func() {
					skills, err := store.FindSkillsByFreelancer(ctx, "nobody")
					So(err, ShouldBeNil)
					So(skills, ShouldNotBeNil)
					So(skills.Len(), ShouldEqual, 0)

					reqs, err := store.FindRequirementsByProject(ctx, "nothing")
					So(err, ShouldBeNil)
					So(reqs, ShouldNotBeNil)
					So(len(reqs), ShouldEqual, 0)

					reviews, err := store.FindNonDeletedReviewsByTarget(ctx, "nobody")
					So(err, ShouldBeNil)
					So(reviews, ShouldNotBeNil)
					So(len(reviews), ShouldEqual, 0)
				})
			})

			Convey("When authoring a freelancer profile", func() {
				java, _ := store.InsertTech(ctx, "language", "Java")
				docker, _ := store.InsertTech(ctx, "tool", "Docker")
				So(store.UpsertFreelancer(ctx, model.Freelancer{ID: "f-2", Name: "Bo", Available: false}), ShouldBeNil)
				So(store.UpsertFreelancer(ctx, model.Freelancer{ID: "f-1", Name: "Ada", Available: true}), ShouldBeNil)
				So(store.AddSkill(ctx, "f-1", java.ID), ShouldBeNil)
				So(store.AddSkill(ctx, "f-1", docker.ID), ShouldBeNil)
				So(store.AddSkill(ctx, "f-1", docker.ID), ShouldBeNil)

				Convey("Then skills are a set", func() {
					skills, err := store.FindSkillsByFreelancer(ctx, "f-1")
					So(err, ShouldBeNil)
					So(skills.IDs(), ShouldResemble, []model.TechID{java.ID, docker.ID})
				})

				Convey("And removing a skill shrinks the set", func() {
					So(store.RemoveSkill(ctx, "f-1", java.ID), ShouldBeNil)
					skills, _ := store.FindSkillsByFreelancer(ctx, "f-1")
					So(skills.Has(java.ID), ShouldBeFalse)
				})

				Convey("And orphan skills are rejected", func() {
					err := store.AddSkill(ctx, "f-1", 999)
					So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
				})

				Convey("And only available freelancers are listed", func() {
					ids, err := store.FindAvailableFreelancers(ctx)
					So(err, ShouldBeNil)
					So(ids, ShouldResemble, []string{"f-1"})

					So(store.SetAvailability(ctx, "f-2", true), ShouldBeNil)
					ids, _ = store.FindAvailableFreelancers(ctx)
					So(ids, ShouldResemble, []string{"f-1", "f-2"})
				})

				Convey("And audit timestamps come from the clock", func() {
					f, err := store.FindFreelancer(ctx, "f-1")
					So(err, ShouldBeNil)
					So(f.CreatedAt.Equal(clock), ShouldBeTrue)
					So(f.ModifiedAt.Equal(clock), ShouldBeTrue)
				})
			})

			Convey("When authoring project requirements", func() {
				java, _ := store.InsertTech(ctx, "language", "Java")
				react, _ := store.InsertTech(ctx, "framework", "React")
				So(store.UpsertProject(ctx, model.Project{ID: "p-1", OwnerID: "o-1", Title: "API"}), ShouldBeNil)
				So(store.SetRequirement(ctx, "p-1", java.ID, true), ShouldBeNil)
				So(store.SetRequirement(ctx, "p-1", react.ID, false), ShouldBeNil)

				Convey("Then the requirement set reflects the flags", func() {
					reqs, err := store.FindRequirementsByProject(ctx, "p-1")
					So(err, ShouldBeNil)
					So(reqs.Required(), ShouldResemble, []model.TechID{java.ID})
					So(reqs.Optional(), ShouldResemble, []model.TechID{react.ID})
				})

				Convey("And re-setting a technology replaces its flag", func() {
					So(store.SetRequirement(ctx, "p-1", react.ID, true), ShouldBeNil)
					reqs, _ := store.FindRequirementsByProject(ctx, "p-1")
					So(len(reqs), ShouldEqual, 2)
					So(reqs[react.ID], ShouldBeTrue)
				})

				Convey("And requirements freeze once the project leaves the open state", func() {
					So(store.UpsertProject(ctx, model.Project{ID: "p-1", OwnerID: "o-1", Status: model.ProjectInProgress}), ShouldBeNil)
					err := store.SetRequirement(ctx, "p-1", java.ID, false)
					So(errors.Is(err, repository.ErrFrozen), ShouldBeTrue)
					err = store.RemoveRequirement(ctx, "p-1", java.ID)
					So(errors.Is(err, repository.ErrFrozen), ShouldBeTrue)

					reqs, _ := store.FindRequirementsByProject(ctx, "p-1")
					So(reqs[java.ID], ShouldBeTrue)
				})

				Convey("And unknown statuses are rejected", func() {
					err := store.UpsertProject(ctx, model.Project{ID: "p-2", Status: "archived"})
					So(errors.Is(err, repository.ErrInvalidInput), ShouldBeTrue)
				})
			})

			Convey("When writing reviews", func() {
				r1, err := store.AddReview(ctx, model.Review{AuthorID: "o-1", TargetID: "f-1", Rating: 4})
				So(err, ShouldBeNil)
				So(r1.ID, ShouldNotBeEmpty)
				_, err = store.AddReview(ctx, model.Review{AuthorID: "o-2", TargetID: "f-1", Rating: 2})
				So(err, ShouldBeNil)

				Convey("Then out-of-range ratings are rejected", func() {
					_, err := store.AddReview(ctx, model.Review{AuthorID: "o-1", TargetID: "f-1", Rating: 6})
					So(errors.Is(err, repository.ErrInvalidRating), ShouldBeTrue)
				})

				Convey("And self reviews are rejected", func() {
					_, err := store.AddReview(ctx, model.Review{AuthorID: "f-1", TargetID: "f-1", Rating: 5})
					So(errors.Is(err, repository.ErrInvalidInput), ShouldBeTrue)
				})

				Convey("And deletion is a tombstone", func() {
					So(store.DeleteReview(ctx, r1.ID), ShouldBeNil)

					live, err := store.FindNonDeletedReviewsByTarget(ctx, "f-1")
					So(err, ShouldBeNil)
					So(len(live), ShouldEqual, 1)
					So(live[0].Rating, ShouldEqual, 2)

					stored, err := store.FindReview(ctx, r1.ID)
					So(err, ShouldBeNil)
					So(stored.Deleted(), ShouldBeTrue)
					So(stored.DeletedAt, ShouldNotBeNil)
					So(stored.DeletedAt.Equal(clock), ShouldBeTrue)

					So(store.DeleteReview(ctx, r1.ID), ShouldBeNil)
				})

				Convey("And deleting an unknown review fails", func() {
					So(errors.Is(store.DeleteReview(ctx, "missing"), repository.ErrNotFound), ShouldBeTrue)
				})
			})

			Convey("When saving notifications", func() {
				So(store.SaveNotification(ctx, model.Notification{RecipientID: "o-1", EventID: "e-1", SubjectID: "p-1", CounterpartID: "f-1", Score: 0.9}), ShouldBeNil)
				So(store.SaveNotification(ctx, model.Notification{RecipientID: "o-1", EventID: "e-2", SubjectID: "p-1", CounterpartID: "f-2", Score: 0.8}), ShouldBeNil)

				Convey("Then they are listed per recipient in insertion order", func() {
					notes, err := store.ListNotifications(ctx, "o-1")
					So(err, ShouldBeNil)
					So(len(notes), ShouldEqual, 2)
					So(notes[0].EventID, ShouldEqual, "e-1")
					So(notes[1].EventID, ShouldEqual, "e-2")
					So(notes[0].ID, ShouldNotBeEmpty)

					other, err := store.ListNotifications(ctx, "o-2")
					So(err, ShouldBeNil)
					So(len(other), ShouldEqual, 0)
				})
			})
		})
	}
}

func TestLoadFixture(t *testing.T) {
	Convey("Given a YAML fixture", t, func() {
		ctx := context.Background()
		path := filepath.Join(t.TempDir(), "seed.yaml")
		content := `
technologies:
  - {category: language, name: Java}
  - {category: tool, name: Docker}
freelancers:
  - {id: f-a, name: A, available: true, skills: [Java, docker]}
projects:
  - id: p-1
    owner: o-1
    title: Backend
    status: in_progress
    requirements:
      - {tech: Java, required: true}
      - {tech: Docker, required: false}
reviews:
  - {author: o-1, target: f-a, rating: 4}
  - {author: o-2, target: f-a, rating: 5, deleted: true}
`
		So(os.WriteFile(path, []byte(content), 0o600), ShouldBeNil)

		Convey("When it is loaded into a store", func() {
			store := repository.NewMemoryStore()
			err := repository.LoadFixture(ctx, store, nil, path)
			So(err, ShouldBeNil)

			Convey("Then profiles, frozen requirements and tombstones are seeded", func() {
				skills, _ := store.FindSkillsByFreelancer(ctx, "f-a")
				So(skills.Len(), ShouldEqual, 2)

				p, err := store.FindProject(ctx, "p-1")
				So(err, ShouldBeNil)
				So(p.Status, ShouldEqual, model.ProjectInProgress)
				reqs, _ := store.FindRequirementsByProject(ctx, "p-1")
				So(len(reqs.Required()), ShouldEqual, 1)
				So(len(reqs.Optional()), ShouldEqual, 1)

				reviews, _ := store.FindNonDeletedReviewsByTarget(ctx, "f-a")
				So(len(reviews), ShouldEqual, 1)
			})
		})

		Convey("When a skill and a requirement reference undeclared technologies", func() {
			lazy := filepath.Join(t.TempDir(), "lazy.yaml")
			content := `
freelancers:
  - {id: f-x, available: true, skills: [Rust]}
projects:
  - id: p-x
    owner: o-1
    requirements:
      - {tech: Kubernetes, category: platform, required: true}
`
			So(os.WriteFile(lazy, []byte(content), 0o600), ShouldBeNil)
			store := repository.NewMemoryStore()
			cat := catalog.New(store)
			err := repository.LoadFixture(ctx, store, cat, lazy)
			So(err, ShouldBeNil)

			Convey("Then the catalog creates them on first reference", func() {
				rust, err := store.FindTechByName(ctx, "rust")
				So(err, ShouldBeNil)
				So(rust.Category, ShouldEqual, "")
				k8s, err := store.FindTechByName(ctx, "Kubernetes")
				So(err, ShouldBeNil)
				So(k8s.Category, ShouldEqual, "platform")
				So(cat.Size(), ShouldEqual, 2)

				skills, _ := store.FindSkillsByFreelancer(ctx, "f-x")
				So(skills.Has(rust.ID), ShouldBeTrue)
				reqs, _ := store.FindRequirementsByProject(ctx, "p-x")
				So(reqs.Required(), ShouldResemble, []model.TechID{k8s.ID})
			})
		})

		Convey("When a skill name is blank", func() {
			bad := filepath.Join(t.TempDir(), "bad.yaml")
			So(os.WriteFile(bad, []byte("freelancers:\n  - {id: f-x, skills: [\"  \"]}\n"), 0o600), ShouldBeNil)
			store := repository.NewMemoryStore()
			err := repository.LoadFixture(ctx, store, catalog.New(store), bad)

			Convey("Then loading fails with invalid name", func() {
				So(errors.Is(err, catalog.ErrInvalidName), ShouldBeTrue)
			})
		})
	})
}

func TestLoadFixture_Reload(t *testing.T) {
	Convey("Given a fixture loaded into a sqlite file", t, func() {
		ctx := context.Background()
		dir := t.TempDir()
		seed := filepath.Join(dir, "seed.yaml")
		db := filepath.Join(dir, "techmatch.db")
		content := `
technologies:
  - {category: language, name: Java}
freelancers:
  - {id: f-a, name: A, available: true, skills: [Java]}
projects:
  - id: p-1
    owner: o-1
    status: in_progress
    requirements:
      - {tech: Java, required: true}
reviews:
  - {id: r-1, author: o-1, target: f-a, rating: 4}
  - {author: o-2, target: f-a, rating: 2}
  - {id: r-3, author: o-3, target: f-a, rating: 5, deleted: true}
`
		So(os.WriteFile(seed, []byte(content), 0o600), ShouldBeNil)

		load := func() error {
			store, err := repository.OpenSQLite(ctx, db)
			if err != nil {
				return err
			}
			defer store.Close()
			return repository.LoadFixture(ctx, store, catalog.New(store), seed)
		}
		So(load(), ShouldBeNil)

		Convey("When the same fixture is loaded again", func() {
			err := load()

			Convey("Then nothing is duplicated and frozen projects stay frozen", func() {
				So(err, ShouldBeNil)

				store, err := repository.OpenSQLite(ctx, db)
				So(err, ShouldBeNil)
				defer store.Close()

				reviews, err := store.FindNonDeletedReviewsByTarget(ctx, "f-a")
				So(err, ShouldBeNil)
				So(len(reviews), ShouldEqual, 2)
				generated, err := store.FindReview(ctx, "seed-review-2")
				So(err, ShouldBeNil)
				So(generated.Rating, ShouldEqual, 2)
				deleted, err := store.FindReview(ctx, "r-3")
				So(err, ShouldBeNil)
				So(deleted.Deleted(), ShouldBeTrue)

				p, err := store.FindProject(ctx, "p-1")
				So(err, ShouldBeNil)
				So(p.Status, ShouldEqual, model.ProjectInProgress)
				techs, _ := store.ListTech(ctx)
				So(len(techs), ShouldEqual, 1)
			})
		})

		Convey("When the fixture is applied twice to a memory store", func() {
			fx, err := repository.ReadFixture(seed)
			So(err, ShouldBeNil)
			store := repository.NewMemoryStore()
			So(fx.Apply(ctx, store, nil), ShouldBeNil)

			Convey("Then the second pass is a no-op", func() {
				So(fx.Apply(ctx, store, nil), ShouldBeNil)
				reviews, _ := store.FindNonDeletedReviewsByTarget(ctx, "f-a")
				So(len(reviews), ShouldEqual, 2)
			})
		})
	})
}
