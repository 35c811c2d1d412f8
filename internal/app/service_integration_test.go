package service_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/techmatch/internal/adapters/http/api"
	service "github.com/okian/techmatch/internal/app"
	"github.com/okian/techmatch/internal/domain/model"
	"github.com/okian/techmatch/internal/domain/types"
)

const seedYAML = `
technologies:
  - {category: language, name: Java}
  - {category: framework, name: React}
  - {category: tooling, name: Docker}
freelancers:
  - {id: A, name: Ada, available: true, skills: [Java, React]}
  - {id: B, name: Bo, available: true, skills: [Java]}
  - {id: C, name: Cy, available: true, skills: [React]}
  - {id: D, name: Di, available: false, skills: [Java, React]}
projects:
  - id: p1
    owner: o1
    title: Storefront
    requirements:
      - {tech: Java, required: true}
      - {tech: React, required: false}
  - id: p2
    owner: o1
    title: Archived
    status: closed
    requirements:
      - {tech: Java, required: true}
reviews:
  - {id: r1, author: o1, target: A, rating: 4}
  - {id: r2, author: o2, target: A, rating: 2}
  - {id: r3, author: o3, target: A, rating: 5, deleted: true}
`

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

func TestServiceIntegration(t *testing.T) {
	Convey("Given a service backed by SQLite and a seed fixture", t, func() {
		dir := t.TempDir()
		seed := filepath.Join(dir, "seed.yaml")
		So(os.WriteFile(seed, []byte(seedYAML), 0o600), ShouldBeNil)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		svc := service.New(
			service.WithDatabasePath(filepath.Join(dir, "techmatch.db")),
			service.WithSeedFile(seed),
			service.WithDispatcherCount(2),
			service.WithDispatchRetry(2, time.Millisecond),
		)
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		mux := http.NewServeMux()
		api.NewServer(svc, svc).Register(ctx, mux)
		srv := httptest.NewServer(mux)
		defer srv.Close()

		get := func(path string, out any) int {
			resp, err := http.Get(srv.URL + path)
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			if out != nil && resp.StatusCode == http.StatusOK {
				So(json.NewDecoder(resp.Body).Decode(out), ShouldBeNil)
			}
			return resp.StatusCode
		}

		Convey("When ranking freelancers for p1 over HTTP", func() {
			var rows []types.FreelancerMatch
			status := get("/matches/projects/p1/freelancers", &rows)

			Convey("Then available freelancers are ranked by score", func() {
				So(status, ShouldEqual, http.StatusOK)
				So(len(rows), ShouldEqual, 3)
				So(rows[0].FreelancerID, ShouldEqual, "A")
				So(rows[0].Reputation, ShouldEqual, 3.0)
				So(rows[1].FreelancerID, ShouldEqual, "B")
				So(rows[2].FreelancerID, ShouldEqual, "C")
				So(rows[2].FullyQualified, ShouldBeFalse)
			})

			Convey("Then qualifying freelancers are notified", func() {
				var notes []model.Notification
				So(waitFor(func() bool {
					notes = nil
					return get("/notifications/B", &notes) == http.StatusOK && len(notes) == 1
				}), ShouldBeTrue)
				So(notes[0].SubjectID, ShouldEqual, "p1")
				So(notes[0].Score, ShouldAlmostEqual, 0.8, 1e-9)
			})
		})

		Convey("When ranking projects for A", func() {
			var rows []types.ProjectMatch
			status := get("/matches/freelancers/A/projects?candidates=p1,p2", &rows)

			Convey("Then only open projects are ranked", func() {
				So(status, ShouldEqual, http.StatusOK)
				So(len(rows), ShouldEqual, 1)
				So(rows[0].ProjectID, ShouldEqual, "p1")
				So(rows[0].Score, ShouldAlmostEqual, 1.0, 1e-9)
			})
		})

		Convey("When ranking for an unavailable freelancer", func() {
			var rows []types.ProjectMatch
			status := get("/matches/freelancers/D/projects?candidates=p1", &rows)

			Convey("Then the list is empty", func() {
				So(status, ShouldEqual, http.StatusOK)
				So(len(rows), ShouldEqual, 0)
			})
		})

		Convey("When a reputation is requested", func() {
			var rep types.Reputation
			status := get("/freelancers/A/reputation", &rep)

			Convey("Then deleted reviews are ignored", func() {
				So(status, ShouldEqual, http.StatusOK)
				So(rep.Mean, ShouldEqual, 3.0)
				So(rep.Count, ShouldEqual, 2)
			})
		})

		Convey("When unknown subjects are requested", func() {
			Convey("Then the API answers 404", func() {
				So(get("/freelancers/ghost/reputation", nil), ShouldEqual, http.StatusNotFound)
				So(get("/matches/projects/ghost/freelancers?candidates=A", nil), ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When the catalog is searched", func() {
			var entries []model.TechEntry
			status := get("/catalog/search?q=CK", &entries)

			Convey("Then the seeded technologies are found", func() {
				So(status, ShouldEqual, http.StatusOK)
				So(len(entries), ShouldEqual, 1)
				So(entries[0].Name, ShouldEqual, "Docker")
			})
		})
	})
}
