package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/okian/techmatch/internal/domain/model"
)

// Fixture is the YAML seed format accepted by LoadFixture.
type Fixture struct {
	Technologies []FixtureTech       `koanf:"technologies"`
	Freelancers  []FixtureFreelancer `koanf:"freelancers"`
	Projects     []FixtureProject    `koanf:"projects"`
	Reviews      []FixtureReview     `koanf:"reviews"`
}

// FixtureTech declares a catalog entry.
type FixtureTech struct {
	Category string `koanf:"category"`
	Name     string `koanf:"name"`
}

// FixtureFreelancer declares a freelancer and the technology names they know.
// Unknown names are added to the catalog without a category.
type FixtureFreelancer struct {
	ID        string   `koanf:"id"`
	Name      string   `koanf:"name"`
	Available bool     `koanf:"available"`
	Skills    []string `koanf:"skills"`
}

// FixtureProject declares a project with its requirements.
type FixtureProject struct {
	ID           string               `koanf:"id"`
	Owner        string               `koanf:"owner"`
	Title        string               `koanf:"title"`
	Status       string               `koanf:"status"`
	Requirements []FixtureRequirement `koanf:"requirements"`
}

// FixtureRequirement references a technology by name.
type FixtureRequirement struct {
	Tech     string `koanf:"tech"`
	Category string `koanf:"category"`
	Required bool   `koanf:"required"`
}

// FixtureReview declares a review; Deleted ones are stored as tombstones.
// Give reviews stable ids when the fixture is edited between starts.
type FixtureReview struct {
	ID      string `koanf:"id"`
	Author  string `koanf:"author"`
	Target  string `koanf:"target"`
	Rating  int    `koanf:"rating"`
	Comment string `koanf:"comment"`
	Deleted bool   `koanf:"deleted"`
}

// ReadFixture parses a YAML fixture file.
func ReadFixture(path string) (*Fixture, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var fx Fixture
	if err := k.UnmarshalWithConf("", &fx, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("decode fixture %s: %w", path, err)
	}
	return &fx, nil
}

// TechResolver turns a technology name into its catalog entry, creating the
// entry on first reference.
type TechResolver interface {
	Resolve(ctx context.Context, category, name string) (model.TechEntry, error)
}

type storeResolver struct{ store TechStore }

func (r storeResolver) Resolve(ctx context.Context, category, name string) (model.TechEntry, error) {
	return r.store.InsertTech(ctx, category, name)
}

// LoadFixture reads path and applies it to store. A nil resolver writes
// technologies straight to the store.
func LoadFixture(ctx context.Context, store Store, resolver TechResolver, path string) error {
	fx, err := ReadFixture(path)
	if err != nil {
		return err
	}
	return fx.Apply(ctx, store, resolver)
}

// Apply writes the fixture into store and may run again on every start.
// Technology names are resolved through resolver, so a skill or requirement
// naming an unknown technology creates it. Projects already stored outside
// the open state are left untouched. New projects are written open and moved
// to their declared status after requirements are set. Reviews without an id
// get one from their position, and a review whose id exists is not added
// again.
func (fx *Fixture) Apply(ctx context.Context, store Store, resolver TechResolver) error {
	if resolver == nil {
		resolver = storeResolver{store: store}
	}
	resolve := func(category, name string) (model.TechID, error) {
		e, err := resolver.Resolve(ctx, category, name)
		if err != nil {
			return 0, fmt.Errorf("fixture technology %q: %w", name, err)
		}
		return e.ID, nil
	}

	for _, t := range fx.Technologies {
		if _, err := resolve(t.Category, t.Name); err != nil {
			return err
		}
	}

	for _, f := range fx.Freelancers {
		if err := store.UpsertFreelancer(ctx, model.Freelancer{ID: f.ID, Name: f.Name, Available: f.Available}); err != nil {
			return err
		}
		for _, name := range f.Skills {
			id, err := resolve("", name)
			if err != nil {
				return err
			}
			if err := store.AddSkill(ctx, f.ID, id); err != nil {
				return err
			}
		}
	}

	for _, p := range fx.Projects {
		if err := applyProject(ctx, store, p, resolve); err != nil {
			return err
		}
	}

	for i, r := range fx.Reviews {
		if err := applyReview(ctx, store, i, r); err != nil {
			return err
		}
	}
	return nil
}

func applyProject(ctx context.Context, store Store, p FixtureProject, resolve func(category, name string) (model.TechID, error)) error {
	existing, err := store.FindProject(ctx, p.ID)
	switch {
	case err == nil && existing.Frozen():
		return nil
	case err != nil && !errors.Is(err, ErrNotFound):
		return err
	}

	project := model.Project{ID: p.ID, OwnerID: p.Owner, Title: p.Title, Status: model.ProjectOpen}
	if err := store.UpsertProject(ctx, project); err != nil {
		return err
	}
	for _, r := range p.Requirements {
		id, err := resolve(r.Category, r.Tech)
		if err != nil {
			return err
		}
		if err := store.SetRequirement(ctx, p.ID, id, r.Required); err != nil {
			return err
		}
	}
	if p.Status != "" && model.ProjectStatus(p.Status) != model.ProjectOpen {
		project.Status = model.ProjectStatus(p.Status)
		return store.UpsertProject(ctx, project)
	}
	return nil
}

func applyReview(ctx context.Context, store Store, i int, r FixtureReview) error {
	id := r.ID
	if id == "" {
		id = "seed-review-" + strconv.Itoa(i+1)
	}

	existing, err := store.FindReview(ctx, id)
	switch {
	case errors.Is(err, ErrNotFound):
		existing, err = store.AddReview(ctx, model.Review{
			ID:       id,
			AuthorID: r.Author,
			TargetID: r.Target,
			Rating:   r.Rating,
			Comment:  r.Comment,
		})
		if err != nil {
			return err
		}
	case err != nil:
		return err
	}

	if r.Deleted && !existing.Deleted() {
		return store.DeleteReview(ctx, id)
	}
	return nil
}
