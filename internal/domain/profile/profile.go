// Package profile answers which technologies a freelancer declares and which
// a project requires.
package profile

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/techmatch/internal/domain/model"
)

// Store is the read surface the index needs.
type Store interface {
	FindFreelancer(ctx context.Context, id string) (model.Freelancer, error)
	FindProject(ctx context.Context, id string) (model.Project, error)
	FindSkillsByFreelancer(ctx context.Context, freelancerID string) (model.SkillSet, error)
	FindRequirementsByProject(ctx context.Context, projectID string) (model.RequirementSet, error)
}

// Index is a thin, stateless view over Store. It holds no cache so every
// read reflects the latest write.
type Index struct {
	store Store
}

// NewIndex creates an Index over store.
func NewIndex(store Store) *Index {
	return &Index{store: store}
}

// Freelancer returns the freelancer with id.
func (x *Index) Freelancer(ctx context.Context, id string) (model.Freelancer, error) {
	f, err := x.store.FindFreelancer(ctx, id)
	if err != nil {
		return model.Freelancer{}, classify("freelancer", id, err)
	}
	return f, nil
}

// Project returns the project with id.
func (x *Index) Project(ctx context.Context, id string) (model.Project, error) {
	p, err := x.store.FindProject(ctx, id)
	if err != nil {
		return model.Project{}, classify("project", id, err)
	}
	return p, nil
}

// SkillsOf returns the freelancer's declared skills; empty when none.
func (x *Index) SkillsOf(ctx context.Context, freelancerID string) (model.SkillSet, error) {
	s, err := x.store.FindSkillsByFreelancer(ctx, freelancerID)
	if err != nil {
		return nil, classify("skills of", freelancerID, err)
	}
	if s == nil {
		s = model.SkillSet{}
	}
	return s, nil
}

// RequirementsOf returns the project's requirements; empty when none.
func (x *Index) RequirementsOf(ctx context.Context, projectID string) (model.RequirementSet, error) {
	r, err := x.store.FindRequirementsByProject(ctx, projectID)
	if err != nil {
		return nil, classify("requirements of", projectID, err)
	}
	if r == nil {
		r = model.RequirementSet{}
	}
	return r, nil
}

// Availability reports whether the freelancer is open to new work.
func (x *Index) Availability(ctx context.Context, freelancerID string) (bool, error) {
	f, err := x.Freelancer(ctx, freelancerID)
	if err != nil {
		return false, err
	}
	return f.Available, nil
}

func classify(what, id string, err error) error {
	if errors.Is(err, model.ErrNotFound) {
		return fmt.Errorf("%s %s: %w", what, id, ErrNotFound)
	}
	return fmt.Errorf("%w: %s %s: %w", ErrDependency, what, id, err)
}
