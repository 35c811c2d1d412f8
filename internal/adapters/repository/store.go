// Package repository is the persistence collaborator behind the matching
// engine: simple lookups by id and by foreign key, plus the writes needed to
// author profiles, requirements and reviews.
package repository

import (
	"context"

	"github.com/okian/techmatch/internal/domain/model"
)

// TechStore persists catalog entries.
type TechStore interface {
	// InsertTech returns the existing entry when the name is already known
	// (case-insensitively); otherwise it creates one.
	InsertTech(ctx context.Context, category, name string) (model.TechEntry, error)
	FindTechByName(ctx context.Context, name string) (model.TechEntry, error)
	FindTechByID(ctx context.Context, id model.TechID) (model.TechEntry, error)
	// ListTech returns every entry ordered by id.
	ListTech(ctx context.Context) ([]model.TechEntry, error)
}

// ProfileStore persists freelancers, projects, skills and requirements.
type ProfileStore interface {
	FindFreelancer(ctx context.Context, id string) (model.Freelancer, error)
	FindProject(ctx context.Context, id string) (model.Project, error)
	FindSkillsByFreelancer(ctx context.Context, freelancerID string) (model.SkillSet, error)
	FindRequirementsByProject(ctx context.Context, projectID string) (model.RequirementSet, error)
	// FindAvailableFreelancers returns ids in ascending order.
	FindAvailableFreelancers(ctx context.Context) ([]string, error)

	UpsertFreelancer(ctx context.Context, f model.Freelancer) error
	SetAvailability(ctx context.Context, freelancerID string, available bool) error
	AddSkill(ctx context.Context, freelancerID string, techID model.TechID) error
	RemoveSkill(ctx context.Context, freelancerID string, techID model.TechID) error

	UpsertProject(ctx context.Context, p model.Project) error
	// SetRequirement fails with ErrFrozen once the project left the open state.
	SetRequirement(ctx context.Context, projectID string, techID model.TechID, required bool) error
	RemoveRequirement(ctx context.Context, projectID string, techID model.TechID) error
}

// ReviewStore persists reviews. Deletion is a tombstone, never a removal.
type ReviewStore interface {
	AddReview(ctx context.Context, r model.Review) (model.Review, error)
	FindReview(ctx context.Context, id string) (model.Review, error)
	DeleteReview(ctx context.Context, id string) error
	FindNonDeletedReviewsByTarget(ctx context.Context, targetID string) ([]model.Review, error)
}

// NotificationStore persists delivered notifications.
type NotificationStore interface {
	SaveNotification(ctx context.Context, n model.Notification) error
	// ListNotifications returns the recipient's notifications oldest first.
	ListNotifications(ctx context.Context, recipientID string) ([]model.Notification, error)
}

// Store is the full persistence surface.
type Store interface {
	TechStore
	ProfileStore
	ReviewStore
	NotificationStore
	Close() error
}
