package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/techmatch/internal/domain/model"
)

// MemoryStore implements Store in process memory. Reads return copies so
// callers never share state with the store.
type MemoryStore struct {
	mu  sync.RWMutex
	cfg settings

	nextTech    model.TechID
	techByID    map[model.TechID]model.TechEntry
	techByName  map[string]model.TechID
	freelancers map[string]model.Freelancer
	skills      map[string]model.SkillSet
	projects    map[string]model.Project
	reqs        map[string]model.RequirementSet
	reviews     map[string]model.Review
	notes       map[string][]model.Notification
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	cfg := defaultSettings()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &MemoryStore{
		cfg:         cfg,
		techByID:    make(map[model.TechID]model.TechEntry),
		techByName:  make(map[string]model.TechID),
		freelancers: make(map[string]model.Freelancer),
		skills:      make(map[string]model.SkillSet),
		projects:    make(map[string]model.Project),
		reqs:        make(map[string]model.RequirementSet),
		reviews:     make(map[string]model.Review),
		notes:       make(map[string][]model.Notification),
	}
}

// InsertTech implements TechStore.
func (m *MemoryStore) InsertTech(ctx context.Context, category, name string) (model.TechEntry, error) {
	key := model.NormalizeTechName(name)
	if key == "" {
		return model.TechEntry{}, fmt.Errorf("%w: empty technology name", ErrInvalidInput)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if id, ok := m.techByName[key]; ok {
		return m.techByID[id], nil
	}
	m.nextTech++
	entry := model.TechEntry{
		ID:       m.nextTech,
		Category: strings.TrimSpace(category),
		Name:     strings.TrimSpace(name),
	}
	entry.Touch(m.cfg.now())
	m.techByID[entry.ID] = entry
	m.techByName[key] = entry.ID
	return entry, nil
}

// FindTechByName implements TechStore.
func (m *MemoryStore) FindTechByName(ctx context.Context, name string) (model.TechEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.techByName[model.NormalizeTechName(name)]
	if !ok {
		return model.TechEntry{}, fmt.Errorf("technology %q: %w", name, ErrNotFound)
	}
	return m.techByID[id], nil
}

// FindTechByID implements TechStore.
func (m *MemoryStore) FindTechByID(ctx context.Context, id model.TechID) (model.TechEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.techByID[id]
	if !ok {
		return model.TechEntry{}, fmt.Errorf("technology %d: %w", id, ErrNotFound)
	}
	return entry, nil
}

// ListTech implements TechStore.
func (m *MemoryStore) ListTech(ctx context.Context) ([]model.TechEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.TechEntry, 0, len(m.techByID))
	for _, e := range m.techByID {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// FindFreelancer implements ProfileStore.
func (m *MemoryStore) FindFreelancer(ctx context.Context, id string) (model.Freelancer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.freelancers[id]
	if !ok {
		return model.Freelancer{}, fmt.Errorf("freelancer %s: %w", id, ErrNotFound)
	}
	return f, nil
}

// FindProject implements ProfileStore.
func (m *MemoryStore) FindProject(ctx context.Context, id string) (model.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.projects[id]
	if !ok {
		return model.Project{}, fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	return p, nil
}

// FindSkillsByFreelancer implements ProfileStore.
func (m *MemoryStore) FindSkillsByFreelancer(ctx context.Context, freelancerID string) (model.SkillSet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	src := m.skills[freelancerID]
	out := make(model.SkillSet, len(src))
	for id := range src {
		out[id] = struct{}{}
	}
	return out, nil
}

// FindRequirementsByProject implements ProfileStore.
func (m *MemoryStore) FindRequirementsByProject(ctx context.Context, projectID string) (model.RequirementSet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	src := m.reqs[projectID]
	out := make(model.RequirementSet, len(src))
	for id, required := range src {
		out[id] = required
	}
	return out, nil
}

// FindAvailableFreelancers implements ProfileStore.
func (m *MemoryStore) FindAvailableFreelancers(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.freelancers))
	for id, f := range m.freelancers {
		if f.Available {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out, nil
}

// UpsertFreelancer implements ProfileStore.
func (m *MemoryStore) UpsertFreelancer(ctx context.Context, f model.Freelancer) error {
	if strings.TrimSpace(f.ID) == "" {
		return fmt.Errorf("%w: empty freelancer id", ErrInvalidInput)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if prev, ok := m.freelancers[f.ID]; ok {
		f.Audit = prev.Audit
	}
	f.Touch(m.cfg.now())
	m.freelancers[f.ID] = f
	return nil
}

// SetAvailability implements ProfileStore.
func (m *MemoryStore) SetAvailability(ctx context.Context, freelancerID string, available bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.freelancers[freelancerID]
	if !ok {
		return fmt.Errorf("freelancer %s: %w", freelancerID, ErrNotFound)
	}
	f.Available = available
	f.Touch(m.cfg.now())
	m.freelancers[freelancerID] = f
	return nil
}

// AddSkill implements ProfileStore.
func (m *MemoryStore) AddSkill(ctx context.Context, freelancerID string, techID model.TechID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.freelancers[freelancerID]; !ok {
		return fmt.Errorf("freelancer %s: %w", freelancerID, ErrNotFound)
	}
	if _, ok := m.techByID[techID]; !ok {
		return fmt.Errorf("technology %d: %w", techID, ErrNotFound)
	}
	set, ok := m.skills[freelancerID]
	if !ok {
		set = model.NewSkillSet()
		m.skills[freelancerID] = set
	}
	set[techID] = struct{}{}
	return nil
}

// RemoveSkill implements ProfileStore.
func (m *MemoryStore) RemoveSkill(ctx context.Context, freelancerID string, techID model.TechID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.freelancers[freelancerID]; !ok {
		return fmt.Errorf("freelancer %s: %w", freelancerID, ErrNotFound)
	}
	delete(m.skills[freelancerID], techID)
	return nil
}

// UpsertProject implements ProfileStore.
func (m *MemoryStore) UpsertProject(ctx context.Context, p model.Project) error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("%w: empty project id", ErrInvalidInput)
	}
	if p.Status == "" {
		p.Status = model.ProjectOpen
	}
	if !p.Status.Valid() {
		return fmt.Errorf("%w: project status %q", ErrInvalidInput, p.Status)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if prev, ok := m.projects[p.ID]; ok {
		p.Audit = prev.Audit
	}
	p.Touch(m.cfg.now())
	m.projects[p.ID] = p
	return nil
}

// SetRequirement implements ProfileStore.
func (m *MemoryStore) SetRequirement(ctx context.Context, projectID string, techID model.TechID, required bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	reqs, err := m.editableRequirements(projectID)
	if err != nil {
		return err
	}
	if _, ok := m.techByID[techID]; !ok {
		return fmt.Errorf("technology %d: %w", techID, ErrNotFound)
	}
	reqs[techID] = required
	return nil
}

// RemoveRequirement implements ProfileStore.
func (m *MemoryStore) RemoveRequirement(ctx context.Context, projectID string, techID model.TechID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	reqs, err := m.editableRequirements(projectID)
	if err != nil {
		return err
	}
	delete(reqs, techID)
	return nil
}

// editableRequirements must be called with m.mu held.
func (m *MemoryStore) editableRequirements(projectID string) (model.RequirementSet, error) {
	p, ok := m.projects[projectID]
	if !ok {
		return nil, fmt.Errorf("project %s: %w", projectID, ErrNotFound)
	}
	if p.Frozen() {
		return nil, fmt.Errorf("project %s (%s): %w", projectID, p.Status, ErrFrozen)
	}
	reqs, ok := m.reqs[projectID]
	if !ok {
		reqs = model.RequirementSet{}
		m.reqs[projectID] = reqs
	}
	return reqs, nil
}

// AddReview implements ReviewStore.
func (m *MemoryStore) AddReview(ctx context.Context, r model.Review) (model.Review, error) {
	if err := validateReview(r); err != nil {
		return model.Review{}, err
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	r.Status = model.ReviewActive
	r.DeletedAt = nil
	r.Audit = model.Audit{}
	r.Touch(m.cfg.now())

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.reviews[r.ID]; exists {
		return model.Review{}, fmt.Errorf("%w: review %s already exists", ErrInvalidInput, r.ID)
	}
	m.reviews[r.ID] = r
	return r, nil
}

// FindReview implements ReviewStore.
func (m *MemoryStore) FindReview(ctx context.Context, id string) (model.Review, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.reviews[id]
	if !ok {
		return model.Review{}, fmt.Errorf("review %s: %w", id, ErrNotFound)
	}
	return r, nil
}

// DeleteReview implements ReviewStore. Deleting twice keeps the first timestamp.
func (m *MemoryStore) DeleteReview(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reviews[id]
	if !ok {
		return fmt.Errorf("review %s: %w", id, ErrNotFound)
	}
	if r.Deleted() {
		return nil
	}
	now := m.cfg.now()
	r.Status = model.ReviewDeleted
	r.DeletedAt = &now
	r.Touch(now)
	m.reviews[id] = r
	return nil
}

// FindNonDeletedReviewsByTarget implements ReviewStore.
func (m *MemoryStore) FindNonDeletedReviewsByTarget(ctx context.Context, targetID string) ([]model.Review, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Review, 0)
	for _, r := range m.reviews {
		if r.TargetID == targetID && !r.Deleted() {
			out = append(out, r)
		}
	}
	sortReviews(out)
	return out, nil
}

// SaveNotification implements NotificationStore.
func (m *MemoryStore) SaveNotification(ctx context.Context, n model.Notification) error {
	if n.RecipientID == "" {
		return fmt.Errorf("%w: empty recipient", ErrInvalidInput)
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	n.CreatedAt = timeOrNow(n.CreatedAt, m.cfg.now)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notes[n.RecipientID] = append(m.notes[n.RecipientID], n)
	return nil
}

// ListNotifications implements NotificationStore.
func (m *MemoryStore) ListNotifications(ctx context.Context, recipientID string) ([]model.Notification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	src := m.notes[recipientID]
	out := make([]model.Notification, len(src))
	copy(out, src)
	return out, nil
}

// Close implements Store.
func (m *MemoryStore) Close() error { return nil }

func validateReview(r model.Review) error {
	switch {
	case strings.TrimSpace(r.AuthorID) == "":
		return fmt.Errorf("%w: empty review author", ErrInvalidInput)
	case strings.TrimSpace(r.TargetID) == "":
		return fmt.Errorf("%w: empty review target", ErrInvalidInput)
	case r.AuthorID == r.TargetID:
		return fmt.Errorf("%w: review author and target are the same party", ErrInvalidInput)
	case !model.ValidRating(r.Rating):
		return fmt.Errorf("%w: %d not in [%d,%d]", ErrInvalidRating, r.Rating, model.MinRating, model.MaxRating)
	}
	return nil
}

func sortReviews(rs []model.Review) {
	sort.Slice(rs, func(i, j int) bool {
		if !rs[i].CreatedAt.Equal(rs[j].CreatedAt) {
			return rs[i].CreatedAt.Before(rs[j].CreatedAt)
		}
		return rs[i].ID < rs[j].ID
	})
}

// timeOrNow is shared by the stores for caller-supplied timestamps.
func timeOrNow(t time.Time, now func() time.Time) time.Time {
	if t.IsZero() {
		return now()
	}
	return t
}
