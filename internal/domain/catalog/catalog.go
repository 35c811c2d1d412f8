// Package catalog holds the canonical technology identities every skill and
// requirement points at. Entries are created lazily and never deleted.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/okian/techmatch/internal/domain/model"
	"github.com/okian/techmatch/pkg/logger"
	"github.com/okian/techmatch/pkg/metrics"
)

// Store is the persistence surface the catalog needs.
type Store interface {
	InsertTech(ctx context.Context, category, name string) (model.TechEntry, error)
	FindTechByID(ctx context.Context, id model.TechID) (model.TechEntry, error)
	ListTech(ctx context.Context) ([]model.TechEntry, error)
}

// Catalog resolves names to entries. Entries are immutable, so resolved ones
// are memoized for the life of the process.
type Catalog struct {
	store Store
	log   logger.Logger

	mu     sync.RWMutex
	byName map[string]model.TechEntry
	byID   map[model.TechID]model.TechEntry
}

// New creates a Catalog backed by store.
func New(store Store, opts ...Option) *Catalog {
	c := &Catalog{
		store:  store,
		log:    logger.Nop(),
		byName: make(map[string]model.TechEntry),
		byID:   make(map[model.TechID]model.TechEntry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Resolve returns the entry named name, creating it under category when it
// does not exist yet. Names compare case-insensitively, so "Java" and "java"
// resolve to the same entry and repeated calls return the same id.
func (c *Catalog) Resolve(ctx context.Context, category, name string) (model.TechEntry, error) {
	key := model.NormalizeTechName(name)
	if key == "" {
		return model.TechEntry{}, ErrInvalidName
	}
	if e, ok := c.cachedByName(key); ok {
		return e, nil
	}

	e, err := c.store.InsertTech(ctx, strings.TrimSpace(category), strings.TrimSpace(name))
	if err != nil {
		return model.TechEntry{}, fmt.Errorf("%w: resolve %q: %w", ErrDependency, name, err)
	}
	c.remember(e)
	c.log.Debug(ctx, "technology resolved",
		logger.Any("id", e.ID),
		logger.String("name", e.Name),
		logger.String("category", e.Category),
	)
	return e, nil
}

// Get returns the entry with id.
func (c *Catalog) Get(ctx context.Context, id model.TechID) (model.TechEntry, error) {
	c.mu.RLock()
	e, ok := c.byID[id]
	c.mu.RUnlock()
	if ok {
		return e, nil
	}

	e, err := c.store.FindTechByID(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.TechEntry{}, fmt.Errorf("technology %d: %w", id, ErrNotFound)
		}
		return model.TechEntry{}, fmt.Errorf("%w: get %d: %w", ErrDependency, id, err)
	}
	c.remember(e)
	return e, nil
}

// Search returns every entry whose name contains keyword, ignoring case,
// ordered by id. An empty keyword matches everything.
func (c *Catalog) Search(ctx context.Context, keyword string) ([]model.TechEntry, error) {
	all, err := c.store.ListTech(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: search: %w", ErrDependency, err)
	}
	needle := model.NormalizeTechName(keyword)
	out := make([]model.TechEntry, 0, len(all))
	for _, e := range all {
		c.remember(e)
		if strings.Contains(model.NormalizeTechName(e.Name), needle) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Size returns the number of memoized entries.
func (c *Catalog) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byID)
}

func (c *Catalog) cachedByName(key string) (model.TechEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.byName[key]
	return e, ok
}

func (c *Catalog) remember(e model.TechEntry) {
	c.mu.Lock()
	if _, ok := c.byID[e.ID]; !ok {
		c.byID[e.ID] = e
		c.byName[model.NormalizeTechName(e.Name)] = e
	}
	n := len(c.byID)
	c.mu.Unlock()
	metrics.UpdateCatalogEntries(n)
}
