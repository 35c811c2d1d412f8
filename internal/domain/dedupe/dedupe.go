// Package dedupe suppresses repeat match notifications.
package dedupe

import (
	"container/list"
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/okian/techmatch/internal/domain/model"
)

// Default suppression settings.
const (
	DefaultMaxSize     = 50_000
	DefaultBucketWidth = 0.05
)

// Deduper remembers which notifications went out recently.
type Deduper interface {
	// SeenAndRecord reports whether key is already remembered and records it
	// when it is not. Check and record happen atomically.
	SeenAndRecord(ctx context.Context, key string) bool

	// Forget drops key so a later delivery attempt is not suppressed. Used
	// when a recorded notification ends up undelivered.
	Forget(ctx context.Context, key string)

	Size() int
}

type entry struct {
	key  string
	seen time.Time
}

// inMemoryDeduper keeps keys in insertion order; the oldest key is evicted
// once maxSize is reached. maxSize <= 0 disables eviction.
type inMemoryDeduper struct {
	mu      sync.Mutex
	order   *list.List
	index   map[string]*list.Element
	maxSize int
	window  time.Duration
	now     func() time.Time
}

// NewInMemoryDeduper creates a Deduper held in process memory.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		order:   list.New(),
		index:   make(map[string]*list.Element),
		maxSize: DefaultMaxSize,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if el, ok := d.index[key]; ok {
		e := el.Value.(*entry)
		if d.window <= 0 || now.Sub(e.seen) < d.window {
			return true
		}
		// Expired: record afresh at the back of the order.
		d.order.Remove(el)
		delete(d.index, key)
	}

	if d.maxSize > 0 {
		for d.order.Len() >= d.maxSize {
			d.evictOldest()
		}
	}
	d.index[key] = d.order.PushBack(&entry{key: key, seen: now})
	return false
}

func (d *inMemoryDeduper) Forget(_ context.Context, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if el, ok := d.index[key]; ok {
		d.order.Remove(el)
		delete(d.index, key)
	}
}

func (d *inMemoryDeduper) Size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.order.Len()
}

// evictOldest must be called with d.mu held.
func (d *inMemoryDeduper) evictOldest() {
	front := d.order.Front()
	if front == nil {
		return
	}
	d.order.Remove(front)
	delete(d.index, front.Value.(*entry).key)
}

// EventKey identifies a match notification by its two parties and a coarse
// score bucket, so re-running the same ranking does not notify twice while
// a material score change does.
func EventKey(ev model.MatchEvent, bucketWidth float64) string {
	if bucketWidth <= 0 {
		bucketWidth = DefaultBucketWidth
	}
	bucket := int(math.Floor(ev.Score/bucketWidth + 1e-9))
	return fmt.Sprintf("%s|%s|%d", ev.SubjectID, ev.CounterpartID, bucket)
}
