// Package service wires storage, the matching engine and notification
// delivery together and implements the dependencies of the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	eventqueue "github.com/okian/techmatch/internal/adapters/mq/queue"
	workerpool "github.com/okian/techmatch/internal/adapters/mq/worker"
	"github.com/okian/techmatch/internal/adapters/repository"
	"github.com/okian/techmatch/internal/domain/catalog"
	"github.com/okian/techmatch/internal/domain/dedupe"
	"github.com/okian/techmatch/internal/domain/matching"
	"github.com/okian/techmatch/internal/domain/model"
	"github.com/okian/techmatch/internal/domain/profile"
	"github.com/okian/techmatch/internal/domain/reputation"
	"github.com/okian/techmatch/internal/domain/scoring"
	"github.com/okian/techmatch/pkg/logger"
	"github.com/okian/techmatch/pkg/metrics"
)

const defaultStopTimeout = 10 * time.Second

// ErrNotStarted is returned by API calls made before Start.
var ErrNotStarted = errors.New("service not started")

// Service implements the API dependencies for the matching engine.
type Service struct {
	mu sync.RWMutex

	// Core components
	store        repository.Store
	catalog      *catalog.Catalog
	profiles     *profile.Index
	reputations  *reputation.Aggregator
	orchestrator *matching.Orchestrator
	eventQueue   *eventqueue.InMemoryQueue
	deduper      dedupe.Deduper
	pool         *workerpool.Pool

	// Configuration
	weights        scoring.Weights
	threshold      float64
	rankingTimeout time.Duration
	concurrency    int
	queueSize      int
	dispatchers    int
	retryAttempts  int
	retryDelay     time.Duration
	dedupeSize     int
	databasePath   string
	seedFile       string
	stopTimeout    time.Duration

	// State
	started   bool
	ownsStore bool
	cancel    context.CancelFunc

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithWeights sets the required/optional score split.
func WithWeights(w scoring.Weights) Option {
	return func(s *Service) { s.weights = w }
}

// WithThreshold sets the minimum score that emits a match event.
func WithThreshold(threshold float64) Option {
	return func(s *Service) { s.threshold = threshold }
}

// WithRankingTimeout bounds a single ranking call.
func WithRankingTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.rankingTimeout = d
		}
	}
}

// WithScoringConcurrency bounds concurrent candidate lookups per call.
func WithScoringConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithQueueSize sets the capacity of the match event queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDispatcherCount sets the number of notification dispatchers.
func WithDispatcherCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.dispatchers = count
		}
	}
}

// WithDispatchRetry sets delivery attempts and the base delay between them.
func WithDispatchRetry(attempts int, delay time.Duration) Option {
	return func(s *Service) {
		if attempts > 0 {
			s.retryAttempts = attempts
		}
		if delay >= 0 {
			s.retryDelay = delay
		}
	}
}

// WithDedupeSize bounds the repeat-suppression memory.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithDatabasePath stores everything in the SQLite file at path.
func WithDatabasePath(path string) Option {
	return func(s *Service) { s.databasePath = path }
}

// WithSeedFile loads a YAML fixture into the store on Start.
func WithSeedFile(path string) Option {
	return func(s *Service) { s.seedFile = path }
}

// WithStore uses an already opened store. The caller keeps ownership.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithStopTimeout bounds how long Stop waits for dispatchers to drain.
func WithStopTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.stopTimeout = d
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		weights:        scoring.DefaultWeights(),
		threshold:      matching.DefaultThreshold,
		rankingTimeout: matching.DefaultTimeout,
		concurrency:    matching.DefaultConcurrency,
		queueSize:      10_000,
		dispatchers:    4,
		retryAttempts:  3,
		retryDelay:     100 * time.Millisecond,
		dedupeSize:     dedupe.DefaultMaxSize,
		stopTimeout:    defaultStopTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens storage and starts the notification dispatchers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	if err := s.weights.Validate(); err != nil {
		return err
	}

	s.logger.Info(ctx, "starting matching service...")

	if s.store == nil {
		store, err := s.openStore(ctx)
		if err != nil {
			return err
		}
		s.store = store
		s.ownsStore = true
	}

	s.catalog = catalog.New(s.store, catalog.WithLogger(s.logger.Named("catalog")))
	if s.seedFile != "" {
		if err := repository.LoadFixture(ctx, s.store, s.catalog, s.seedFile); err != nil {
			s.closeOwnedStore()
			return fmt.Errorf("seed %s: %w", s.seedFile, err)
		}
		s.logger.Info(ctx, "seed fixture loaded", logger.String("path", s.seedFile))
	}

	s.profiles = profile.NewIndex(s.store)
	s.reputations = reputation.NewAggregator(s.store)
	s.eventQueue = eventqueue.NewInMemoryQueue(
		eventqueue.WithCapacity(s.queueSize),
		eventqueue.WithLogger(s.logger.Named("queue")),
	)
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.orchestrator = matching.NewOrchestrator(s.profiles, s.reputations,
		matching.WithWeights(s.weights),
		matching.WithThreshold(s.threshold),
		matching.WithTimeout(s.rankingTimeout),
		matching.WithConcurrency(s.concurrency),
		matching.WithEmitter(s.eventQueue),
		matching.WithLogger(s.logger.Named("matching")),
	)

	notifier := workerpool.Fanout{
		workerpool.NewStoreNotifier(s.store),
		workerpool.NewLogNotifier(s.logger.Named("notifications")),
	}
	s.pool = workerpool.NewPool(s.dispatchers, s.eventQueue, notifier,
		workerpool.WithLogger(s.logger),
		workerpool.WithRetry(s.retryAttempts, s.retryDelay),
		workerpool.WithDeduper(s.deduper),
	)

	// Dispatchers outlive the start context; Stop cancels them.
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.pool.Start(runCtx)

	s.started = true
	s.logger.Info(ctx, "matching service started",
		logger.Float64("required_weight", s.weights.Required),
		logger.Float64("optional_weight", s.weights.Optional),
		logger.Float64("threshold", s.threshold),
		logger.Duration("ranking_timeout", s.rankingTimeout),
		logger.Int("dispatchers", s.dispatchers),
		logger.Int("queue_size", s.queueSize),
	)
	return nil
}

func (s *Service) openStore(ctx context.Context) (repository.Store, error) {
	if s.databasePath == "" {
		s.logger.Info(ctx, "using in-memory store")
		return repository.NewMemoryStore(), nil
	}
	store, err := repository.OpenSQLite(ctx, s.databasePath)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", s.databasePath, err)
	}
	s.logger.Info(ctx, "using sqlite store", logger.String("path", s.databasePath))
	return store, nil
}

func (s *Service) closeOwnedStore() {
	if s.ownsStore && s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Error(context.Background(), "error closing store", logger.Error(err))
		}
		s.store = nil
		s.ownsStore = false
	}
}

// Stop drains pending notifications and releases storage.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.stopTimeout)
	defer cancel()

	s.logger.Info(ctx, "stopping matching service...")

	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "dispatchers did not drain", logger.Error(err))
	}
	s.cancel()
	s.closeOwnedStore()

	s.started = false
	s.logger.Info(ctx, "matching service stopped")
}

func (s *Service) running() (*matching.Orchestrator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.orchestrator, nil
}

// RankFreelancersForProject ranks candidate freelancers for a project.
func (s *Service) RankFreelancersForProject(ctx context.Context, projectID string, candidateIDs []string) ([]model.MatchResult, error) {
	o, err := s.running()
	if err != nil {
		return nil, err
	}
	return o.RankFreelancersForProject(ctx, projectID, candidateIDs)
}

// RankProjectsForFreelancer ranks candidate projects for a freelancer.
func (s *Service) RankProjectsForFreelancer(ctx context.Context, freelancerID string, candidateIDs []string) ([]model.MatchResult, error) {
	o, err := s.running()
	if err != nil {
		return nil, err
	}
	return o.RankProjectsForFreelancer(ctx, freelancerID, candidateIDs)
}

// FindAvailableFreelancers lists available freelancer ids in ascending order.
func (s *Service) FindAvailableFreelancers(ctx context.Context) ([]string, error) {
	if _, err := s.running(); err != nil {
		return nil, err
	}
	ids, err := s.store.FindAvailableFreelancers(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", matching.ErrDependency, err)
	}
	return ids, nil
}

// SearchTech searches the technology catalog by name.
func (s *Service) SearchTech(ctx context.Context, keyword string) ([]model.TechEntry, error) {
	if _, err := s.running(); err != nil {
		return nil, err
	}
	return s.catalog.Search(ctx, keyword)
}

// ResolveTech returns the catalog entry for name, creating it when new.
func (s *Service) ResolveTech(ctx context.Context, category, name string) (model.TechEntry, error) {
	if _, err := s.running(); err != nil {
		return model.TechEntry{}, err
	}
	return s.catalog.Resolve(ctx, category, name)
}

// ReputationOf returns the review reputation of an existing freelancer.
func (s *Service) ReputationOf(ctx context.Context, freelancerID string) (reputation.Score, error) {
	if _, err := s.running(); err != nil {
		return reputation.Score{}, err
	}
	if _, err := s.profiles.Freelancer(ctx, freelancerID); err != nil {
		return reputation.Score{}, err
	}
	return s.reputations.ReputationOf(ctx, freelancerID)
}

// ListNotifications returns what was delivered to recipientID.
func (s *Service) ListNotifications(ctx context.Context, recipientID string) ([]model.Notification, error) {
	if _, err := s.running(); err != nil {
		return nil, err
	}
	notes, err := s.store.ListNotifications(ctx, recipientID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", matching.ErrDependency, err)
	}
	return notes, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":         s.started,
		"dispatchers":     s.dispatchers,
		"queueCapacity":   s.queueSize,
		"threshold":       s.threshold,
		"requiredWeight":  s.weights.Required,
		"optionalWeight":  s.weights.Optional,
		"rankingTimeout":  s.rankingTimeout.String(),
		"storage":         s.storageKind(),
		"dedupeCapacity":  s.dedupeSize,
		"retryAttempts":   s.retryAttempts,
		"scoringParallel": s.concurrency,
	}

	if s.started {
		queueLen := s.eventQueue.Len()
		stats["queueLength"] = queueLen
		stats["catalogEntries"] = s.catalog.Size()
		stats["suppressionEntries"] = s.deduper.Size()

		metrics.UpdateQueue(queueLen, s.eventQueue.Capacity())
		metrics.UpdateCatalogEntries(s.catalog.Size())
	}
	return stats
}

func (s *Service) storageKind() string {
	if s.databasePath != "" {
		return "sqlite"
	}
	return "memory"
}
