// Package matching ranks freelancers for a project and projects for a
// freelancer, and hands notification-worthy outcomes to an Emitter.
package matching

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/okian/techmatch/internal/domain/model"
	"github.com/okian/techmatch/internal/domain/reputation"
	"github.com/okian/techmatch/internal/domain/scoring"
	"github.com/okian/techmatch/pkg/logger"
	"github.com/okian/techmatch/pkg/metrics"
)

// Ranking directions, used as metric labels.
const (
	DirectionFreelancers = "project_freelancers"
	DirectionProjects    = "freelancer_projects"
)

// Profiles is the profile read surface the orchestrator needs.
type Profiles interface {
	Freelancer(ctx context.Context, id string) (model.Freelancer, error)
	Project(ctx context.Context, id string) (model.Project, error)
	SkillsOf(ctx context.Context, freelancerID string) (model.SkillSet, error)
	RequirementsOf(ctx context.Context, projectID string) (model.RequirementSet, error)
}

// Reputations computes a freelancer's review aggregate.
type Reputations interface {
	ReputationOf(ctx context.Context, freelancerID string) (reputation.Score, error)
}

// Emitter accepts match events without blocking. It returns false when the
// event was dropped.
type Emitter interface {
	Enqueue(ctx context.Context, ev model.MatchEvent) bool
}

type discardEmitter struct{}

func (discardEmitter) Enqueue(context.Context, model.MatchEvent) bool { return true }

// Orchestrator sequences profile lookups, scoring and reputation into a
// ranked list. It keeps no state between calls.
type Orchestrator struct {
	profiles    Profiles
	reputations Reputations
	scorer      *scoring.Scorer
	emitter     Emitter
	threshold   float64
	timeout     time.Duration
	concurrency int
	log         logger.Logger
	now         func() time.Time
}

// NewOrchestrator creates an Orchestrator with default settings unless
// overridden by opts.
func NewOrchestrator(profiles Profiles, reputations Reputations, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		profiles:    profiles,
		reputations: reputations,
		scorer:      scoring.NewScorer(),
		emitter:     discardEmitter{},
		threshold:   DefaultThreshold,
		timeout:     DefaultTimeout,
		concurrency: DefaultConcurrency,
		log:         logger.Nop(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Weights returns the scoring split in use.
func (o *Orchestrator) Weights() scoring.Weights { return o.scorer.Weights() }

// RankFreelancersForProject scores every available candidate against the
// project's requirements and orders them by score, then reputation, then id.
// Unknown and unavailable candidates are left out. A project without any
// required technology yields an empty ranking, not an error.
func (o *Orchestrator) RankFreelancersForProject(ctx context.Context, projectID string, candidateIDs []string) ([]model.MatchResult, error) {
	start := time.Now()
	out, err := o.rankFreelancers(ctx, projectID, candidateIDs)
	o.observe(ctx, DirectionFreelancers, projectID, start, len(out), err)
	if err != nil {
		return nil, err
	}
	o.emit(ctx, out)
	return out, nil
}

// RankProjectsForFreelancer is the mirror of RankFreelancersForProject. Only
// open projects with at least one required technology are ranked, and an
// unavailable freelancer gets an empty list. The freelancer's reputation is
// the same on every row, so ties fall through to project id.
func (o *Orchestrator) RankProjectsForFreelancer(ctx context.Context, freelancerID string, candidateIDs []string) ([]model.MatchResult, error) {
	start := time.Now()
	out, err := o.rankProjects(ctx, freelancerID, candidateIDs)
	o.observe(ctx, DirectionProjects, freelancerID, start, len(out), err)
	if err != nil {
		return nil, err
	}
	o.emit(ctx, out)
	return out, nil
}

func (o *Orchestrator) rankFreelancers(parent context.Context, projectID string, candidateIDs []string) ([]model.MatchResult, error) {
	ctx, cancel := context.WithTimeout(parent, o.timeout)
	defer cancel()

	if _, err := o.profiles.Project(ctx, projectID); err != nil {
		return nil, o.fail(ctx, err)
	}
	reqs, err := o.profiles.RequirementsOf(ctx, projectID)
	if err != nil {
		return nil, o.fail(ctx, err)
	}
	if !reqs.Scoreable() {
		o.log.Debug(ctx, "project has no required technologies",
			logger.String("project_id", projectID),
			logger.Error(ErrUnscoreable),
		)
		return []model.MatchResult{}, nil
	}

	ids := unique(candidateIDs)
	slots := make([]*scoring.Ranked, len(ids))
	memo := newScoreMemo(o.scorer)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)
	for i, id := range ids {
		g.Go(func() error {
			entry, err := o.evaluateFreelancer(gctx, id, reqs, memo)
			if err != nil {
				return err
			}
			slots[i] = entry
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, o.fail(ctx, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, o.fail(ctx, err)
	}

	ranked := collect(slots)
	metrics.RecordCandidatesScored(len(ranked))
	metrics.RecordCandidatesSkipped("excluded", len(ids)-len(ranked))
	o.log.Debug(ctx, "candidates scored",
		logger.String("project_id", projectID),
		logger.Int("scored", len(ranked)),
		logger.Int("distinct_profiles", memo.size()),
	)
	scoring.Rank(ranked)
	return results(projectID, ranked), nil
}

// evaluateFreelancer returns nil, nil for a candidate that is skipped.
func (o *Orchestrator) evaluateFreelancer(ctx context.Context, id string, reqs model.RequirementSet, memo *scoreMemo) (*scoring.Ranked, error) {
	f, err := o.profiles.Freelancer(ctx, id)
	if errors.Is(err, model.ErrNotFound) {
		o.log.Debug(ctx, "unknown candidate dropped", logger.String("freelancer_id", id))
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !f.Available {
		return nil, nil
	}

	skills, err := o.profiles.SkillsOf(ctx, id)
	if err != nil {
		return nil, err
	}
	rep, err := o.reputations.ReputationOf(ctx, id)
	if err != nil {
		return nil, err
	}
	return &scoring.Ranked{
		ID:         id,
		Result:     memo.score(skills, reqs),
		Reputation: rep.Mean,
	}, nil
}

func (o *Orchestrator) rankProjects(parent context.Context, freelancerID string, candidateIDs []string) ([]model.MatchResult, error) {
	ctx, cancel := context.WithTimeout(parent, o.timeout)
	defer cancel()

	f, err := o.profiles.Freelancer(ctx, freelancerID)
	if err != nil {
		return nil, o.fail(ctx, err)
	}
	if !f.Available {
		o.log.Debug(ctx, "freelancer unavailable", logger.String("freelancer_id", freelancerID))
		return []model.MatchResult{}, nil
	}
	skills, err := o.profiles.SkillsOf(ctx, freelancerID)
	if err != nil {
		return nil, o.fail(ctx, err)
	}
	rep, err := o.reputations.ReputationOf(ctx, freelancerID)
	if err != nil {
		return nil, o.fail(ctx, err)
	}

	ids := unique(candidateIDs)
	slots := make([]*scoring.Ranked, len(ids))
	memo := newScoreMemo(o.scorer)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)
	for i, id := range ids {
		g.Go(func() error {
			entry, err := o.evaluateProject(gctx, id, skills, memo)
			if err != nil {
				return err
			}
			if entry != nil {
				entry.Reputation = rep.Mean
			}
			slots[i] = entry
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, o.fail(ctx, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, o.fail(ctx, err)
	}

	ranked := collect(slots)
	metrics.RecordCandidatesScored(len(ranked))
	metrics.RecordCandidatesSkipped("excluded", len(ids)-len(ranked))
	scoring.Rank(ranked)
	return results(freelancerID, ranked), nil
}

func (o *Orchestrator) evaluateProject(ctx context.Context, id string, skills model.SkillSet, memo *scoreMemo) (*scoring.Ranked, error) {
	p, err := o.profiles.Project(ctx, id)
	if errors.Is(err, model.ErrNotFound) {
		o.log.Debug(ctx, "unknown candidate dropped", logger.String("project_id", id))
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if p.Status != model.ProjectOpen {
		return nil, nil
	}

	reqs, err := o.profiles.RequirementsOf(ctx, id)
	if err != nil {
		return nil, err
	}
	res := memo.score(skills, reqs)
	if !res.Scoreable() {
		return nil, nil
	}
	return &scoring.Ranked{ID: id, Result: res}, nil
}

// fail maps a lookup error onto the ranking error taxonomy. ctx is the
// call-scoped context carrying the deadline.
func (o *Orchestrator) fail(ctx context.Context, err error) error {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w after %s", ErrTimeout, o.timeout)
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("ranking cancelled: %w", err)
	case errors.Is(err, model.ErrNotFound):
		return err
	default:
		return fmt.Errorf("%w: %w", ErrDependency, err)
	}
}

// emit hands events to the emitter in ranked order. A dropped event is
// logged and never affects the ranking that was already computed.
func (o *Orchestrator) emit(ctx context.Context, rows []model.MatchResult) {
	for _, r := range rows {
		if r.Score < o.threshold {
			continue
		}
		ev := model.MatchEvent{
			ID:            uuid.NewString(),
			SubjectID:     r.SubjectID,
			CounterpartID: r.CounterpartID,
			Score:         r.Score,
			Timestamp:     o.now(),
		}
		if !o.emitter.Enqueue(ctx, ev) {
			o.log.Warn(ctx, "match event dropped",
				logger.String("event_id", ev.ID),
				logger.String("subject_id", ev.SubjectID),
				logger.String("counterpart_id", ev.CounterpartID),
			)
		}
	}
}

func (o *Orchestrator) observe(ctx context.Context, direction, subjectID string, start time.Time, n int, err error) {
	elapsed := time.Since(start)
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrTimeout):
		outcome = "timeout"
	case errors.Is(err, ErrNotFound):
		outcome = "not_found"
	default:
		outcome = "error"
	}
	metrics.RecordRanking(direction, outcome, float64(elapsed.Milliseconds()))

	if err != nil && outcome != "not_found" {
		metrics.RecordErrorByComponent("matching", outcome)
		o.log.Error(ctx, "ranking failed",
			logger.String("direction", direction),
			logger.String("subject_id", subjectID),
			logger.Duration("elapsed", elapsed),
			logger.Error(err),
		)
		return
	}
	o.log.Debug(ctx, "ranking finished",
		logger.String("direction", direction),
		logger.String("subject_id", subjectID),
		logger.Int("results", n),
		logger.Duration("elapsed", elapsed),
	)
}

// unique drops repeated ids, keeping first occurrence order.
func unique(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func collect(slots []*scoring.Ranked) []scoring.Ranked {
	out := make([]scoring.Ranked, 0, len(slots))
	for _, s := range slots {
		if s != nil {
			out = append(out, *s)
		}
	}
	return out
}

func results(subjectID string, ranked []scoring.Ranked) []model.MatchResult {
	out := make([]model.MatchResult, len(ranked))
	for i, r := range ranked {
		out[i] = model.MatchResult{
			SubjectID:       subjectID,
			CounterpartID:   r.ID,
			Score:           r.Result.Value,
			MatchedRequired: r.Result.MatchedRequired,
			TotalRequired:   r.Result.TotalRequired,
			MatchedOptional: r.Result.MatchedOptional,
			TotalOptional:   r.Result.TotalOptional,
			FullyQualified:  r.Result.FullyQualified,
			Reputation:      r.Reputation,
		}
	}
	return out
}
