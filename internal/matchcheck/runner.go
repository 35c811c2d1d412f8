package matchcheck

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/techmatch/internal/adapters/repository"
	"github.com/okian/techmatch/pkg/logger"
)

const (
	healthDelay        = 500 * time.Millisecond
	reportPermission   = 0o600
	maxLoggedViolation = 5
)

// ErrChecksFailed is returned when at least one ranking failed its checks.
var ErrChecksFailed = errors.New("ranking checks failed")

// Run checks every configured ranking and returns the report. The error is
// ErrChecksFailed when a ranking was malformed or could not be fetched.
func Run(ctx context.Context, cfg *Config, log logger.Logger) (*Report, error) {
	if log == nil {
		log = logger.Nop()
	}
	if cfg.SeedFile != "" {
		if err := addSeedIDs(cfg); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	report := &Report{StartedAt: time.Now()}
	client := NewClient(cfg.BaseURL, cfg.Timeout)

	log.Info(ctx, "checking service health", logger.String("url", cfg.BaseURL))
	if err := client.WaitHealthy(ctx, cfg.HealthRetries, healthDelay); err != nil {
		return nil, fmt.Errorf("service health check failed: %w", err)
	}

	var (
		mu       sync.Mutex
		outcomes []Outcome
	)
	record := func(o Outcome) {
		mu.Lock()
		outcomes = append(outcomes, o)
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for _, id := range cfg.ProjectIDs {
		g.Go(func() error {
			status, rows, err := client.FreelancersFor(gctx, id)
			record(check(DirectionFreelancers, id, status, rows, err))
			return nil
		})
	}
	if len(cfg.ProjectIDs) > 0 {
		for _, id := range cfg.FreelancerIDs {
			g.Go(func() error {
				status, rows, err := client.ProjectsFor(gctx, id, cfg.ProjectIDs)
				record(check(DirectionProjects, id, status, rows, err))
				return nil
			})
		}
	}
	_ = g.Wait()

	sort.Slice(outcomes, func(i, j int) bool {
		if outcomes[i].Direction != outcomes[j].Direction {
			return outcomes[i].Direction > outcomes[j].Direction
		}
		return outcomes[i].SubjectID < outcomes[j].SubjectID
	})
	report.Outcomes = outcomes
	report.Checked = len(outcomes)
	for _, o := range outcomes {
		if o.OK() {
			continue
		}
		report.Failed++
		fields := []logger.Field{
			logger.String("direction", o.Direction),
			logger.String("subject_id", o.SubjectID),
			logger.Int("status", o.Status),
		}
		if o.Error != "" {
			fields = append(fields, logger.String("error", o.Error))
		}
		if n := len(o.Violations); n > 0 {
			fields = append(fields, logger.Strings("violations", o.Violations[:min(n, maxLoggedViolation)]))
		}
		log.Warn(ctx, "ranking failed checks", fields...)
	}
	report.Duration = time.Since(report.StartedAt)

	log.Info(ctx, "match check finished",
		logger.Int("checked", report.Checked),
		logger.Int("failed", report.Failed),
		logger.Duration("duration", report.Duration),
	)

	if cfg.OutputFile != "" {
		if err := writeReport(cfg.OutputFile, report); err != nil {
			log.Warn(ctx, "failed to write report", logger.Error(err))
		}
	}
	if report.Failed > 0 {
		return report, fmt.Errorf("%w: %d of %d", ErrChecksFailed, report.Failed, report.Checked)
	}
	return report, nil
}

func check(direction, subjectID string, status int, rows []Row, err error) Outcome {
	o := Outcome{Direction: direction, SubjectID: subjectID, Status: status, Rows: len(rows)}
	switch {
	case err != nil:
		o.Error = err.Error()
	case status != http.StatusOK:
		o.Error = fmt.Sprintf("unexpected status %d", status)
	default:
		o.Violations = Verify(rows)
	}
	return o
}

func addSeedIDs(cfg *Config) error {
	fx, err := repository.ReadFixture(cfg.SeedFile)
	if err != nil {
		return err
	}
	for _, p := range fx.Projects {
		cfg.ProjectIDs = append(cfg.ProjectIDs, p.ID)
	}
	for _, f := range fx.Freelancers {
		cfg.FreelancerIDs = append(cfg.FreelancerIDs, f.ID)
	}
	return nil
}

func writeReport(path string, r *Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := os.WriteFile(path, data, reportPermission); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}
	return nil
}
