package main

import (
	"context"
	"flag"
	"os"
	"strings"
	"time"

	"github.com/okian/techmatch/internal/matchcheck"
	"github.com/okian/techmatch/pkg/logger"
)

const (
	defaultWorkers       = 8
	defaultTimeout       = 10 * time.Second
	defaultRunTimeout    = 5 * time.Minute
	defaultHealthRetries = 10
)

func main() {
	var (
		baseURL     = flag.String("url", "http://localhost:9080", "Base URL of the service")
		projects    = flag.String("projects", "", "Comma-separated project ids to rank freelancers for")
		freelancers = flag.String("freelancers", "", "Comma-separated freelancer ids to rank projects for")
		seed        = flag.String("seed", "", "Fixture file to take project and freelancer ids from")
		workers     = flag.Int("workers", defaultWorkers, "Concurrent requests")
		timeout     = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		retries     = flag.Int("health-retries", defaultHealthRetries, "Health probes before giving up")
		output      = flag.String("output", "", "Write the JSON report to this file")
		verbose     = flag.Bool("verbose", false, "Enable debug logging")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	if *verbose {
		_ = logger.SetLevelString("debug")
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	cfg := &matchcheck.Config{
		BaseURL:       strings.TrimRight(*baseURL, "/"),
		ProjectIDs:    splitIDs(*projects),
		FreelancerIDs: splitIDs(*freelancers),
		SeedFile:      *seed,
		Workers:       *workers,
		Timeout:       *timeout,
		HealthRetries: *retries,
		OutputFile:    *output,
	}
	if _, err := matchcheck.Run(ctx, cfg, logger.Named("match-check")); err != nil {
		logger.Get().Error(ctx, "match check failed", logger.Error(err))
		os.Exit(1)
	}
}

func splitIDs(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if id := strings.TrimSpace(part); id != "" {
			out = append(out, id)
		}
	}
	return out
}
