package matchcheck

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/retry"

	"github.com/okian/techmatch/internal/domain/types"
)

// Ranking directions.
const (
	DirectionFreelancers = "project_freelancers"
	DirectionProjects    = "freelancer_projects"
)

// Client talks to the techmatch HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client with a per-request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{baseURL: baseURL, http: &http.Client{Timeout: timeout}}
}

// WaitHealthy probes /healthz until it answers 200 or attempts run out.
func (c *Client) WaitHealthy(ctx context.Context, attempts int, delay time.Duration) error {
	if attempts < 1 {
		attempts = 1
	}
	_, err := retry.DoWithData(
		func() (int, error) {
			status, _, err := c.get(ctx, "/healthz")
			if err != nil {
				return status, err
			}
			if status != http.StatusOK {
				return status, fmt.Errorf("health check returned %d", status)
			}
			return status, nil
		},
		retry.Context(ctx),
		retry.Attempts(uint(attempts)),
		retry.Delay(delay),
	)
	return err
}

// FreelancersFor fetches the freelancer ranking of a project.
func (c *Client) FreelancersFor(ctx context.Context, projectID string) (int, []Row, error) {
	status, body, err := c.get(ctx, "/matches/projects/"+url.PathEscape(projectID)+"/freelancers")
	if err != nil || status != http.StatusOK {
		return status, nil, err
	}
	var matches []types.FreelancerMatch
	if err := json.Unmarshal(body, &matches); err != nil {
		return status, nil, fmt.Errorf("decode ranking of %s: %w", projectID, err)
	}
	rows := make([]Row, len(matches))
	for i, m := range matches {
		rows[i] = Row{
			Rank: m.Rank, ID: m.FreelancerID, Score: m.Score,
			MatchedRequired: m.MatchedRequired, TotalRequired: m.TotalRequired,
			FullyQualified: m.FullyQualified, Reputation: m.Reputation,
		}
	}
	return status, rows, nil
}

// ProjectsFor fetches the project ranking of a freelancer over candidates.
func (c *Client) ProjectsFor(ctx context.Context, freelancerID string, candidates []string) (int, []Row, error) {
	q := url.Values{}
	q.Set("candidates", strings.Join(candidates, ","))
	status, body, err := c.get(ctx, "/matches/freelancers/"+url.PathEscape(freelancerID)+"/projects?"+q.Encode())
	if err != nil || status != http.StatusOK {
		return status, nil, err
	}
	var matches []types.ProjectMatch
	if err := json.Unmarshal(body, &matches); err != nil {
		return status, nil, fmt.Errorf("decode ranking of %s: %w", freelancerID, err)
	}
	rows := make([]Row, len(matches))
	for i, m := range matches {
		rows[i] = Row{
			Rank: m.Rank, ID: m.ProjectID, Score: m.Score,
			MatchedRequired: m.MatchedRequired, TotalRequired: m.TotalRequired,
			FullyQualified: m.FullyQualified, Reputation: m.Reputation,
		}
	}
	return status, rows, nil
}

func (c *Client) get(ctx context.Context, path string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read %s: %w", path, err)
	}
	return resp.StatusCode, body, nil
}
