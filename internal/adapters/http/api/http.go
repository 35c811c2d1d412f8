// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/techmatch/internal/domain/model"
	"github.com/okian/techmatch/internal/domain/reputation"
)

const defaultMaxCandidates = 500

// Matcher produces rankings.
type Matcher interface {
	RankFreelancersForProject(ctx context.Context, projectID string, candidateIDs []string) ([]model.MatchResult, error)
	RankProjectsForFreelancer(ctx context.Context, freelancerID string, candidateIDs []string) ([]model.MatchResult, error)
}

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	Matcher

	// FindAvailableFreelancers is the default candidate set of a project ranking.
	FindAvailableFreelancers(ctx context.Context) ([]string, error)
	SearchTech(ctx context.Context, keyword string) ([]model.TechEntry, error)
	ReputationOf(ctx context.Context, freelancerID string) (reputation.Score, error)
	ListNotifications(ctx context.Context, recipientID string) ([]model.Notification, error)
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithMaxCandidates caps the candidate list a single request may carry.
func WithMaxCandidates(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxCandidates = n
		}
	}
}

// Server wires HTTP routes for the business API.
type Server struct {
	maxCandidates int

	healthHandler       *HealthHandler
	statsHandler        *StatsHandler
	matchHandler        *MatchHandler
	catalogHandler      *CatalogHandler
	reputationHandler   *ReputationHandler
	notificationHandler *NotificationHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{maxCandidates: defaultMaxCandidates}
	for _, opt := range opts {
		opt(s)
	}
	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(statsProvider)
	s.matchHandler = NewMatchHandler(deps, s.maxCandidates)
	s.catalogHandler = NewCatalogHandler(deps)
	s.reputationHandler = NewReputationHandler(deps)
	s.notificationHandler = NewNotificationHandler(deps)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("GET /matches/projects/{projectId}/freelancers",
		MetricsMiddleware(s.matchHandler.HandleFreelancersForProject, "matches_project_freelancers"))
	mux.HandleFunc("GET /matches/freelancers/{freelancerId}/projects",
		MetricsMiddleware(s.matchHandler.HandleProjectsForFreelancer, "matches_freelancer_projects"))
	mux.HandleFunc("GET /catalog/search", MetricsMiddleware(s.catalogHandler.HandleSearch, "catalog_search"))
	mux.HandleFunc("GET /freelancers/{freelancerId}/reputation",
		MetricsMiddleware(s.reputationHandler.HandleGetReputation, "reputation"))
	mux.HandleFunc("GET /notifications/{recipientId}",
		MetricsMiddleware(s.notificationHandler.HandleList, "notifications"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeDomainError translates err through statusFor.
func writeDomainError(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	writeError(w, status, code, err)
}
