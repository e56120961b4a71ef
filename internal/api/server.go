// Package api exposes accounts, problems, grading and recommendations over
// HTTP.
package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/p-n-ai/akshar/internal/account"
	"github.com/p-n-ai/akshar/internal/activity"
	"github.com/p-n-ai/akshar/internal/problem"
	"github.com/p-n-ai/akshar/internal/recommend"
)

const sessionCookie = "akshar_session"

// Check is a named readiness probe.
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

// Deps are the collaborators of a Server. Events and Checks are optional.
type Deps struct {
	Users         account.Store
	Auth          *account.Authenticator
	Sessions      *account.Sessions
	Problems      problem.Store
	Ledger        *recommend.Service
	Live          recommend.Broadcaster
	Events        activity.Logger
	Checks        []Check
	AllowedOrigin string
	LoginRate     int // attempts per minute per client
}

// Server routes HTTP requests to the domain packages.
type Server struct {
	users    account.Store
	auth     *account.Authenticator
	sessions *account.Sessions
	problems problem.Store
	ledger   *recommend.Service
	live     recommend.Broadcaster
	events   activity.Logger
	checks   []Check

	allowedOrigin string
	originHost    string
	secureCookies bool
	loginLimiter  *ipLimiter
}

// NewServer validates deps and builds a Server.
func NewServer(d Deps) (*Server, error) {
	switch {
	case d.Users == nil:
		return nil, fmt.Errorf("users store is required")
	case d.Auth == nil:
		return nil, fmt.Errorf("authenticator is required")
	case d.Sessions == nil:
		return nil, fmt.Errorf("sessions are required")
	case d.Problems == nil:
		return nil, fmt.Errorf("problem store is required")
	case d.Ledger == nil:
		return nil, fmt.Errorf("recommendation service is required")
	case d.Live == nil:
		return nil, fmt.Errorf("broadcaster is required")
	}

	s := &Server{
		users:         d.Users,
		auth:          d.Auth,
		sessions:      d.Sessions,
		problems:      d.Problems,
		ledger:        d.Ledger,
		live:          d.Live,
		events:        d.Events,
		checks:        d.Checks,
		allowedOrigin: d.AllowedOrigin,
	}
	if s.events == nil {
		s.events = activity.NopLogger{}
	}

	if d.AllowedOrigin != "" {
		u, err := url.Parse(d.AllowedOrigin)
		if err != nil || u.Host == "" {
			return nil, fmt.Errorf("invalid allowed origin %q", d.AllowedOrigin)
		}
		s.originHost = u.Host
		s.secureCookies = u.Scheme == "https"
	}

	rate := d.LoginRate
	if rate <= 0 {
		rate = 10
	}
	s.loginLimiter = newIPLimiter(rate, time.Minute)
	return s, nil
}

// Handler returns the root handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /readyz", s.handleReadyz)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /api/account/create", s.handleCreateAccount)
	mux.HandleFunc("POST /api/account/login", s.handleLogin)
	mux.HandleFunc("POST /api/account/logout", s.handleLogout)
	mux.HandleFunc("GET /api/account/me", s.requireUser(s.handleMe))

	mux.HandleFunc("GET /api/problems", s.requireUser(s.handleQueryProblems))
	mux.HandleFunc("POST /api/problems", s.requireUser(s.handleCreateProblem))
	mux.HandleFunc("GET /api/problems/export", s.requireUser(s.handleExport))
	mux.HandleFunc("GET /api/problems/{id}", s.requireUser(s.handleGetProblem))
	mux.HandleFunc("POST /api/problems/{id}/answer", s.requireUser(s.handleAnswer))
	mux.HandleFunc("POST /api/problems/{id}/recommend", s.requireUser(s.handleToggle(recommend.Recommend)))
	mux.HandleFunc("DELETE /api/problems/{id}/recommend", s.requireUser(s.handleToggle(recommend.Undo)))
	mux.HandleFunc("GET /api/problems/{id}/live", s.requireUser(s.handleLive))

	return withRequestID(withLogging(s.withCORS(mux)))
}
