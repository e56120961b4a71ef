package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/google/uuid"

	"github.com/p-n-ai/akshar/internal/account"
	"github.com/p-n-ai/akshar/internal/activity"
	"github.com/p-n-ai/akshar/internal/api"
	"github.com/p-n-ai/akshar/internal/platform/cache"
	"github.com/p-n-ai/akshar/internal/platform/config"
	"github.com/p-n-ai/akshar/internal/platform/database"
	"github.com/p-n-ai/akshar/internal/problem"
	"github.com/p-n-ai/akshar/internal/recommend"
)

// ledgerStore is what the service and the auditor need from storage.
type ledgerStore interface {
	recommend.Store
	recommend.AuditStore
}

// app holds the wired collaborators for one process.
type app struct {
	cfg      *config.Config
	db       *database.DB
	cache    *cache.Cache
	users    account.Store
	auth     *account.Authenticator
	sessions *account.Sessions
	problems problem.Store
	ledger   ledgerStore
	service  *recommend.Service
	live     recommend.Broadcaster
	events   activity.Logger
}

// newApp connects storage according to cfg.Store and wires the domain.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg}

	switch cfg.Store {
	case config.StoreMemory:
		users := account.NewMemoryStore()
		problems := problem.NewMemoryStore()
		a.users = users
		a.problems = problems
		a.ledger = recommend.NewMemoryStore(users, problems)
		// Events have no durable sink in memory mode.
		a.events = activity.NopLogger{}
		slog.Warn("using in-memory storage; data is lost on exit")

	case config.StorePostgres:
		db, err := database.New(ctx, cfg.Database.URL, database.Options{
			MaxConns: cfg.Database.MaxConns,
			MinConns: cfg.Database.MinConns,
		})
		if err != nil {
			return nil, err
		}
		a.db = db

		users, err := account.NewPostgresStore(db.Pool)
		if err != nil {
			a.Close()
			return nil, err
		}
		problems, err := problem.NewPostgresStore(db.Pool)
		if err != nil {
			a.Close()
			return nil, err
		}
		ledger, err := recommend.NewPostgresStore(db.Pool)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.users = users
		a.problems = problems
		a.ledger = ledger
		a.events = activity.NewPostgresLogger(db.Pool)

	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Store)
	}

	opts := []recommend.Option{recommend.WithEvents(a.events)}
	if cfg.HasCache() {
		c, err := cache.New(ctx, cfg.Cache.URL)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.cache = c
		cached := problem.NewCachedStore(a.problems, c.Client, cfg.Cache.ProblemTTL)
		a.problems = cached
		a.live = recommend.NewRedisBroadcaster(c.Client)
		opts = append(opts, recommend.WithInvalidator(cached))
	} else {
		a.live = recommend.NewLocalBroadcaster()
	}
	opts = append(opts, recommend.WithBroadcaster(a.live))
	a.service = recommend.NewService(a.ledger, opts...)

	auth, err := account.NewAuthenticator(a.users, cfg.Auth.BcryptCost)
	if err != nil {
		a.Close()
		return nil, err
	}
	sessions, err := account.NewSessions(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.auth = auth
	a.sessions = sessions
	return a, nil
}

// server builds the HTTP API on top of the wired collaborators.
func (a *app) server() (*api.Server, error) {
	var checks []api.Check
	if a.db != nil {
		checks = append(checks, api.Check{Name: "database", Ping: a.db.HealthCheck})
	}
	if a.cache != nil {
		checks = append(checks, api.Check{Name: "cache", Ping: a.cache.HealthCheck})
	}

	return api.NewServer(api.Deps{
		Users:         a.users,
		Auth:          a.auth,
		Sessions:      a.sessions,
		Problems:      a.problems,
		Ledger:        a.service,
		Live:          a.live,
		Events:        a.events,
		Checks:        checks,
		AllowedOrigin: a.cfg.Server.AllowedOrigin,
		LoginRate:     a.cfg.Auth.LoginRate,
	})
}

// Close releases connections. Safe on a partially built app.
func (a *app) Close() {
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			slog.Warn("cache close failed", "error", err)
		}
	}
	if a.db != nil {
		a.db.Close()
	}
}

// seed inserts the problems of every seed file, creating missing owners
// with a random password. Problems whose prompt the owner already has are
// skipped, so seeding twice is harmless.
func (a *app) seed(ctx context.Context, dir string) (int, error) {
	sets, err := problem.LoadSeed(dir)
	if err != nil {
		return 0, err
	}

	inserted := 0
	for _, set := range sets {
		owner, err := a.users.GetByName(ctx, set.Owner)
		if errors.Is(err, account.ErrNotFound) {
			owner, err = a.auth.Register(ctx, set.Owner, uuid.NewString())
			if err == nil {
				slog.Info("seed owner created", "name", owner.Name, "id", owner.ID)
			}
		}
		if err != nil {
			return inserted, fmt.Errorf("seed owner %q: %w", set.Owner, err)
		}

		existing, err := a.problems.ListByOwner(ctx, owner.ID)
		if err != nil {
			return inserted, err
		}
		for _, np := range set.Problems {
			if slices.ContainsFunc(existing, func(p problem.Problem) bool { return p.Prompt == np.Prompt }) {
				continue
			}
			np.OwnerID = owner.ID
			if _, err := a.problems.Create(ctx, np); err != nil {
				return inserted, fmt.Errorf("%s: %w", set.Path, err)
			}
			inserted++
		}
	}
	return inserted, nil
}
