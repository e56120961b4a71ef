package recommend

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/p-n-ai/akshar/internal/account"
	"github.com/p-n-ai/akshar/internal/problem"
)

const dbTimeout = 5 * time.Second

// PostgresStore runs each update in one transaction. Rows are locked user
// first, then problem, so two toggles can never wait on each other in
// opposite order.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Update(ctx context.Context, userID, problemID int64, fn UpdateFunc) (account.User, problem.Problem, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var (
		nu account.User
		np problem.Problem
	)
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		u, err := account.LockForUpdate(ctx, tx, userID)
		if err != nil {
			return translate(err)
		}
		p, err := problem.LockForUpdate(ctx, tx, problemID)
		if err != nil {
			return translate(err)
		}

		nu, np, err = fn(u, p)
		if err != nil {
			return err
		}

		if err := account.SaveRecommended(ctx, tx, nu.ID, nu.Recommended); err != nil {
			return err
		}
		return problem.SaveRecommendations(ctx, tx, np.ID, np.Recommendations)
	})
	if err != nil {
		return account.User{}, problem.Problem{}, err
	}
	return nu, np, nil
}
