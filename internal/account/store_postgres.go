package account

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	dbTimeout         = 5 * time.Second
	pgUniqueViolation = "23505"
	selectUserColumns = `SELECT id, name, password_hash, recommended_ids FROM users`
)

// PostgresStore is a PostgreSQL-backed Store implementation.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgreSQL-backed user store.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Create(ctx context.Context, name, passwordHash string) (User, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (name, password_hash)
		 VALUES ($1, $2)
		 RETURNING id`,
		name,
		passwordHash,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return User{}, ErrNameTaken
		}
		return User{}, fmt.Errorf("create user: %w", err)
	}

	return User{ID: id, Name: name, PasswordHash: passwordHash, Recommended: IDSet{}}, nil
}

func (s *PostgresStore) GetByID(ctx context.Context, id int64) (User, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()
	return s.getUserByQuery(ctx, selectUserColumns+` WHERE id = $1`, id)
}

func (s *PostgresStore) GetByName(ctx context.Context, name string) (User, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()
	return s.getUserByQuery(ctx, selectUserColumns+` WHERE name = $1`, name)
}

func (s *PostgresStore) getUserByQuery(ctx context.Context, query string, args ...any) (User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// LockForUpdate loads user id inside tx and holds its row lock until tx ends.
func LockForUpdate(ctx context.Context, tx pgx.Tx, id int64) (User, error) {
	u, err := scanUser(tx.QueryRow(ctx, selectUserColumns+` WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("lock user: %w", err)
	}
	return u, nil
}

// SaveRecommended writes the recommended set of user id inside tx.
func SaveRecommended(ctx context.Context, tx pgx.Tx, id int64, set IDSet) error {
	ids := set.Sorted()
	if ids == nil {
		ids = []int64{}
	}
	cmd, err := tx.Exec(ctx, `UPDATE users SET recommended_ids = $2 WHERE id = $1`, id, ids)
	if err != nil {
		return fmt.Errorf("update recommended ids: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (User, error) {
	var (
		u   User
		ids []int64
	)
	if err := row.Scan(&u.ID, &u.Name, &u.PasswordHash, &ids); err != nil {
		return User{}, err
	}
	u.Recommended = NewIDSet(ids...)
	return u, nil
}
