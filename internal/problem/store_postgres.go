package problem

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const dbTimeout = 5 * time.Second

const selectProblem = `SELECT id, owner_id, recommendations, topic, tags, prompt, content FROM problems`

// PostgresStore is a PostgreSQL-backed Store implementation.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgreSQL-backed problem store.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Create(ctx context.Context, np NewProblem) (Problem, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	content, err := MarshalContent(np.Content)
	if err != nil {
		return Problem{}, fmt.Errorf("encode content: %w", err)
	}
	tags := np.Tags
	if tags == nil {
		tags = []string{}
	}

	var id int64
	err = s.pool.QueryRow(ctx,
		`INSERT INTO problems (owner_id, kind, topic, tags, prompt, content)
		 VALUES ($1, $2, $3, $4, $5, $6::jsonb)
		 RETURNING id`,
		np.OwnerID,
		string(np.Content.Kind()),
		string(np.Topic),
		tags,
		np.Prompt,
		string(content),
	).Scan(&id)
	if err != nil {
		return Problem{}, fmt.Errorf("insert problem: %w", err)
	}

	return Problem{
		ID:      id,
		OwnerID: np.OwnerID,
		Topic:   np.Topic,
		Tags:    tags,
		Prompt:  np.Prompt,
		Content: np.Content,
	}, nil
}

func (s *PostgresStore) Get(ctx context.Context, id int64) (Problem, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	p, err := scanProblem(s.pool.QueryRow(ctx, selectProblem+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Problem{}, ErrNotFound
		}
		return Problem{}, fmt.Errorf("get problem: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) Recommendations(ctx context.Context, id int64) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var n int
	err := s.pool.QueryRow(ctx, `SELECT recommendations FROM problems WHERE id = $1`, id).Scan(&n)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("get recommendations: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) Query(ctx context.Context, q Query) ([]int64, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	sql, args := buildQuery(q)
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query problems: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("collect problem ids: %w", err)
	}
	return ids, nil
}

func (s *PostgresStore) ListByOwner(ctx context.Context, ownerID int64) ([]Problem, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx, selectProblem+` WHERE owner_id = $1 ORDER BY id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list problems: %w", err)
	}
	defer rows.Close()

	out := make([]Problem, 0)
	for rows.Next() {
		p, err := scanProblem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan problem: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate problems: %w", err)
	}
	return out, nil
}

// LockForUpdate loads problem id inside tx and holds its row lock until tx
// ends.
func LockForUpdate(ctx context.Context, tx pgx.Tx, id int64) (Problem, error) {
	p, err := scanProblem(tx.QueryRow(ctx, selectProblem+` WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Problem{}, ErrNotFound
		}
		return Problem{}, fmt.Errorf("lock problem: %w", err)
	}
	return p, nil
}

// SaveRecommendations writes the counter of problem id inside tx.
func SaveRecommendations(ctx context.Context, tx pgx.Tx, id int64, n int) error {
	cmd, err := tx.Exec(ctx, `UPDATE problems SET recommendations = $2 WHERE id = $1`, id, n)
	if err != nil {
		return fmt.Errorf("update recommendations: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// buildQuery turns q into a parameterised id query.
func buildQuery(q Query) (string, []any) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		where = append(where, strings.ReplaceAll(cond, "?", "$"+strconv.Itoa(len(args))))
	}

	if q.ID != 0 {
		add("id = ?", q.ID)
	}
	if q.OwnerID != 0 {
		add("owner_id = ?", q.OwnerID)
	}
	if q.Topic != "" {
		add("topic = ?", string(q.Topic))
	}
	if len(q.Tags) > 0 {
		add("tags @> ?", q.Tags)
	}
	if q.Kind != "" {
		add("kind = ?", string(q.Kind))
	}

	var b strings.Builder
	b.WriteString("SELECT id FROM problems")
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	args = append(args, q.Limit())
	b.WriteString(" ORDER BY id LIMIT $" + strconv.Itoa(len(args)))
	return b.String(), args
}

func scanProblem(row pgx.Row) (Problem, error) {
	var (
		p       Problem
		topic   string
		content []byte
	)
	if err := row.Scan(&p.ID, &p.OwnerID, &p.Recommendations, &topic, &p.Tags, &p.Prompt, &content); err != nil {
		return Problem{}, err
	}
	p.Topic = Topic(topic)

	c, err := UnmarshalContent(content)
	if err != nil {
		return Problem{}, fmt.Errorf("problem %d: %w", p.ID, err)
	}
	p.Content = c
	return p, nil
}
