package recommend

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/robfig/cron/v3"
)

const auditTimeout = 2 * time.Minute

// Drift is a problem whose stored counter disagrees with the number of
// users holding its id.
type Drift struct {
	ProblemID int64
	Counter   int
	Actual    int
}

// AuditStore recomputes the counter invariant over all stored records.
type AuditStore interface {
	Drift(ctx context.Context) ([]Drift, error)
}

func (s *MemoryStore) Drift(_ context.Context) ([]Drift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	actual := make(map[int64]int)
	for _, u := range s.users.All() {
		for id := range u.Recommended {
			actual[id]++
		}
	}

	var out []Drift
	for _, p := range s.problems.All() {
		if p.Recommendations != actual[p.ID] {
			out = append(out, Drift{ProblemID: p.ID, Counter: p.Recommendations, Actual: actual[p.ID]})
		}
	}
	slices.SortFunc(out, func(a, b Drift) int { return cmp.Compare(a.ProblemID, b.ProblemID) })
	return out, nil
}

func (s *PostgresStore) Drift(ctx context.Context) ([]Drift, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT p.id, p.recommendations, COUNT(u.id)::int
		 FROM problems p
		 LEFT JOIN users u ON p.id = ANY (u.recommended_ids)
		 GROUP BY p.id, p.recommendations
		 HAVING p.recommendations <> COUNT(u.id)
		 ORDER BY p.id`,
	)
	if err != nil {
		return nil, fmt.Errorf("audit recommendations: %w", err)
	}
	drifts, err := pgx.CollectRows(rows, pgx.RowToStructByPos[Drift])
	if err != nil {
		return nil, fmt.Errorf("collect drift rows: %w", err)
	}
	return drifts, nil
}

// Auditor periodically checks the counter invariant. It only reports; a
// drifting counter needs a human to look at how it happened.
type Auditor struct {
	store    AuditStore
	schedule string
	cron     *cron.Cron
}

func NewAuditor(store AuditStore, schedule string) *Auditor {
	return &Auditor{
		store:    store,
		schedule: schedule,
		cron:     cron.New(),
	}
}

// Check runs one audit, logs every drifting problem and updates the drift
// gauge.
func (a *Auditor) Check(ctx context.Context) ([]Drift, error) {
	drifts, err := a.store.Drift(ctx)
	if err != nil {
		return nil, err
	}
	for _, d := range drifts {
		slog.Error("recommendation counter drift",
			"problem_id", d.ProblemID,
			"counter", d.Counter,
			"actual", d.Actual,
		)
	}
	driftGauge.Set(float64(len(drifts)))
	return drifts, nil
}

// Run audits once immediately and then on the cron schedule until ctx ends.
// An empty schedule disables the auditor.
func (a *Auditor) Run(ctx context.Context) error {
	if a.schedule == "" {
		slog.Info("recommendation audit disabled")
		return nil
	}

	_, err := a.cron.AddFunc(a.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), auditTimeout)
		defer cancel()
		if _, err := a.Check(ctx); err != nil {
			slog.Error("scheduled recommendation audit failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule audit %q: %w", a.schedule, err)
	}

	if _, err := a.Check(ctx); err != nil {
		slog.Error("initial recommendation audit failed", "error", err)
	}

	slog.Info("starting recommendation audit", "cron", a.schedule)
	a.cron.Start()

	<-ctx.Done()
	stopCtx := a.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(5 * time.Second):
	}
	slog.Info("recommendation audit stopped")
	return nil
}
