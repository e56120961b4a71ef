package recommend

import (
	"context"
	"log/slog"

	"github.com/p-n-ai/akshar/internal/account"
	"github.com/p-n-ai/akshar/internal/activity"
	"github.com/p-n-ai/akshar/internal/platform/apperr"
	"github.com/p-n-ai/akshar/internal/problem"
)

// Invalidator drops cached copies of a problem.
type Invalidator interface {
	Invalidate(ctx context.Context, id int64) error
}

// Service toggles recommendations and notifies everything that mirrors the
// counter once the change is committed.
type Service struct {
	store       Store
	broadcaster Broadcaster
	cache       Invalidator
	events      activity.Logger
}

// Option configures a Service.
type Option func(*Service)

func WithBroadcaster(b Broadcaster) Option {
	return func(s *Service) { s.broadcaster = b }
}

func WithInvalidator(c Invalidator) Option {
	return func(s *Service) { s.cache = c }
}

func WithEvents(l activity.Logger) Option {
	return func(s *Service) { s.events = l }
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{store: store, events: activity.NopLogger{}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Toggle applies intent for the user and problem and returns the new
// counter.
func (s *Service) Toggle(ctx context.Context, userID, problemID int64, intent Intent) (int, error) {
	_, p, err := s.store.Update(ctx, userID, problemID, func(u account.User, p problem.Problem) (account.User, problem.Problem, error) {
		return Apply(u, p, intent)
	})
	if err != nil {
		result := "fault"
		if _, ok := apperr.AsRejection(err); ok {
			result = "rejected"
		}
		togglesTotal.WithLabelValues(intent.String(), result).Inc()
		return 0, err
	}
	togglesTotal.WithLabelValues(intent.String(), "ok").Inc()

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, problemID); err != nil {
			slog.Warn("problem cache not invalidated", "problem_id", problemID, "error", err)
		}
	}
	if s.broadcaster != nil {
		if err := s.broadcaster.Publish(ctx, problemID, p.Recommendations); err != nil {
			slog.Warn("recommendation count not broadcast", "problem_id", problemID, "error", err)
		}
	}

	eventType := activity.Recommended
	if intent == Undo {
		eventType = activity.RecommendationUndone
	}
	activity.Record(ctx, s.events, activity.Event{
		UserID:    userID,
		ProblemID: problemID,
		Type:      eventType,
		Data:      map[string]any{"recommendations": p.Recommendations},
	})

	return p.Recommendations, nil
}
