package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/p-n-ai/akshar/internal/account"
)

const liveWriteTimeout = 5 * time.Second

type liveCount struct {
	ProblemID       int64 `json:"problem_id"`
	Recommendations int   `json:"recommendations"`
}

// handleLive streams the recommendation counter of one problem: the current
// value right after the upgrade, then every change.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request, _ account.User) {
	id, err := pathID(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	p, err := s.problems.Get(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}

	// Streams outlive the server's WriteTimeout.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	opts := &websocket.AcceptOptions{}
	if s.originHost != "" {
		opts.OriginPatterns = []string{s.originHost}
	}
	conn, err := websocket.Accept(w, r, opts)
	if err != nil {
		slog.Debug("websocket upgrade failed", "request_id", requestID(r.Context()), "error", err)
		return
	}
	defer conn.CloseNow()

	// Clients never send; CloseRead handles their close frame and cancels ctx.
	ctx := conn.CloseRead(r.Context())

	counts, unsubscribe, err := s.live.Subscribe(ctx, id)
	if err != nil {
		slog.Error("live subscribe failed", "problem_id", id, "error", err)
		conn.Close(websocket.StatusInternalError, "subscription failed")
		return
	}
	defer unsubscribe()

	// Read the counter only after subscribing so no committed toggle falls
	// between the snapshot and the stream.
	p, err = s.problems.Get(ctx, id)
	if err != nil {
		slog.Error("live snapshot failed", "problem_id", id, "error", err)
		conn.Close(websocket.StatusInternalError, "snapshot failed")
		return
	}

	if err := writeCount(ctx, conn, liveCount{ProblemID: id, Recommendations: p.Recommendations}); err != nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case n, ok := <-counts:
			if !ok {
				conn.Close(websocket.StatusGoingAway, "")
				return
			}
			if err := writeCount(ctx, conn, liveCount{ProblemID: id, Recommendations: n}); err != nil {
				return
			}
		}
	}
}

func writeCount(ctx context.Context, conn *websocket.Conn, c liveCount) error {
	ctx, cancel := context.WithTimeout(ctx, liveWriteTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, c)
}
