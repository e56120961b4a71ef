package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/p-n-ai/akshar/internal/account"
	"github.com/p-n-ai/akshar/internal/activity"
	"github.com/p-n-ai/akshar/internal/platform/apperr"
	"github.com/p-n-ai/akshar/internal/problem"
	"github.com/p-n-ai/akshar/internal/recommend"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type createProblemRequest struct {
	OwnerID *int64          `json:"owner_id"`
	Topic   string          `json:"topic" validate:"required"`
	Tags    []string        `json:"tags"`
	Prompt  string          `json:"prompt" validate:"required"`
	Content json.RawMessage `json:"content" validate:"required"`
}

// parseQuery reads the problem filters from URL parameters.
func parseQuery(v url.Values) (problem.Query, error) {
	var q problem.Query

	ints := []struct {
		name string
		dst  *int64
	}{
		{"id", &q.ID},
		{"owner_id", &q.OwnerID},
	}
	for _, p := range ints {
		raw := v.Get(p.name)
		if raw == "" {
			continue
		}
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n <= 0 {
			return problem.Query{}, apperr.Reject("Query parameter %s must be a positive integer", p.name)
		}
		*p.dst = n
	}

	if raw := v.Get("max_results"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return problem.Query{}, apperr.Reject("Query parameter max_results must be a positive integer")
		}
		q.MaxResults = n
	}

	if raw := v.Get("topic"); raw != "" {
		q.Topic = problem.Topic(raw)
		if !q.Topic.Valid() {
			return problem.Query{}, apperr.Reject("Unknown topic %q", raw)
		}
	}
	if raw := v.Get("kind"); raw != "" {
		q.Kind = problem.Kind(raw)
		if !q.Kind.Valid() {
			return problem.Query{}, apperr.Reject("Unknown answer type %q", raw)
		}
	}
	for _, tag := range strings.Split(v.Get("tags"), ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			q.Tags = append(q.Tags, tag)
		}
	}
	return q, nil
}

func (s *Server) handleQueryProblems(w http.ResponseWriter, r *http.Request, _ account.User) {
	q, err := parseQuery(r.URL.Query())
	if err != nil {
		fail(w, r, err)
		return
	}
	ids, err := s.problems.Query(r.Context(), q)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]int64{"ids": ids})
}

func (s *Server) handleCreateProblem(w http.ResponseWriter, r *http.Request, u account.User) {
	var req createProblemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}
	if req.OwnerID != nil && *req.OwnerID != u.ID {
		fail(w, r, apperr.Reject("owner_id must match the logged in user"))
		return
	}

	content, err := problem.DecodeContent(req.Content)
	if err != nil {
		fail(w, r, err)
		return
	}
	np := problem.NewProblem{
		OwnerID: u.ID,
		Topic:   problem.Topic(req.Topic),
		Tags:    req.Tags,
		Prompt:  req.Prompt,
		Content: content,
	}
	if err := problem.ValidateNew(np); err != nil {
		fail(w, r, err)
		return
	}

	p, err := s.problems.Create(r.Context(), np)
	if err != nil {
		fail(w, r, err)
		return
	}
	activity.Record(r.Context(), s.events, activity.Event{
		UserID:    u.ID,
		ProblemID: p.ID,
		Type:      activity.ProblemCreated,
		Data:      map[string]any{"kind": string(p.Kind()), "topic": string(p.Topic)},
	})
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleGetProblem(w http.ResponseWriter, r *http.Request, _ account.User) {
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
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request, u account.User) {
	id, err := pathID(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	var answer problem.Answer
	if err := decodeJSON(w, r, &answer); err != nil {
		fail(w, r, err)
		return
	}
	p, err := s.problems.Get(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}

	kind := string(p.Kind())
	v, err := problem.Grade(p.Content, answer)
	if err != nil {
		result := "fault"
		if _, ok := apperr.AsRejection(err); ok {
			result = "rejected"
		}
		answersGradedTotal.WithLabelValues(kind, result).Inc()
		failAs(w, r, err, http.StatusUnprocessableEntity)
		return
	}

	result := "incorrect"
	if v.Correct {
		result = "correct"
	}
	answersGradedTotal.WithLabelValues(kind, result).Inc()
	activity.Record(r.Context(), s.events, activity.Event{
		UserID:    u.ID,
		ProblemID: p.ID,
		Type:      activity.AnswerGraded,
		Data:      map[string]any{"correct": v.Correct, "kind": kind},
	})
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleToggle(intent recommend.Intent) func(http.ResponseWriter, *http.Request, account.User) {
	return func(w http.ResponseWriter, r *http.Request, u account.User) {
		id, err := pathID(r)
		if err != nil {
			fail(w, r, err)
			return
		}
		n, err := s.ledger.Toggle(r.Context(), u.ID, id, intent)
		if err != nil {
			fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"recommendations": n})
	}
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request, u account.User) {
	problems, err := s.problems.ListByOwner(r.Context(), u.ID)
	if err != nil {
		fail(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := problem.WriteWorkbook(&buf, problems); err != nil {
		fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="problems.xlsx"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
