package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/p-n-ai/akshar/internal/account"
	"github.com/p-n-ai/akshar/internal/platform/apperr"
	"github.com/p-n-ai/akshar/internal/problem"
	"github.com/p-n-ai/akshar/internal/recommend"
)

const maxBodyBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("write response failed", "error", err)
	}
}

type errorBody struct {
	Error string `json:"error"`
}

// rejectionStatus maps a user-facing refusal to its HTTP status.
func rejectionStatus(err error) int {
	switch {
	case errors.Is(err, problem.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, recommend.ErrAlreadyRecommended),
		errors.Is(err, recommend.ErrNotRecommended),
		errors.Is(err, account.ErrNameTaken):
		return http.StatusConflict
	case errors.Is(err, account.ErrBadCredentials),
		errors.Is(err, account.ErrNotFound),
		errors.Is(err, recommend.ErrUnknownUser):
		return http.StatusUnauthorized
	}
	return http.StatusBadRequest
}

// fail writes err. Rejections keep their message; anything else is logged
// and hidden behind a generic 500.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	failAs(w, r, err, 0)
}

// failAs is fail with a fixed status for rejections that are not covered by
// rejectionStatus. A zero status uses the mapping.
func failAs(w http.ResponseWriter, r *http.Request, err error, rejectStatus int) {
	if rej, ok := apperr.AsRejection(err); ok {
		status := rejectStatus
		if status == 0 {
			status = rejectionStatus(err)
		}
		slog.Debug("request rejected",
			"request_id", requestID(r.Context()),
			"status", status,
			"reason", rej.Message,
		)
		writeJSON(w, status, errorBody{Error: rej.Message})
		return
	}

	attrs := []any{"request_id", requestID(r.Context()), "method", r.Method, "path", r.URL.Path, "error", err}
	if apperr.IsFault(err) {
		slog.Error("internal fault", attrs...)
	} else {
		slog.Error("request failed", attrs...)
	}
	writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
}

// decodeJSON reads a JSON body into v and validates its struct tags.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return apperr.Reject("Request body is too large")
		case errors.Is(err, io.EOF):
			return apperr.Reject("Request body is empty")
		}
		return apperr.Reject("Request body is not valid JSON")
	}

	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return apperr.Reject("Field %s is invalid (%s)", verrs[0].Field(), verrs[0].Tag())
		}
		return apperr.Faultf("validate request: %v", err)
	}
	return nil
}

// pathID parses the {id} wildcard.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Reject("Problem id must be a positive integer")
	}
	return id, nil
}
