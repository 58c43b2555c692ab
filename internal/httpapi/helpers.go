package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"userhub.org/internal/audit"
	"userhub.org/internal/token"
	"userhub.org/internal/user"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// errorBody is the uniform failure envelope. Validation failures may
// carry several messages; everything else carries one.
type errorBody struct {
	Errors    []string `json:"errors"`
	RequestID string   `json:"request_id,omitempty"`
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msgs ...string) {
	writeJSON(w, status, errorBody{
		Errors:    msgs,
		RequestID: audit.RequestIDFromContext(r.Context()),
	})
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
}

// decodeJSON decodes a single JSON value into dst. Unknown keys and
// trailing garbage are rejected so that malformed or misdirected
// payloads fail loudly instead of being half-applied.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return fmt.Errorf("unexpected data after JSON body")
	}
	return nil
}

// writeUserError translates domain errors to HTTP statuses. Unmatched
// errors become opaque 500s; the detail stays in the server log.
func writeUserError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, user.ErrFlagsImmutable):
		writeError(w, r, http.StatusBadRequest, "User cannot change permission flags")
	case errors.Is(err, user.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, strings.TrimPrefix(err.Error(), "user: "))
	case errors.Is(err, user.ErrInvalidCredentials):
		writeError(w, r, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, token.ErrMalformed),
		errors.Is(err, token.ErrExpired),
		errors.Is(err, token.ErrWrongKind):
		writeError(w, r, http.StatusUnauthorized, "invalid token")
	case errors.Is(err, user.ErrForbidden):
		writeError(w, r, http.StatusForbidden, "forbidden")
	case errors.Is(err, user.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "not found")
	case errors.Is(err, user.ErrConflict):
		writeError(w, r, http.StatusConflict, "email already registered")
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
