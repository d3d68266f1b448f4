// internal/app/system/apierr/apierr.go
//
// Package apierr defines the error taxonomy for the admin API and renders
// errors as JSON bodies.
//
// Four conditions cover every failure a handler can surface:
//   - Unauthorized: scope or role check failed before any write
//   - NotFound: a referenced id is absent
//   - PreconditionFailed: a documented precondition does not hold
//     (e.g. sync on an inactive or unvalidated record)
//   - Transient: the store was unreachable; the client may retry manually
//
// None of these are fatal to the process; every failure is scoped to the
// single request that triggered it. Scope violations on the read path are
// not errors at all; they degrade to empty result sets.
package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"
)

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrNotFound           = errors.New("not found")
	ErrPreconditionFailed = errors.New("precondition failed")
	ErrTransient          = errors.New("service unavailable")
)

// response is the JSON error body. Action names the attempted operation so
// the dashboard can show a human-readable notification; nothing fails
// silently on the mutation path.
type response struct {
	Error  string `json:"error"`
	Action string `json:"action,omitempty"`
	Retry  bool   `json:"retry,omitempty"`
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrPreconditionFailed):
		return http.StatusPreconditionFailed
	case errors.Is(err, ErrTransient):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Render writes err as a JSON error body with the matching status code.
// action names the attempted operation ("validate donation type").
func Render(w http.ResponseWriter, err error, action string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusFor(err))
	_ = json.NewEncoder(w).Encode(response{
		Error:  err.Error(),
		Action: action,
		Retry:  errors.Is(err, ErrTransient),
	})
}

// RenderStore logs a store failure and renders it as Transient. Store
// errors are never shown verbatim; the client gets a retry prompt.
func RenderStore(w http.ResponseWriter, log *zap.Logger, action string, err error) {
	if log != nil {
		log.Error(action+" failed", zap.Error(err))
	}
	Render(w, ErrTransient, action)
}

// Unauthorized renders ErrUnauthorized for the named action.
func Unauthorized(w http.ResponseWriter, action string) {
	Render(w, ErrUnauthorized, action)
}

// NotFound renders ErrNotFound for the named action.
func NotFound(w http.ResponseWriter, action string) {
	Render(w, ErrNotFound, action)
}

// BadRequest writes a 400 with the given message. Validation failures are
// request errors, not taxonomy conditions.
func BadRequest(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	_ = json.NewEncoder(w).Encode(response{Error: msg})
}
