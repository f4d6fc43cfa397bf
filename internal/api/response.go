package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gyaneshwarpardhi/wfgraph/internal/config"
	"github.com/gyaneshwarpardhi/wfgraph/internal/dag"
	"github.com/gyaneshwarpardhi/wfgraph/internal/engine"
)

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorResponse is the standard error envelope.
type errorResponse struct {
	Error  string `json:"error"`
	Status string `json:"status"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg, Status: http.StatusText(status)})
}

// writeErr writes err with the status derived from its kind.
func writeErr(w http.ResponseWriter, err error) {
	writeError(w, statusFor(err), err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, dag.ErrMissingTrigger),
		errors.Is(err, dag.ErrMissingPRNumber),
		errors.Is(err, dag.ErrMissingJobName):
		return http.StatusBadRequest
	case errors.Is(err, config.ErrInvalid),
		errors.Is(err, dag.ErrConfiguration),
		errors.Is(err, engine.ErrCyclicGraph):
		return http.StatusUnprocessableEntity
	case errors.Is(err, engine.ErrQueueFull):
		return http.StatusTooManyRequests
	case errors.Is(err, engine.ErrTimeout),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
