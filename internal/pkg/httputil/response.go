package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/ignite/leadgen-crm/internal/pkg/logger"
)

// ErrorResponse is the standard error envelope for all API errors.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// Problem is an error whose message is safe to show the client.
type Problem struct {
	Status  int
	Code    string
	Message string
	Details any
}

func (p *Problem) Error() string {
	return fmt.Sprintf("%d %s", p.Status, p.Message)
}

// BadRequest is a 400 problem.
func BadRequest(message string) *Problem {
	return &Problem{Status: http.StatusBadRequest, Message: message}
}

// Invalid is a 400 problem with a machine-readable code and details,
// e.g. per-field validation failures.
func Invalid(code, message string, details any) *Problem {
	return &Problem{Status: http.StatusBadRequest, Code: code, Message: message, Details: details}
}

// NotFound is a 404 problem.
func NotFound(message string) *Problem {
	return &Problem{Status: http.StatusNotFound, Message: message}
}

// Timeout is a 504 problem for work cut off by the request deadline.
func Timeout() *Problem {
	return &Problem{Status: http.StatusGatewayTimeout, Code: "timeout", Message: "request timed out"}
}

var problemLog = logger.With("component", "http")

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		problemLog.Error("json encode failed", "error", err)
	}
}

// OK writes a 200 response with the given data.
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, data)
}

// ServiceUnavailable writes a 503 with data, used by health checks.
func ServiceUnavailable(w http.ResponseWriter, data any) {
	JSON(w, http.StatusServiceUnavailable, data)
}

// WriteError writes err as an error envelope. A *Problem anywhere in the
// chain is shown as-is; anything else is logged and reported as a generic
// 500 so internals never reach the client.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	reqID := middleware.GetReqID(r.Context())

	var p *Problem
	if !errors.As(err, &p) {
		problemLog.Error("request failed", "request_id", reqID, "method", r.Method,
			"path", r.URL.Path, "error", err)
		p = &Problem{Status: http.StatusInternalServerError, Message: "internal server error"}
	}
	JSON(w, p.Status, ErrorResponse{
		Error:     p.Message,
		Code:      p.Code,
		Details:   p.Details,
		RequestID: reqID,
	})
}
