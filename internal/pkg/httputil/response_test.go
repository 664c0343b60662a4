package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOK(t *testing.T) {
	rec := httptest.NewRecorder()
	OK(rec, map[string]int{"total": 3})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"total":3}`, rec.Body.String())
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestWriteErrorProblem(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/analytics/top-performers", nil)
	WriteError(rec, req, Invalid("invalid_query", "bad limit", map[string]string{"Limit": "max"}))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "invalid_query", body.Code)
	assert.Equal(t, "bad limit", body.Error)
	assert.Equal(t, map[string]any{"Limit": "max"}, body.Details)
}

func TestWriteErrorWrappedProblem(t *testing.T) {
	rec := httptest.NewRecorder()
	err := fmt.Errorf("heatmap: %w", Timeout())
	WriteError(rec, httptest.NewRequest(http.MethodGet, "/", nil), err)

	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	assert.Equal(t, "timeout", decode(t, rec).Code)
}

func TestWriteErrorHidesCause(t *testing.T) {
	var captured *http.Request
	h := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r
		WriteError(w, r, errors.New("pq: connection refused"))
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/analytics/funnel", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "internal server error", body.Error)
	assert.NotContains(t, rec.Body.String(), "pq:")
	assert.Equal(t, middleware.GetReqID(captured.Context()), body.RequestID)
	assert.NotEmpty(t, body.RequestID)
}

func TestProblemError(t *testing.T) {
	assert.Equal(t, "404 not found", NotFound("not found").Error())
	assert.Equal(t, http.StatusBadRequest, BadRequest("x").Status)
}
