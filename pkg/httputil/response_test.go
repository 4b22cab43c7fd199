package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/ameliazsabrina/sericlo-app/pkg/errors"
	"github.com/ameliazsabrina/sericlo-app/pkg/logger"
	"github.com/ameliazsabrina/sericlo-app/pkg/validator"
)

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestWriteData(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteData(rec, map[string]string{"order_id": "ORDER-1-1"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	resp := decodeEnvelope(t, rec)
	assert.True(t, resp.Success)
	assert.Empty(t, resp.Error)
}

func TestWriteError_AppError(t *testing.T) {
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/checkout", nil)

	WriteError(rec, r, apperrors.EmptyCart(), logger.NewWithWriter("test", "error", rec.Body))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeEnvelope(t, rec)
	assert.False(t, resp.Success)
	assert.Equal(t, "EMPTY_CART", resp.Code)
	assert.Equal(t, "cart is empty", resp.Error)
}

func TestWriteError_UpstreamCauseNotLeaked(t *testing.T) {
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/checkout", nil)

	cause := errors.New("dial tcp 10.0.0.1:443: connection refused")
	WriteError(rec, r, apperrors.Upstream("payment gateway", cause), testLogger())

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decodeEnvelope(t, rec)
	assert.False(t, resp.Success)
	assert.Equal(t, "UPSTREAM_ERROR", resp.Code)
	assert.NotContains(t, resp.Error, "10.0.0.1")
}

func TestWriteError_UnknownErrorIs500(t *testing.T) {
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/cart", nil)

	WriteError(rec, r, errors.New("boom"), testLogger())

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decodeEnvelope(t, rec)
	assert.Equal(t, "an internal error occurred", resp.Error)
}

func TestWriteValidationError(t *testing.T) {
	type body struct {
		Quantity int `validate:"required,gt=0"`
	}
	err := validator.Validate(body{})
	require.Error(t, err)

	rec := httptest.NewRecorder()
	WriteValidationError(rec, err)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeEnvelope(t, rec)
	assert.Equal(t, "VALIDATION_ERROR", resp.Code)
	assert.Contains(t, resp.Error, "Quantity")
}

func testLogger() *slog.Logger {
	return logger.NewWithWriter("test", "error", discard{})
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
