package httpclient

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/ameliazsabrina/sericlo-app/pkg/errors"
)

func newResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestParseResponseError_StructuredNotFound(t *testing.T) {
	resp := newResponse(http.StatusNotFound, `{"success":false,"error":"user not found","code":"NOT_FOUND"}`)

	err := ParseResponseError(resp, "identity")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Contains(t, err.Error(), "identity")
}

func TestParseResponseError_StructuredUnauthorized(t *testing.T) {
	resp := newResponse(http.StatusUnauthorized, `{"success":false,"error":"token expired","code":"INVALID_SESSION"}`)

	err := ParseResponseError(resp, "identity")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidSession)
	assert.Equal(t, http.StatusUnauthorized, apperrors.HTTPStatus(err))
}

func TestParseResponseError_StructuredConflict(t *testing.T) {
	resp := newResponse(http.StatusConflict, `{"success":false,"error":"already settled","code":"CONFLICT"}`)

	err := ParseResponseError(resp, "payments")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestParseResponseError_UnstructuredBody(t *testing.T) {
	resp := newResponse(http.StatusBadGateway, `upstream timed out`)

	err := ParseResponseError(resp, "gateway")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gateway")
	assert.Contains(t, err.Error(), "502")
}

func TestIsClientError(t *testing.T) {
	assert.True(t, IsClientError(http.StatusBadRequest))
	assert.True(t, IsClientError(http.StatusNotFound))
	assert.False(t, IsClientError(http.StatusOK))
	assert.False(t, IsClientError(http.StatusInternalServerError))
}
