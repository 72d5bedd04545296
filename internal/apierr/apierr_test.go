package apierr

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func response(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestFromResponse_PrefersServerMessage(t *testing.T) {
	resp := response(http.StatusConflict, `{"error":"Conflict","message":"video ID 'clip' already exists"}`)

	err := FromResponse(Presign, resp)

	assert.Equal(t, Presign, err.Kind)
	assert.Equal(t, http.StatusConflict, err.Status)
	assert.Equal(t, "video ID 'clip' already exists", err.Message)
}

func TestFromResponse_FallsBackToErrorField(t *testing.T) {
	resp := response(http.StatusBadRequest, `{"error":"videoId and filename are required"}`)

	err := FromResponse(Notify, resp)

	assert.Equal(t, "videoId and filename are required", err.Message)
}

func TestFromResponse_FallsBackToStatusText(t *testing.T) {
	resp := response(http.StatusBadGateway, "<html>upstream exploded</html>")

	err := FromResponse(Fetch, resp)

	assert.Equal(t, http.StatusBadGateway, err.Status)
	assert.Equal(t, "HTTP 502: Bad Gateway", err.Message)
}

func TestNetwork_HasZeroStatus(t *testing.T) {
	err := Network(Transfer, fmt.Errorf("connection refused"))

	assert.Equal(t, 0, err.Status)
	assert.Equal(t, "connection refused", err.Message)
	assert.True(t, IsKind(err, Transfer))
}

func TestIsKind_SeesThroughWrapping(t *testing.T) {
	inner := New(NotFound, http.StatusNotFound, "video not found")
	wrapped := fmt.Errorf("poll attempt 3: %w", inner)

	assert.True(t, IsNotFound(wrapped))
	assert.False(t, IsKind(wrapped, Delete))
}

func TestError_String(t *testing.T) {
	assert.Equal(t, "delete: gone wrong (status 500)", New(Delete, 500, "gone wrong").Error())
	assert.Equal(t, "transfer: timeout", Network(Transfer, fmt.Errorf("timeout")).Error())
}
