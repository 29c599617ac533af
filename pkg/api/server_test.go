package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	testdb "github.com/codeready-toolchain/mymoment-monitor/test/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServer_HealthHandler_Healthy(t *testing.T) {
	client := testdb.NewTestClient(t)
	s := NewServer(client, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"healthy"`)
}

func TestServer_HealthHandler_UnhealthyWhenDBClosed(t *testing.T) {
	client := testdb.NewTestClient(t)
	require.NoError(t, client.DB().Close())
	s := NewServer(client, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
