package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/txn2/linkterm/pkg/ltapi/types"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestRecoveryReturnsEnvelope(t *testing.T) {
	r := gin.New()
	r.Use(Recovery())
	r.GET("/boom", func(*gin.Context) { panic("boom") })

	w := serve(r, http.MethodGet, "/boom")
	require.Equal(t, http.StatusInternalServerError, w.Code)

	var resp types.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INTERNAL_ERROR", resp.Error.Code)
}

func TestCORSPreflight(t *testing.T) {
	r := gin.New()
	r.Use(CORS())
	r.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	w := serve(r, http.MethodOptions, "/x")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))

	w = serve(r, http.MethodGet, "/x")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
}

func TestNoStoreOnlyOnItsGroup(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogger("/metrics"))
	r.GET("/metrics", func(c *gin.Context) { c.String(http.StatusOK, "") })
	r.Group("/api", NoStore()).GET("/health", func(c *gin.Context) { c.String(http.StatusOK, "") })

	assert.Equal(t, "no-store", serve(r, http.MethodGet, "/api/health").Header().Get("Cache-Control"))
	assert.Empty(t, serve(r, http.MethodGet, "/metrics").Header().Get("Cache-Control"))
}
