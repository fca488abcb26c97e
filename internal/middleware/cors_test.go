package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS(), ReadOnly())
	r.Any("/torrents.csv", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	return r
}

func TestCORS_Preflight(t *testing.T) {
	r := newRouter()
	req := httptest.NewRequest(http.MethodOptions, "/torrents.csv", nil)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusNoContent, w.Code)
	require.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	require.Empty(t, w.Body.String())
}

func TestReadOnly(t *testing.T) {
	r := newRouter()

	req := httptest.NewRequest(http.MethodGet, "/torrents.csv", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
		req := httptest.NewRequest(method, "/torrents.csv", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusMethodNotAllowed, w.Code, method)
		require.JSONEq(t, `{"error":"Method not allowed"}`, w.Body.String())
	}
}
