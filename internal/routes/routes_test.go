package routes

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ducktorrents/internal/realtime"
	"ducktorrents/web"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*gin.Engine, string, *realtime.Hub) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "torrents.csv"), []byte("infohash;name\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README"), []byte("skip me"), 0o644))
	hub := realtime.NewHub()
	return SetupRoutes(Deps{Site: web.FS, SnapshotDir: dir, Hub: hub}), dir, hub
}

func get(r http.Handler, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestHealth(t *testing.T) {
	r, _, _ := setup(t)
	w := get(r, http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestSite(t *testing.T) {
	r, _, _ := setup(t)

	w := get(r, http.MethodGet, "/")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "<title>DuckTorrents</title>")

	// served as is, no redirect to "/"
	w = get(r, http.MethodGet, "/index.html")
	require.Equal(t, http.StatusOK, w.Code)

	w = get(r, http.MethodGet, "/style.css")
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/css"))

	w = get(r, http.MethodGet, "/app.js")
	require.Equal(t, http.StatusNotFound, w.Code)

	w = get(r, http.MethodPost, "/index.html")
	require.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestSnapshotFiles(t *testing.T) {
	r, _, _ := setup(t)

	w := get(r, http.MethodGet, "/torrents.csv")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "infohash;name\n", w.Body.String())
	require.Equal(t, "no-cache", w.Header().Get("Cache-Control"))

	w = get(r, http.MethodGet, "/torrents.parquet")
	require.Equal(t, http.StatusNotFound, w.Code)

	w = get(r, http.MethodGet, "/api/snapshot")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Files []struct {
			Name      string `json:"name"`
			Format    string `json:"format"`
			SizeBytes int64  `json:"size_bytes"`
		} `json:"files"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Files, 1)
	require.Equal(t, "torrents.csv", body.Files[0].Name)
	require.Equal(t, "csv", body.Files[0].Format)
	require.Equal(t, int64(14), body.Files[0].SizeBytes)
}

func TestCORSPreflight(t *testing.T) {
	r, _, _ := setup(t)
	w := get(r, http.MethodOptions, "/torrents.csv")
	require.Equal(t, http.StatusNoContent, w.Code)
	require.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetrics(t *testing.T) {
	r, _, _ := setup(t)
	w := get(r, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "go_goroutines")
}

func TestWebSocketReceivesBroadcast(t *testing.T) {
	r, _, hub := setup(t)
	srv := httptest.NewServer(r)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Count() == 1 }, time.Second, 5*time.Millisecond)
	sent, err := hub.Publish(realtime.SnapshotUpdated("torrents.parquet"))
	require.NoError(t, err)
	require.Equal(t, 1, sent)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	ev, err := realtime.DecodeEvent(data)
	require.NoError(t, err)
	require.Equal(t, realtime.EventSnapshotUpdated, ev.Type)

	conn.Close()
	require.Eventually(t, func() bool { return hub.Count() == 0 }, time.Second, 5*time.Millisecond)
}
