package handlers

import (
	"bytes"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"

	"ducktorrents/internal/snapshot"

	"github.com/gin-gonic/gin"
)

// SiteHandler serves the static site from site and snapshot files from
// snapshotDir. It is mounted as the NoRoute handler so the site owns every
// path that is not an API route. "/" serves index.html directly, without the
// redirect http.FileServer would answer for it. Methods other than GET and
// HEAD are expected to be rejected before it runs.
func SiteHandler(site fs.FS, snapshotDir string) gin.HandlerFunc {
	snapshots := http.FileServer(http.Dir(snapshotDir))

	return func(c *gin.Context) {
		p := path.Clean("/" + c.Request.URL.Path)
		if snapshot.IsSnapshotPath(p) {
			// clients revalidate snapshots themselves
			c.Header("Cache-Control", "no-cache")
			snapshots.ServeHTTP(c.Writer, c.Request)
			return
		}

		name := strings.TrimPrefix(p, "/")
		if name == "" {
			name = "index.html"
		}
		data, err := fs.ReadFile(site, name)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		}
		var modTime time.Time
		if info, err := fs.Stat(site, name); err == nil {
			modTime = info.ModTime()
		}
		http.ServeContent(c.Writer, c.Request, name, modTime, bytes.NewReader(data))
	}
}
