package handlers

import (
	"net/http"
	"os"
	"sort"
	"time"

	"ducktorrents/internal/snapshot"

	"github.com/gin-gonic/gin"
)

// SnapshotFile describes one file of the snapshot directory
type SnapshotFile struct {
	Name       string          `json:"name"`
	Format     snapshot.Format `json:"format"`
	SizeBytes  int64           `json:"size_bytes"`
	ModifiedAt time.Time       `json:"modified_at"`
}

// ListSnapshots returns the snapshot files the server currently offers
func ListSnapshots(snapshotDir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		entries, err := os.ReadDir(snapshotDir)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read snapshot directory"})
			return
		}

		files := []SnapshotFile{}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			format, ok := snapshot.FormatOf(e.Name())
			if !ok {
				continue
			}
			info, err := e.Info()
			if err != nil {
				continue
			}
			files = append(files, SnapshotFile{
				Name:       e.Name(),
				Format:     format,
				SizeBytes:  info.Size(),
				ModifiedAt: info.ModTime().UTC(),
			})
		}
		sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })

		c.JSON(http.StatusOK, gin.H{"files": files})
	}
}
