package snapshot

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"ducktorrents/internal/models"

	"github.com/IncSW/go-bencode"
)

var ErrInvalidTorrentFile = errors.New("invalid torrent file")

// FromTorrentFile builds a record from the content of a .torrent file.
// Counters start at zero; created_unix comes from "creation date" when present.
func FromTorrentFile(content []byte, now time.Time) (models.Torrent, error) {
	var t models.Torrent
	if len(content) == 0 {
		return t, fmt.Errorf("%w: empty content", ErrInvalidTorrentFile)
	}

	decoded, err := bencode.Unmarshal(content)
	if err != nil {
		return t, fmt.Errorf("%w: %v", ErrInvalidTorrentFile, err)
	}
	root, ok := decoded.(map[string]interface{})
	if !ok {
		return t, fmt.Errorf("%w: root is not a dictionary", ErrInvalidTorrentFile)
	}
	info, ok := root["info"].(map[string]interface{})
	if !ok {
		return t, fmt.Errorf("%w: info dictionary not found", ErrInvalidTorrentFile)
	}

	// infohash is the SHA1 of the bencoded info dictionary
	infoBencoded, err := bencode.Marshal(info)
	if err != nil {
		return t, fmt.Errorf("%w: marshal info dict: %v", ErrInvalidTorrentFile, err)
	}
	sum := sha1.Sum(infoBencoded)
	t.InfoHash = hex.EncodeToString(sum[:])

	t.Name = asString(info["name"])
	if t.Name == "" {
		return t, fmt.Errorf("%w: missing name", ErrInvalidTorrentFile)
	}

	if length, ok := asInt(info["length"]); ok {
		t.SizeBytes = uint64(length)
	} else if files, ok := info["files"].([]interface{}); ok {
		for _, f := range files {
			file, ok := f.(map[string]interface{})
			if !ok {
				continue
			}
			if length, ok := asInt(file["length"]); ok && length > 0 {
				t.SizeBytes += uint64(length)
			}
		}
	}

	t.CreatedUnix = now.Unix()
	if created, ok := asInt(root["creation date"]); ok && created > 0 {
		t.CreatedUnix = created
	}
	t.ScrapedDate = now.Unix()
	return t, nil
}

func asString(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	}
	return ""
}

func asInt(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	}
	return 0, false
}
