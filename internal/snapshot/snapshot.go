// Package snapshot reads and writes the dataset snapshot and loads it into
// the queryable data source.
package snapshot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"ducktorrents/internal/models"

	"gorm.io/gorm"
)

var (
	ErrUnknownFormat = errors.New("unknown snapshot format")
	ErrMalformed     = errors.New("malformed snapshot")
	ErrInitFailed    = errors.New("snapshot could not be loaded")
)

// Format identifies a snapshot codec.
type Format string

const (
	FormatParquet Format = "parquet"
	FormatCSV     Format = "csv"
)

// FormatOf derives the snapshot format from a file name or URL path.
func FormatOf(name string) (Format, bool) {
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	switch strings.ToLower(path.Ext(name)) {
	case ".parquet":
		return FormatParquet, true
	case ".csv":
		return FormatCSV, true
	}
	return "", false
}

// IsSnapshotPath reports whether the path names a snapshot file.
func IsSnapshotPath(name string) bool {
	_, ok := FormatOf(name)
	return ok
}

// Decode parses data with the codec matching name's extension.
func Decode(name string, data []byte) ([]models.Torrent, error) {
	format, ok := FormatOf(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, name)
	}
	switch format {
	case FormatParquet:
		return DecodeParquet(data)
	default:
		return DecodeCSV(bytes.NewReader(data))
	}
}

const ingestBatchSize = 500

// Ingest replaces the whole torrents table with rows in one transaction.
// Rows are validated first; a duplicate infohash keeps the last occurrence.
func Ingest(ctx context.Context, db *gorm.DB, rows []models.Torrent) error {
	for i := range rows {
		if err := rows[i].Validate(); err != nil {
			return fmt.Errorf("%w: row %d: %v", ErrMalformed, i+1, err)
		}
	}
	rows = dedupe(rows)

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Torrent{}).Error; err != nil {
			return fmt.Errorf("clear torrents: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(rows, ingestBatchSize).Error; err != nil {
			return fmt.Errorf("insert torrents: %w", err)
		}
		return nil
	})
}

func dedupe(rows []models.Torrent) []models.Torrent {
	last := make(map[string]int, len(rows))
	for i, t := range rows {
		last[t.InfoHash] = i
	}
	if len(last) == len(rows) {
		return rows
	}
	out := make([]models.Torrent, 0, len(last))
	for i, t := range rows {
		if last[t.InfoHash] == i {
			out = append(out, t)
		}
	}
	return out
}
