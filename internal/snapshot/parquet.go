package snapshot

import (
	"bytes"
	"fmt"
	"io"

	"ducktorrents/internal/models"

	"github.com/parquet-go/parquet-go"
)

// parquetRow is the columnar layout of the snapshot.
type parquetRow struct {
	InfoHash    string `parquet:"infohash"`
	Name        string `parquet:"name"`
	SizeBytes   int64  `parquet:"size_bytes"`
	CreatedUnix int64  `parquet:"created_unix"`
	Seeders     int64  `parquet:"seeders"`
	Leechers    int64  `parquet:"leechers"`
	Completed   int64  `parquet:"completed"`
	ScrapedDate int64  `parquet:"scraped_date"`
}

// DecodeParquet reads every row of a columnar snapshot held in memory.
func DecodeParquet(data []byte) ([]models.Torrent, error) {
	rows, err := parquet.Read[parquetRow](bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	out := make([]models.Torrent, 0, len(rows))
	for _, r := range rows {
		if r.InfoHash == "" {
			continue
		}
		if r.SizeBytes < 0 {
			return nil, fmt.Errorf("%w: negative size_bytes for %s", ErrMalformed, r.InfoHash)
		}
		out = append(out, models.Torrent{
			InfoHash:    r.InfoHash,
			Name:        r.Name,
			SizeBytes:   uint64(r.SizeBytes),
			CreatedUnix: r.CreatedUnix,
			Seeders:     r.Seeders,
			Leechers:    r.Leechers,
			Completed:   r.Completed,
			ScrapedDate: r.ScrapedDate,
		})
	}
	return out, nil
}

// EncodeParquet writes rows as a columnar snapshot.
func EncodeParquet(w io.Writer, rows []models.Torrent) error {
	out := make([]parquetRow, len(rows))
	for i, t := range rows {
		out[i] = parquetRow{
			InfoHash:    t.InfoHash,
			Name:        t.Name,
			SizeBytes:   int64(t.SizeBytes),
			CreatedUnix: t.CreatedUnix,
			Seeders:     t.Seeders,
			Leechers:    t.Leechers,
			Completed:   t.Completed,
			ScrapedDate: t.ScrapedDate,
		}
	}
	return parquet.Write(w, out)
}
