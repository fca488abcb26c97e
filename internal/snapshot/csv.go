package snapshot

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"ducktorrents/internal/models"
)

// Separator is the field separator of the delimited snapshot variant.
const Separator = ';'

// Columns lists the snapshot schema in file order.
var Columns = []string{
	"infohash", "name", "size_bytes", "created_unix",
	"seeders", "leechers", "completed", "scraped_date",
}

// HeaderLine is the header row written at the top of every delimited file.
var HeaderLine = strings.Join(Columns, string(Separator)) + "\n"

func newCSVReader(r io.Reader) *csv.Reader {
	reader := csv.NewReader(r)
	reader.Comma = Separator
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true
	return reader
}

// DecodeCSV parses a `;` separated snapshot with one header row.
// Columns are located by header name, so their order may differ from Columns.
func DecodeCSV(r io.Reader) ([]models.Torrent, error) {
	reader := newCSVReader(r)

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty csv snapshot", ErrMalformed)
		}
		return nil, fmt.Errorf("%w: read header: %v", ErrMalformed, err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	for _, col := range Columns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrMalformed, col)
		}
	}

	var rows []models.Torrent
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		line, _ := reader.FieldPos(0)

		field := func(col string) string {
			i := index[col]
			if i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		// skip invalid lines without an infohash
		if field("infohash") == "" {
			continue
		}

		t, err := parseRecord(field)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformed, line, err)
		}
		rows = append(rows, t)
	}
	return rows, nil
}

func parseRecord(field func(string) string) (models.Torrent, error) {
	t := models.Torrent{
		InfoHash: field("infohash"),
		Name:     field("name"),
	}
	var err error
	if t.SizeBytes, err = parseUint(field("size_bytes")); err != nil {
		return t, fmt.Errorf("size_bytes: %w", err)
	}
	ints := []struct {
		col string
		dst *int64
	}{
		{"created_unix", &t.CreatedUnix},
		{"seeders", &t.Seeders},
		{"leechers", &t.Leechers},
		{"completed", &t.Completed},
		{"scraped_date", &t.ScrapedDate},
	}
	for _, f := range ints {
		if *f.dst, err = parseInt(field(f.col)); err != nil {
			return t, fmt.Errorf("%s: %w", f.col, err)
		}
	}
	return t, nil
}

func parseInt(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseInt(s, 10, 64)
}

func parseUint(s string) (uint64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseUint(s, 10, 64)
}

// EncodeCSV writes rows as a `;` separated snapshot with a header row.
func EncodeCSV(w io.Writer, rows []models.Torrent) error {
	writer := csv.NewWriter(w)
	writer.Comma = Separator
	if err := writer.Write(Columns); err != nil {
		return err
	}
	for _, t := range rows {
		if err := writer.Write(Record(t)); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// Record returns the fields of t in Columns order.
func Record(t models.Torrent) []string {
	return []string{
		t.InfoHash,
		t.Name,
		strconv.FormatUint(t.SizeBytes, 10),
		strconv.FormatInt(t.CreatedUnix, 10),
		strconv.FormatInt(t.Seeders, 10),
		strconv.FormatInt(t.Leechers, 10),
		strconv.FormatInt(t.Completed, 10),
		strconv.FormatInt(t.ScrapedDate, 10),
	}
}
