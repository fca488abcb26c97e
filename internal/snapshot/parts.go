package snapshot

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"ducktorrents/internal/models"
)

// MaxPartSize is the size after which AppendRecord starts a new part file.
const MaxPartSize = 25 * 1024 * 1024

var partPattern = regexp.MustCompile(`^torrents_part_(\d+)\.csv$`)

// PartName returns the file name of part n.
func PartName(n int) string {
	return fmt.Sprintf("torrents_part_%d.csv", n)
}

// ListParts returns the part files in dir ordered by their number.
func ListParts(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	type part struct {
		name string
		num  int
	}
	var parts []part
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := partPattern.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		parts = append(parts, part{name: e.Name(), num: n})
	}
	sort.Slice(parts, func(i, j int) bool { return parts[i].num < parts[j].num })

	names := make([]string, len(parts))
	for i, p := range parts {
		names[i] = p.name
	}
	return names, nil
}

// AppendRecord appends t to the last part file in dir and returns that file's name.
// A new part with a header is started when there is none yet or the last one
// grew beyond MaxPartSize.
func AppendRecord(dir string, t models.Torrent) (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}
	parts, err := ListParts(dir)
	if err != nil {
		return "", err
	}

	var target string
	if len(parts) == 0 {
		target = PartName(1)
	} else {
		target = parts[len(parts)-1]
		info, err := os.Stat(filepath.Join(dir, target))
		if err != nil {
			return "", err
		}
		if info.Size() > MaxPartSize {
			n, _ := strconv.Atoi(partPattern.FindStringSubmatch(target)[1])
			target = PartName(n + 1)
		}
	}

	path := filepath.Join(dir, target)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.WriteFile(path, []byte(HeaderLine), 0o644); err != nil {
			return "", err
		}
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return "", err
	}
	writer := csv.NewWriter(f)
	writer.Comma = Separator
	if err := writer.Write(Record(t)); err != nil {
		f.Close()
		return "", err
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		f.Close()
		return "", err
	}
	return target, f.Close()
}

// ReadParts decodes and concatenates every part file in dir.
func ReadParts(dir string) ([]models.Torrent, error) {
	parts, err := ListParts(dir)
	if err != nil {
		return nil, err
	}
	var all []models.Torrent
	for _, name := range parts {
		f, err := os.Open(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		rows, err := DecodeCSV(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		all = append(all, rows...)
	}
	return all, nil
}

// WriteSnapshot writes rows to dir as both torrents.parquet and torrents.csv.
func WriteSnapshot(dir string, rows []models.Torrent) error {
	if err := writeFile(filepath.Join(dir, "torrents.parquet"), func(f *os.File) error {
		return EncodeParquet(f, rows)
	}); err != nil {
		return err
	}
	return writeFile(filepath.Join(dir, "torrents.csv"), func(f *os.File) error {
		return EncodeCSV(f, rows)
	})
}

// writeFile writes through a temp file and renames it so readers never see a partial snapshot.
func writeFile(path string, fn func(*os.File) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".snapshot-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if err := fn(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// PruneParts rewrites every part file in dir keeping only the rows keep
// accepts, and returns how many rows were dropped. Parts are rewritten
// whole, with their header.
func PruneParts(dir string, keep func(models.Torrent) bool) (int, error) {
	parts, err := ListParts(dir)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, name := range parts {
		path := filepath.Join(dir, name)
		f, err := os.Open(path)
		if err != nil {
			return removed, err
		}
		rows, err := DecodeCSV(f)
		f.Close()
		if err != nil {
			return removed, fmt.Errorf("%s: %w", name, err)
		}

		kept := rows[:0]
		for _, t := range rows {
			if keep(t) {
				kept = append(kept, t)
			}
		}
		if len(kept) == len(rows) {
			continue
		}
		removed += len(rows) - len(kept)
		if err := writeFile(path, func(f *os.File) error { return EncodeCSV(f, kept) }); err != nil {
			return removed, err
		}
	}
	return removed, nil
}
