package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"ducktorrents/internal/models"
	"ducktorrents/internal/snapshot"
)

const usage = `Usage: torrentctl [-parts dir] <command> [args]

Commands:
  add <infohash> <name> [size_bytes]   append a record to the last part file
  add-file <file.torrent>              append the record described by a .torrent file
  prune                                drop records without seeders from the part files
  build <out-dir>                      merge the part files into torrents.parquet and torrents.csv
`

var errUsage = errors.New("invalid usage")

func main() {
	if err := run(os.Args[1:], os.Stdout, time.Now); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		log.Fatal(err)
	}
}

func run(args []string, stdout io.Writer, now func() time.Time) error {
	fs := flag.NewFlagSet("torrentctl", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	partsDir := fs.String("parts", ".", "directory holding torrents_part_<n>.csv")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	args = fs.Args()
	if len(args) == 0 {
		return errUsage
	}

	switch cmd, rest := args[0], args[1:]; cmd {
	case "add":
		if len(rest) < 2 || len(rest) > 3 {
			return errUsage
		}
		rec := models.Torrent{
			InfoHash:    strings.ToLower(rest[0]),
			Name:        rest[1],
			CreatedUnix: now().Unix(),
			ScrapedDate: now().Unix(),
		}
		if len(rest) == 3 {
			size, err := strconv.ParseUint(rest[2], 10, 64)
			if err != nil {
				return fmt.Errorf("size_bytes: %w", err)
			}
			rec.SizeBytes = size
		}
		return add(*partsDir, rec, stdout)

	case "add-file":
		if len(rest) != 1 {
			return errUsage
		}
		content, err := os.ReadFile(rest[0])
		if err != nil {
			return err
		}
		rec, err := snapshot.FromTorrentFile(content, now())
		if err != nil {
			return err
		}
		return add(*partsDir, rec, stdout)

	case "prune":
		if len(rest) != 0 {
			return errUsage
		}
		removed, err := snapshot.PruneParts(*partsDir, func(t models.Torrent) bool { return t.Seeders > 0 })
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Removed %d dead torrent(s)\n", removed)
		return nil

	case "build":
		if len(rest) != 1 {
			return errUsage
		}
		rows, err := snapshot.ReadParts(*partsDir)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return fmt.Errorf("no records found in %s", *partsDir)
		}
		if err := os.MkdirAll(rest[0], 0o755); err != nil {
			return err
		}
		if err := snapshot.WriteSnapshot(rest[0], rows); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Wrote %d torrent(s) to %s\n", len(rows), rest[0])
		return nil
	}
	return errUsage
}

func add(dir string, rec models.Torrent, stdout io.Writer) error {
	name, err := snapshot.AppendRecord(dir, rec)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Added %s (%s) to %s\n", rec.Name, rec.InfoHash, name)
	return nil
}
