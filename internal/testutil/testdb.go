package testutil

import (
	"ducktorrents/internal/database"
	"ducktorrents/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewInMemoryDB creates an in-memory SQLite DB and runs migrations.
func NewInMemoryDB() (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(database.MemoryDSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	if err := database.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// SeedTorrents inserts rows into the torrents table.
func SeedTorrents(db *gorm.DB, rows []models.Torrent) error {
	if len(rows) == 0 {
		return nil
	}
	return db.Create(&rows).Error
}

// Hash builds a deterministic 40 character infohash from a short seed.
func Hash(seed string) string {
	const hex = "0123456789abcdef"
	out := make([]byte, models.InfoHashLength)
	for i := range out {
		var c byte
		if len(seed) > 0 {
			c = seed[i%len(seed)]
		}
		out[i] = hex[(int(c)+i)%16]
	}
	return string(out)
}

// Fixtures returns a small dataset covering the default view and search view cases.
func Fixtures() []models.Torrent {
	return []models.Torrent{
		{InfoHash: Hash("ubuntu-desktop"), Name: "ubuntu-24.04-desktop-amd64.iso", SizeBytes: 6_114_656_256, CreatedUnix: 1713398400, Seeders: 900, Leechers: 40, Completed: 52000, ScrapedDate: 1735689600},
		{InfoHash: Hash("ubuntu-server"), Name: "ubuntu-24.04-live-server-amd64.iso", SizeBytes: 2_754_981_888, CreatedUnix: 1713398400, Seeders: 350, Leechers: 12, Completed: 30000, ScrapedDate: 1735689600},
		{InfoHash: Hash("kubuntu"), Name: "Kubuntu 24.04 <KDE> & friends", SizeBytes: 4_294_967_296, CreatedUnix: 1713398400, Seeders: 80, Leechers: 3, Completed: 9000, ScrapedDate: 1735689600},
		{InfoHash: Hash("debian"), Name: "debian-12.5.0-amd64-netinst.iso", SizeBytes: 659_554_304, CreatedUnix: 1707523200, Seeders: 420, Leechers: 8, Completed: 52000, ScrapedDate: 1735689600},
		{InfoHash: Hash("fedora"), Name: "Fedora-Workstation-Live-x86_64-40", SizeBytes: 2_300_000_000, CreatedUnix: 1713744000, Seeders: 150, Leechers: 9, Completed: 41000, ScrapedDate: 1735689600},
		{InfoHash: Hash("arch"), Name: "archlinux-2024.05.01-x86_64.iso", SizeBytes: 1_100_000_000, CreatedUnix: 1714521600, Seeders: 600, Leechers: 20, Completed: 38000, ScrapedDate: 1735689600},
		{InfoHash: Hash("mint"), Name: "linuxmint-21.3-cinnamon-64bit.iso", SizeBytes: 3_000_000_000, CreatedUnix: 1705276800, Seeders: 210, Leechers: 5, Completed: 27000, ScrapedDate: 1735689600},
		{InfoHash: Hash("dead-ubuntu"), Name: "ubuntu-10.04-desktop-i386.iso", SizeBytes: 700_000_000, CreatedUnix: 1272499200, Seeders: 0, Leechers: 0, Completed: 99000, ScrapedDate: 1735689600},
		{InfoHash: Hash("percent"), Name: "100% free_software bundle", SizeBytes: 10_000_000, CreatedUnix: 1700000000, Seeders: 5, Leechers: 1, Completed: 10, ScrapedDate: 1735689600},
	}
}
