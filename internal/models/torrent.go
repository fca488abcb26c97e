package models

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"
)

// InfoHashLength is the length of a hex-encoded v1 infohash.
const InfoHashLength = 40

var (
	ErrInvalidInfoHash = errors.New("infohash must be 40 hex characters")
	ErrEmptyName       = errors.New("name is required")
	ErrNegativeCount   = errors.New("seeders, leechers and completed must be non-negative")
)

// Torrent represents one row of the dataset snapshot
type Torrent struct {
	InfoHash    string `json:"infohash" gorm:"column:infohash;primaryKey"`
	Name        string `json:"name" gorm:"not null"`
	SizeBytes   uint64 `json:"size_bytes" gorm:"column:size_bytes"`
	CreatedUnix int64  `json:"created_unix" gorm:"column:created_unix"`
	Seeders     int64  `json:"seeders" gorm:"index"`
	Leechers    int64  `json:"leechers"`
	Completed   int64  `json:"completed" gorm:"index"`
	ScrapedDate int64  `json:"scraped_date" gorm:"column:scraped_date"`

	// NameFolded is written on create and only used by the matcher.
	NameFolded string `json:"-" gorm:"column:name_folded;->:false;<-:create"`
}

// FoldName is the case folding shared by stored names and search keys.
func FoldName(s string) string {
	return strings.ToLower(norm.NFC.String(s))
}

// BeforeCreate fills the folded name used for case-insensitive matching.
func (t *Torrent) BeforeCreate(tx *gorm.DB) error {
	t.NameFolded = FoldName(t.Name)
	return nil
}

// TableName specifies the table name for Torrent Model
func (Torrent) TableName() string {
	return "torrents"
}

// Validate checks the invariants a record must hold before it is ingested.
func (t Torrent) Validate() error {
	if !IsInfoHash(t.InfoHash) {
		return fmt.Errorf("%w: %q", ErrInvalidInfoHash, t.InfoHash)
	}
	if t.Name == "" {
		return ErrEmptyName
	}
	if t.Seeders < 0 || t.Leechers < 0 || t.Completed < 0 {
		return ErrNegativeCount
	}
	return nil
}

// IsInfoHash reports whether s looks like a hex encoded v1 infohash.
func IsInfoHash(s string) bool {
	if len(s) != InfoHashLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
