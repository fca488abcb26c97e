package search

import (
	"context"
	"strings"

	"ducktorrents/internal/models"

	"gorm.io/gorm"
)

// Source is the queryable data source the dispatcher reads from.
type Source interface {
	// Top returns the default view: most completed first, seeders as tie-break.
	Top(ctx context.Context, limit int) ([]models.Torrent, error)
	// Match returns live rows whose name or infohash contains term, most seeded first.
	Match(ctx context.Context, term string, limit int) ([]models.Torrent, error)
}

// SourceOptions tunes GormSource.
type SourceOptions struct {
	// IncludeDead disables the seeders > 0 filter on the default view.
	IncludeDead bool
}

// GormSource queries the torrents table through gorm.
type GormSource struct {
	db   *gorm.DB
	opts SourceOptions
}

// NewGormSource creates a Source backed by db.
func NewGormSource(db *gorm.DB, opts SourceOptions) *GormSource {
	return &GormSource{db: db, opts: opts}
}

func (s *GormSource) Top(ctx context.Context, limit int) ([]models.Torrent, error) {
	var rows []models.Torrent
	q := s.db.WithContext(ctx).Model(&models.Torrent{})
	if !s.opts.IncludeDead {
		q = q.Where("seeders > 0")
	}
	err := q.Order("completed DESC").Order("seeders DESC").Limit(limit).Find(&rows).Error
	return rows, err
}

func (s *GormSource) Match(ctx context.Context, term string, limit int) ([]models.Torrent, error) {
	pattern := "%" + escapeLike(models.FoldName(term)) + "%"

	var rows []models.Torrent
	err := s.db.WithContext(ctx).
		Where(`seeders > 0 AND (name_folded LIKE ? ESCAPE '\' OR LOWER(infohash) LIKE ? ESCAPE '\')`, pattern, pattern).
		Order("seeders DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes every character of term match literally inside a LIKE pattern.
func escapeLike(term string) string {
	return likeEscaper.Replace(term)
}
