package cachestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"ducktorrents/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SQLStorage persists generations in the cache_generations and
// cached_responses tables, so cached assets survive a restart.
type SQLStorage struct {
	db *gorm.DB
}

// NewSQLStorage creates a storage over an already migrated db.
func NewSQLStorage(db *gorm.DB) *SQLStorage {
	return &SQLStorage{db: db}
}

func (s *SQLStorage) Open(ctx context.Context, name string) (Generation, error) {
	gen := models.CacheGeneration{Name: name, CreatedAt: time.Now()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&gen).Error
	if err != nil {
		return nil, fmt.Errorf("open cache %s: %w", name, err)
	}
	return &sqlGeneration{db: s.db, name: name}, nil
}

func (s *SQLStorage) Has(ctx context.Context, name string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.CacheGeneration{}).Where("name = ?", name).Count(&count).Error
	return count > 0, err
}

func (s *SQLStorage) Delete(ctx context.Context, name string) (bool, error) {
	var deleted bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("cache_name = ?", name).Delete(&models.CachedResponse{}).Error; err != nil {
			return err
		}
		res := tx.Where("name = ?", name).Delete(&models.CacheGeneration{})
		deleted = res.RowsAffected > 0
		return res.Error
	})
	if err != nil {
		return false, fmt.Errorf("delete cache %s: %w", name, err)
	}
	return deleted, nil
}

func (s *SQLStorage) Keys(ctx context.Context) ([]string, error) {
	var names []string
	err := s.db.WithContext(ctx).Model(&models.CacheGeneration{}).
		Order("created_at ASC").Order("name ASC").
		Pluck("name", &names).Error
	return names, err
}

type sqlGeneration struct {
	db   *gorm.DB
	name string
}

func (g *sqlGeneration) Name() string { return g.name }

func (g *sqlGeneration) Match(ctx context.Context, url string) (*Entry, error) {
	var row models.CachedResponse
	err := g.db.WithContext(ctx).Where("cache_name = ? AND url = ?", g.name, url).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	header := make(http.Header)
	if row.Header != "" {
		if err := json.Unmarshal([]byte(row.Header), &header); err != nil {
			return nil, fmt.Errorf("decode cached header for %s: %w", url, err)
		}
	}
	return &Entry{URL: row.URL, Status: row.Status, Header: header, Body: row.Body, StoredAt: row.StoredAt}, nil
}

func (g *sqlGeneration) Put(ctx context.Context, e *Entry) error {
	header, err := json.Marshal(e.Header)
	if err != nil {
		return err
	}
	row := models.CachedResponse{
		CacheName: g.name,
		URL:       e.URL,
		Status:    e.Status,
		Header:    string(header),
		Body:      e.Body,
		StoredAt:  e.StoredAt,
	}
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.CacheGeneration{}).Where("name = ?", g.name).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrGenerationDeleted
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "cache_name"}, {Name: "url"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "header", "body", "stored_at"}),
		}).Create(&row).Error
	})
}

func (g *sqlGeneration) Delete(ctx context.Context, url string) (bool, error) {
	res := g.db.WithContext(ctx).Where("cache_name = ? AND url = ?", g.name, url).Delete(&models.CachedResponse{})
	return res.RowsAffected > 0, res.Error
}

func (g *sqlGeneration) Keys(ctx context.Context) ([]string, error) {
	var urls []string
	err := g.db.WithContext(ctx).Model(&models.CachedResponse{}).
		Where("cache_name = ?", g.name).
		Order("id ASC").
		Pluck("url", &urls).Error
	return urls, err
}
