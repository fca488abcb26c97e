package models

import (
	"time"
)

// CacheGeneration is one named, versioned response store
// (e.g. "ducktorrents-v1.1.0" or "ducktorrents-data-v1.1.0").
type CacheGeneration struct {
	Name      string    `json:"name" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for CacheGeneration Model
func (CacheGeneration) TableName() string {
	return "cache_generations"
}

// CachedResponse is a stored request -> response pair of a cache generation
type CachedResponse struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CacheName string    `json:"cache_name" gorm:"column:cache_name;not null;uniqueIndex:idx_cache_url"`
	URL       string    `json:"url" gorm:"column:url;not null;uniqueIndex:idx_cache_url"`
	Status    int       `json:"status"`
	Header    string    `json:"header" gorm:"type:text"` // JSON encoded http.Header
	Body      []byte    `json:"-"`
	StoredAt  time.Time `json:"stored_at"`
}

// TableName specifies the table name for CachedResponse Model
func (CachedResponse) TableName() string {
	return "cached_responses"
}
