package database

import (
	"testing"

	"ducktorrents/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

func TestOpenInMemory_Migrates(t *testing.T) {
	db, err := Open(MemoryDSN, logger.Silent)
	require.NoError(t, err)

	require.True(t, db.Migrator().HasTable(&models.Torrent{}))
	require.True(t, db.Migrator().HasTable(&models.CachedResponse{}))
	require.True(t, db.Migrator().HasTable(&models.CacheGeneration{}))
}

func TestParseLogLevel(t *testing.T) {
	require.Equal(t, logger.Silent, ParseLogLevel("silent"))
	require.Equal(t, logger.Info, ParseLogLevel("info"))
	require.Equal(t, logger.Warn, ParseLogLevel(""))
}
