// internal/storage/storage_test.go
package storage_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velofit/engine/internal/config"
	"github.com/velofit/engine/internal/logging"
	"github.com/velofit/engine/internal/storage"
	gormstorage "github.com/velofit/engine/internal/storage/gorm"
	"github.com/velofit/engine/internal/storage/memory"
	"github.com/velofit/engine/internal/storage/postgres"
	sqlitestorage "github.com/velofit/engine/internal/storage/sqlite"
	"github.com/velofit/engine/internal/storage/websocket"
)

// Compile-time interface checks for every backend the factory builds.
// These live here rather than in the backend packages so the backend
// tests never have to import the factory back.
var (
	_ storage.Backend    = (*memory.Backend)(nil)
	_ storage.Backend    = (*gormstorage.Backend)(nil)
	_ storage.Backend    = (*postgres.Backend)(nil)
	_ storage.Backend    = (*sqlitestorage.Backend)(nil)
	_ storage.Backend    = (*websocket.Backend)(nil)
	_ storage.Uploadable = (*memory.Backend)(nil)
)

func TestNewBackend_Memory(t *testing.T) {
	b, err := storage.NewBackend(config.StorageConfig{
		Type:   "memory",
		Memory: config.MemoryConfig{OutputDir: t.TempDir()},
	}, logging.NewSlogManager())
	require.NoError(t, err)
	require.NotNil(t, b)
}

func TestNewBackend_Unknown(t *testing.T) {
	_, err := storage.NewBackend(config.StorageConfig{Type: "carrier-pigeon"}, logging.NewSlogManager())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown storage type")
}
