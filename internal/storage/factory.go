// internal/storage/factory.go
package storage

import (
	"fmt"

	"github.com/velofit/engine/internal/config"
	"github.com/velofit/engine/internal/logging"
	"github.com/velofit/engine/internal/storage/memory"
	"github.com/velofit/engine/internal/storage/postgres"
	sqlitestorage "github.com/velofit/engine/internal/storage/sqlite"
	"github.com/velofit/engine/internal/storage/websocket"
)

// NewBackend creates a storage backend based on configuration
func NewBackend(cfg config.StorageConfig, logManager *logging.SlogManager) (Backend, error) {
	switch cfg.Type {
	case "postgres":
		return postgres.New(logManager), nil
	case "sqlite":
		return sqlitestorage.New(sqlitestorage.Config{
			DumpPath:     cfg.SQLite.DumpPath,
			DumpInterval: cfg.SQLite.DumpInterval,
		}, logManager)
	case "memory":
		return memory.New(cfg.Memory), nil
	case "websocket":
		return websocket.New(websocket.Config{
			URL:    cfg.Websocket.URL,
			Secret: cfg.Websocket.Secret,
		}), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
