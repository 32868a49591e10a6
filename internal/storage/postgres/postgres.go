// Package postgres implements the storage.Backend interface on a
// PostgreSQL connection. It wraps the GORM backend via composition;
// the Postgres-specific concerns are connecting via the standalone
// helper, validating the connection and running schema setup.
package postgres

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/velofit/engine/internal/database"
	"github.com/velofit/engine/internal/logging"
	"github.com/velofit/engine/internal/model"
	gormstorage "github.com/velofit/engine/internal/storage/gorm"
)

// Backend wraps the GORM backend for Postgres-specific behavior.
type Backend struct {
	*gormstorage.Backend
	db  *gorm.DB
	log *logging.SlogManager
}

// New creates a new Postgres storage backend. The connection is
// established in Init so the factory never blocks.
func New(logManager *logging.SlogManager) *Backend {
	return &Backend{
		Backend: gormstorage.New(gormstorage.Dependencies{
			LogManager: logManager,
		}),
		log: logManager,
	}
}

// Init connects to Postgres, validates the connection, runs schema
// setup and initializes the embedded GORM backend.
func (b *Backend) Init() error {
	db, err := database.GetPostgresDBStandalone()
	if err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to access sql interface: %w", err)
	}
	if err = sqlDB.Ping(); err != nil {
		return fmt.Errorf("failed to validate connection: %w", err)
	}
	sqlDB.SetMaxOpenConns(10)

	b.db = db
	if err := b.setupDB(); err != nil {
		return fmt.Errorf("failed to setup DB: %w", err)
	}

	b.Backend = gormstorage.New(gormstorage.Dependencies{
		DB:         db,
		LogManager: b.log,
	})
	return b.Backend.Init()
}

// setupDB migrates tables and creates the default studio settings row
// if it doesn't exist.
func (b *Backend) setupDB() error {
	db := b.db
	log := b.log

	if !db.Migrator().HasTable(&model.FitInfo{}) {
		if err := db.AutoMigrate(&model.FitInfo{}); err != nil {
			log.WriteLog("setupDB", fmt.Sprintf("Failed to create fit_infos table: %s", err), "ERROR")
			return fmt.Errorf("failed to auto-migrate FitInfo: %w", err)
		}
		if err := db.Create(&model.FitInfo{
			StudioName:        "VeloFit",
			StudioDescription: "VeloFit bike fitting",
			StudioWebsite:     "https://velofit.example.com",
		}).Error; err != nil {
			return fmt.Errorf("failed to create fit_infos entry: %w", err)
		}
	}

	log.WriteLog("setupDB", "Migrating schema", "INFO")
	if err := db.AutoMigrate(model.DatabaseModels...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	log.WriteLog("setupDB", "Database setup complete", "INFO")
	return nil
}
