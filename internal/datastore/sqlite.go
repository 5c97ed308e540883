package datastore

import (
	"fmt"
	"path/filepath"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/courtside/wintracker/internal/conf"
	"github.com/courtside/wintracker/internal/errors"
	"github.com/courtside/wintracker/internal/logger"
)

// SQLiteStore implements Interface for SQLite
type SQLiteStore struct {
	DataStore
	Settings *conf.Settings
}

func validateSQLiteConfig(settings *conf.Settings) error {
	if strings.TrimSpace(settings.Output.SQLite.Path) == "" {
		return validationError("sqlite path is required", "output.sqlite.path", settings.Output.SQLite.Path)
	}
	return nil
}

// Open sets up the SQLite database connection and schema
func (store *SQLiteStore) Open() error {
	if err := validateSQLiteConfig(store.Settings); err != nil {
		return err
	}

	dbPath, err := store.resolvePath()
	if err != nil {
		return err
	}

	// WAL keeps readers from blocking the single writer.
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on", dbPath)
	db, err := gorm.Open(sqlite.Open(dsn), store.gormConfig())
	if err != nil {
		store.log.Error("Failed to open SQLite database",
			logger.String("path", dbPath),
			logger.Error(err))
		return dbError(err, "open", errors.PriorityCritical, "db_type", "sqlite", "path", dbPath)
	}

	// SQLite serialises writes anyway.
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}

	store.DB = db
	return store.performAutoMigration(db, "SQLite")
}

// resolvePath expands the configured path and creates its directory.
func (store *SQLiteStore) resolvePath() (string, error) {
	path := store.Settings.Output.SQLite.Path
	if path == ":memory:" {
		return path, nil
	}

	dir, fileName := filepath.Split(path)
	if dir == "" {
		return fileName, nil
	}

	basePath, err := conf.GetBasePath(dir)
	if err != nil {
		return "", err
	}
	return filepath.Join(basePath, fileName), nil
}

// Close closes the SQLite database connection
func (store *SQLiteStore) Close() error {
	return store.closeDB("sqlite")
}
