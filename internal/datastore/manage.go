package datastore

import (
	"time"

	"gorm.io/gorm"

	"github.com/courtside/wintracker/internal/errors"
	"github.com/courtside/wintracker/internal/logger"
	"github.com/courtside/wintracker/internal/observability/metrics"
)

// DefaultSlowQueryThreshold defines the duration after which a query is logged as slow.
const DefaultSlowQueryThreshold = 1 * time.Second

// performAutoMigration creates the games table and its index when missing.
// Running it against an existing schema leaves stored rows untouched.
func (ds *DataStore) performAutoMigration(db *gorm.DB, dbType string) (err error) {
	migrationStart := time.Now()
	defer func() { ds.recordOperation(metrics.OpMigrate, migrationStart, err) }()
	migrationLogger := ds.log.With(logger.String("db_type", dbType))

	migrationLogger.Debug("Starting database migration")

	if err := db.AutoMigrate(&Game{}); err != nil {
		migrationLogger.Error("Failed to migrate games table", logger.Error(err))
		return dbError(err, "auto_migrate", errors.PriorityCritical,
			"db_type", dbType, "table", "games")
	}

	migrationLogger.Debug("Database migration completed successfully",
		logger.Duration("total_duration", time.Since(migrationStart)))
	return nil
}
