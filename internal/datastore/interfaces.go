// Package datastore persists game records in SQLite or MySQL through GORM.
package datastore

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/courtside/wintracker/internal/conf"
	"github.com/courtside/wintracker/internal/errors"
	"github.com/courtside/wintracker/internal/logger"
	"github.com/courtside/wintracker/internal/observability/metrics"
)

// Interface abstracts the underlying database implementation.
type Interface interface {
	// Open connects to the database and creates the games table if it is missing.
	Open() error
	// SaveGame inserts game and fills in its ID.
	SaveGame(ctx context.Context, game *Game) error
	// GetAllGames returns every game, newest date first, ties in insertion order.
	GetAllGames(ctx context.Context) ([]Game, error)
	// CountGames returns the number of stored games.
	CountGames(ctx context.Context) (int64, error)
	// Ping checks that the database connection is alive.
	Ping(ctx context.Context) error
	Close() error
}

// DataStore implements the queries shared by every database backend.
type DataStore struct {
	DB      *gorm.DB
	log     logger.Logger
	metrics *Metrics
}

// New returns the store selected by settings. MySQL wins when both are enabled.
// It returns nil if no database is enabled.
func New(settings *conf.Settings, log logger.Logger, m *metrics.DatastoreMetrics) Interface {
	if log == nil {
		log = logger.Global().Module("datastore")
	}
	base := DataStore{log: log, metrics: m}

	switch {
	case settings.Output.MySQL.Enabled:
		return &MySQLStore{DataStore: base, Settings: settings}
	case settings.Output.SQLite.Enabled:
		return &SQLiteStore{DataStore: base, Settings: settings}
	default:
		return nil
	}
}

// Connect builds the configured store and opens it.
func Connect(settings *conf.Settings, log logger.Logger, m *metrics.DatastoreMetrics) (Interface, error) {
	store := New(settings, log, m)
	if store == nil {
		return nil, errors.Newf("no database enabled: set output.sqlite.enabled or output.mysql.enabled").
			Component("datastore").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if err := store.Open(); err != nil {
		return nil, err
	}
	return store, nil
}

// SaveGame inserts a new game record.
func (ds *DataStore) SaveGame(ctx context.Context, game *Game) (err error) {
	start := time.Now()
	defer func() { ds.recordOperation(metrics.OpGameInsert, start, err) }()

	if ds.DB == nil {
		return dbError(ErrNotInitialized, "save_game", errors.PriorityHigh)
	}
	if game == nil {
		return validationError("game cannot be nil", "game", nil)
	}
	if !game.Result.Valid() {
		return validationError("result must be Win or Loss", "result", game.Result)
	}

	if err := ds.DB.WithContext(ctx).Create(game).Error; err != nil {
		ds.log.Error("Failed to save game",
			logger.String("opponent", game.Opponent),
			logger.String("date", game.Date),
			logger.Error(err))
		return dbError(err, "save_game", errors.PriorityHigh, "table", "games")
	}

	ds.log.Debug("Game saved",
		logger.Uint64("id", uint64(game.ID)),
		logger.String("result", string(game.Result)))
	return nil
}

// GetAllGames returns all games ordered by date descending, then by id.
func (ds *DataStore) GetAllGames(ctx context.Context) (games []Game, err error) {
	start := time.Now()
	defer func() { ds.recordOperation(metrics.OpGameList, start, err) }()

	if ds.DB == nil {
		return nil, dbError(ErrNotInitialized, "get_all_games", errors.PriorityHigh)
	}

	if err := ds.DB.WithContext(ctx).
		Order("date DESC").
		Order("id ASC").
		Find(&games).Error; err != nil {
		return nil, dbError(err, "get_all_games", errors.PriorityMedium, "table", "games")
	}

	if ds.metrics != nil {
		ds.metrics.RecordQueryResultSize(metrics.OpGameList, metrics.LabelGames, len(games))
		ds.metrics.UpdateTableRowCount(metrics.LabelGames, int64(len(games)))
	}
	return games, nil
}

// CountGames returns the number of rows in the games table.
func (ds *DataStore) CountGames(ctx context.Context) (int64, error) {
	if ds.DB == nil {
		return 0, dbError(ErrNotInitialized, "count_games", errors.PriorityHigh)
	}

	var count int64
	if err := ds.DB.WithContext(ctx).Model(&Game{}).Count(&count).Error; err != nil {
		return 0, dbError(err, "count_games", errors.PriorityMedium, "table", "games")
	}
	return count, nil
}

// Ping verifies the underlying connection.
func (ds *DataStore) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { ds.recordOperation(metrics.OpPing, start, err) }()

	if ds.DB == nil {
		return dbError(ErrNotInitialized, "ping", errors.PriorityHigh)
	}
	sqlDB, err := ds.DB.DB()
	if err != nil {
		return dbError(err, "ping", errors.PriorityHigh)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return dbError(err, "ping", errors.PriorityHigh)
	}
	return nil
}

// closeDB closes the generic sql.DB behind the GORM handle.
func (ds *DataStore) closeDB(dbType string) error {
	if ds.DB == nil {
		return dbError(ErrNotInitialized, "close", errors.PriorityLow, "db_type", dbType)
	}

	sqlDB, err := ds.DB.DB()
	if err != nil {
		ds.log.Error("Failed to retrieve generic DB object", logger.Error(err))
		return dbError(err, "close", errors.PriorityMedium, "db_type", dbType)
	}
	if err := sqlDB.Close(); err != nil {
		ds.log.Error("Failed to close database", logger.String("db_type", dbType), logger.Error(err))
		return dbError(err, "close", errors.PriorityMedium, "db_type", dbType)
	}

	ds.log.Debug("Database connection closed", logger.String("db_type", dbType))
	return nil
}

// gormConfig builds the shared GORM configuration.
func (ds *DataStore) gormConfig() *gorm.Config {
	return &gorm.Config{
		Logger: logger.NewGormLoggerAdapter(ds.log, DefaultSlowQueryThreshold),
	}
}
