package datastore

import (
	"net"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/courtside/wintracker/internal/conf"
	"github.com/courtside/wintracker/internal/errors"
	"github.com/courtside/wintracker/internal/logger"
)

// MySQLStore implements Interface for MySQL
type MySQLStore struct {
	DataStore
	Settings *conf.Settings
}

func validateMySQLConfig(settings *conf.Settings) error {
	cfg := settings.Output.MySQL
	switch {
	case cfg.Host == "":
		return validationError("mysql host is required", "output.mysql.host", cfg.Host)
	case cfg.Username == "":
		return validationError("mysql username is required", "output.mysql.username", cfg.Username)
	case cfg.Database == "":
		return validationError("mysql database is required", "output.mysql.database", cfg.Database)
	}
	return nil
}

// mysqlDSN builds the go-sql-driver DSN for the configured server.
func mysqlDSN(cfg conf.MySQLSettings) string {
	dsn := mysqldriver.NewConfig()
	dsn.User = cfg.Username
	dsn.Passwd = cfg.Password
	dsn.Net = "tcp"
	dsn.Addr = net.JoinHostPort(cfg.Host, cfg.Port)
	dsn.DBName = cfg.Database
	dsn.ParseTime = true
	dsn.Loc = time.Local
	dsn.Params = map[string]string{"charset": "utf8mb4"}
	return dsn.FormatDSN()
}

// Open sets up the MySQL database connection and schema
func (store *MySQLStore) Open() error {
	if err := validateMySQLConfig(store.Settings); err != nil {
		return err
	}

	cfg := store.Settings.Output.MySQL
	db, err := gorm.Open(mysql.Open(mysqlDSN(cfg)), store.gormConfig())
	if err != nil {
		store.log.Error("Failed to open MySQL database",
			logger.String("host", cfg.Host),
			logger.String("port", cfg.Port),
			logger.String("database", cfg.Database),
			logger.Error(err))
		return dbError(err, "open", errors.PriorityCritical,
			"db_type", "mysql", "host", cfg.Host, "database", cfg.Database)
	}

	store.DB = db
	return store.performAutoMigration(db, "MySQL")
}

// Close closes the MySQL database connections
func (store *MySQLStore) Close() error {
	return store.closeDB("mysql")
}
