// config.go: settings struct for the wins tracker and the functions that load it.
package conf

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/viper"

	"github.com/courtside/wintracker/internal/errors"
	"github.com/courtside/wintracker/internal/logger"
	"github.com/courtside/wintracker/internal/secrets"
)

//go:embed default_config.yaml
var configFiles embed.FS

// ConfigFileEnvVar names the environment variable that points at an explicit config file.
const ConfigFileEnvVar = "WINTRACKER_CONFIG"

// SQLiteSettings contains settings for the local SQLite store.
type SQLiteSettings struct {
	Enabled bool   // true to store games in sqlite
	Path    string // path to sqlite database file
}

// MySQLSettings contains settings for an external MySQL store.
type MySQLSettings struct {
	Enabled      bool   // true to store games in mysql instead of sqlite
	Username     string // username for mysql database
	Password     string // password for mysql database, ${VAR} references are expanded
	PasswordFile string // file holding the password, wins over Password
	Database     string // database name for mysql database
	Host         string // host for mysql database
	Port         string // port for mysql database
}

// WebServerSettings contains settings for the web UI.
type WebServerSettings struct {
	Port string // port for web server
	// ReportCacheTTL serves the report from memory for this long. Zero, the
	// default, reads every game on each render; with a positive value, games
	// written by other processes appear only once the cached report expires.
	ReportCacheTTL time.Duration
	// SubmitRateLimit caps game submissions per second from one client IP.
	// Zero disables the limit.
	SubmitRateLimit float64
}

// TelemetrySettings contains settings for the Prometheus endpoint.
type TelemetrySettings struct {
	Enabled bool   // true to enable Prometheus compatible telemetry endpoint
	Listen  string // IP address and port to listen on
}

// MQTTSettings contains settings for publishing recorded games.
type MQTTSettings struct {
	Enabled      bool   // true to enable MQTT
	Broker       string // MQTT (tcp://host:port)
	Topic        string // MQTT topic
	Username     string // MQTT username
	Password     string // MQTT password, ${VAR} references are expanded
	PasswordFile string // file holding the password, wins over Password
	ClientID     string // MQTT client id, generated when empty
}

// SentrySettings contains settings for opt-in error reporting.
type SentrySettings struct {
	Enabled bool   // true to report errors to Sentry
	DSN     string // Sentry project DSN
	Debug   bool   // true to enable Sentry SDK debug output
}

// Settings contains all configuration options for the wins tracker.
type Settings struct {
	Debug bool // true to enable debug mode

	Main struct {
		Name string // page title and CLI banner
	}

	Logging logger.LoggingConfig

	Output struct {
		SQLite SQLiteSettings
		MySQL  MySQLSettings
	}

	WebServer WebServerSettings
	Telemetry TelemetrySettings
	MQTT      MQTTSettings
	Sentry    SentrySettings
}

var (
	settingsInstance *Settings
	settingsMutex    sync.RWMutex
)

// Load reads the .env file, the config file and WINTRACKER_* environment
// variables into a validated Settings instance.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	if err := loadDotEnv(dotEnvFile); err != nil {
		return nil, err
	}

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return nil, err
	}

	settings, err := load(viper.GetViper(), os.Getenv(ConfigFileEnvVar), configPaths)
	if err != nil {
		return nil, err
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// load does the work of Load against the given viper instance.
func load(v *viper.Viper, configFile string, configPaths []string) (*Settings, error) {
	if err := initViper(v, configFile, configPaths); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, errors.New(err).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Context("operation", "unmarshal").
			Build()
	}

	if err := resolveSecrets(settings); err != nil {
		return nil, err
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	return settings, nil
}

// resolveSecrets replaces credentials with their file contents or expanded value.
func resolveSecrets(settings *Settings) error {
	fields := []struct {
		name  string
		file  string
		value *string
	}{
		{"output.mysql.password", settings.Output.MySQL.PasswordFile, &settings.Output.MySQL.Password},
		{"mqtt.password", settings.MQTT.PasswordFile, &settings.MQTT.Password},
		{"sentry.dsn", "", &settings.Sentry.DSN},
	}

	for _, f := range fields {
		resolved, err := secrets.Resolve(f.file, *f.value)
		if err != nil {
			return fmt.Errorf("%s: %w", f.name, err)
		}
		*f.value = resolved
	}
	return nil
}

// initViper registers defaults and env bindings, then reads the config file.
// A missing config file in the search paths is fine; an explicit one must exist.
func initViper(v *viper.Viper, configFile string, configPaths []string) error {
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		for _, path := range configPaths {
			v.AddConfigPath(path)
		}
	}

	setDefaultConfig(v)

	if err := bindEnvVars(v); err != nil {
		return errors.New(err).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Context("operation", "bind-env").
			Build()
	}

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			return nil
		}
		return errors.New(fmt.Errorf("fatal error reading config file: %w", err)).
			Component("conf").
			Category(errors.CategoryFileIO).
			Context("operation", "read-config").
			Build()
	}

	return nil
}

// GetSettings returns the settings loaded by the last successful Load call.
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// DefaultConfig returns the commented default config.yaml shipped with the binary.
func DefaultConfig() ([]byte, error) {
	return fs.ReadFile(configFiles, "default_config.yaml")
}

// WriteDefaultConfig writes the default config to path, refusing to overwrite an existing file.
func WriteDefaultConfig(path string) error {
	data, err := DefaultConfig()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("error creating directories for config file: %w", err)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return errors.New(fmt.Errorf("error creating config file: %w", err)).
			Component("conf").
			Category(errors.CategoryFileIO).
			Context("path", path).
			Build()
	}
	defer file.Close()

	if _, err := file.Write(data); err != nil {
		return fmt.Errorf("error writing default config file: %w", err)
	}
	return nil
}
