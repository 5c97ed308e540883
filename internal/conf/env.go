// env.go - Environment variable configuration and validation
package conf

import (
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/courtside/wintracker/internal/errors"
)

// dotEnvFile is read at startup when present. Variables already set in the
// process environment win over the file.
const dotEnvFile = ".env"

// envBinding holds metadata for environment variable bindings (internal use)
type envBinding struct {
	ConfigKey string             // Viper config key
	EnvVar    string             // Environment variable name
	Validate  func(string) error // Optional validation function
}

// getEnvBindings returns all environment variable bindings with validation
func getEnvBindings() []envBinding {
	return []envBinding{
		{"debug", "WINTRACKER_DEBUG", validateEnvBool},
		{"main.name", "WINTRACKER_NAME", nil},

		{"logging.default_level", "WINTRACKER_LOG_LEVEL", validateEnvLogLevel},
		{"logging.console.level", "WINTRACKER_CONSOLE_LOG_LEVEL", validateEnvLogLevel},
		{"logging.timezone", "WINTRACKER_TIMEZONE", nil},

		// Storage
		{"output.sqlite.enabled", "WINTRACKER_SQLITE_ENABLED", validateEnvBool},
		{"output.sqlite.path", "WINTRACKER_SQLITE_PATH", validateEnvPath},
		{"output.mysql.enabled", "WINTRACKER_MYSQL_ENABLED", validateEnvBool},
		{"output.mysql.username", "WINTRACKER_MYSQL_USERNAME", nil},
		{"output.mysql.password", "WINTRACKER_MYSQL_PASSWORD", nil},
		{"output.mysql.passwordfile", "WINTRACKER_MYSQL_PASSWORD_FILE", validateEnvPath},
		{"output.mysql.host", "WINTRACKER_MYSQL_HOST", nil},
		{"output.mysql.port", "WINTRACKER_MYSQL_PORT", validateEnvPort},
		{"output.mysql.database", "WINTRACKER_MYSQL_DATABASE", nil},

		{"webserver.port", "WINTRACKER_PORT", validateEnvPort},

		{"telemetry.enabled", "WINTRACKER_TELEMETRY_ENABLED", validateEnvBool},
		{"telemetry.listen", "WINTRACKER_TELEMETRY_LISTEN", validateEnvListen},

		{"mqtt.enabled", "WINTRACKER_MQTT_ENABLED", validateEnvBool},
		{"mqtt.broker", "WINTRACKER_MQTT_BROKER", validateEnvBrokerURL},
		{"mqtt.topic", "WINTRACKER_MQTT_TOPIC", nil},
		{"mqtt.username", "WINTRACKER_MQTT_USERNAME", nil},
		{"mqtt.password", "WINTRACKER_MQTT_PASSWORD", nil},
		{"mqtt.passwordfile", "WINTRACKER_MQTT_PASSWORD_FILE", validateEnvPath},

		{"sentry.enabled", "WINTRACKER_SENTRY_ENABLED", validateEnvBool},
		{"sentry.dsn", "WINTRACKER_SENTRY_DSN", nil},
	}
}

// loadDotEnv loads KEY=value pairs from path into the process environment.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return errors.New(fmt.Errorf("error loading %s: %w", path, err)).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Context("operation", "load-dotenv").
			Build()
	}
	return nil
}

// bindEnvVars sets up environment variable bindings with validation (internal)
func bindEnvVars(v *viper.Viper) error {
	var problems []string

	for _, binding := range getEnvBindings() {
		if err := v.BindEnv(binding.ConfigKey, binding.EnvVar); err != nil {
			problems = append(problems, fmt.Sprintf("failed to bind %s: %v", binding.EnvVar, err))
			continue
		}

		if binding.Validate == nil {
			continue
		}
		if envValue, ok := os.LookupEnv(binding.EnvVar); ok && envValue != "" {
			if err := binding.Validate(envValue); err != nil {
				problems = append(problems, fmt.Sprintf("invalid %s value %q: %v", binding.EnvVar, envValue, err))
			}
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("environment variable issues:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}

// validateEnvBool validates boolean environment variables
func validateEnvBool(value string) error {
	if _, err := strconv.ParseBool(strings.TrimSpace(value)); err != nil {
		return fmt.Errorf("invalid boolean value '%s': must be true/false, 1/0, t/f", value)
	}
	return nil
}

func validateEnvLogLevel(value string) error {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "trace", "debug", "info", "warn", "error":
		return nil
	}
	return fmt.Errorf("log level must be one of trace, debug, info, warn, error")
}

func validateEnvPath(value string) error {
	if strings.ContainsRune(value, 0) {
		return fmt.Errorf("path contains a NUL byte")
	}
	return nil
}

func validateEnvPort(value string) error {
	port, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("port must be a number: %w", err)
	}
	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", port)
	}
	return nil
}

func validateEnvListen(value string) error {
	_, port, err := net.SplitHostPort(value)
	if err != nil {
		return fmt.Errorf("listen address must be host:port: %w", err)
	}
	return validateEnvPort(port)
}

func validateEnvBrokerURL(value string) error {
	u, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("invalid broker URL: %w", err)
	}
	switch u.Scheme {
	case "tcp", "ssl", "tls", "mqtt", "mqtts", "ws", "wss":
	default:
		return fmt.Errorf("broker URL scheme must be tcp, ssl, tls, mqtt, mqtts, ws or wss, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("broker URL must include a host")
	}
	return nil
}
