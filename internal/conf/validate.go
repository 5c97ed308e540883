// conf/validate.go

package conf

import (
	"fmt"
	"strings"
)

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("Validation errors: %v", ve.Errors)
}

// ValidateSettings validates the entire Settings struct, collecting every problem.
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	validators := []func(*Settings) error{
		validateLoggingSettings,
		validateOutputSettings,
		validateWebServerSettings,
		validateTelemetrySettings,
		validateMQTTSettings,
		validateSentrySettings,
	}
	for _, validate := range validators {
		if err := validate(settings); err != nil {
			ve.Errors = append(ve.Errors, err.Error())
		}
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

func validateLoggingSettings(settings *Settings) error {
	levels := map[string]string{"logging.default_level": settings.Logging.DefaultLevel}
	if settings.Logging.Console != nil {
		levels["logging.console.level"] = settings.Logging.Console.Level
	}
	if settings.Logging.FileOutput != nil {
		levels["logging.file_output.level"] = settings.Logging.FileOutput.Level
		if settings.Logging.FileOutput.Enabled && settings.Logging.FileOutput.Path == "" {
			return fmt.Errorf("logging.file_output.path is required when file output is enabled")
		}
	}
	for module, level := range settings.Logging.ModuleLevels {
		levels["logging.module_levels."+module] = level
	}

	for key, level := range levels {
		if level == "" {
			continue
		}
		if err := validateEnvLogLevel(level); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}
	return nil
}

func validateOutputSettings(settings *Settings) error {
	sqlite := settings.Output.SQLite
	mysql := settings.Output.MySQL

	if !sqlite.Enabled && !mysql.Enabled {
		return fmt.Errorf("no database configured: enable output.sqlite or output.mysql")
	}

	if sqlite.Enabled && !mysql.Enabled && strings.TrimSpace(sqlite.Path) == "" {
		return fmt.Errorf("output.sqlite.path is required")
	}

	if mysql.Enabled {
		var missing []string
		if mysql.Host == "" {
			missing = append(missing, "host")
		}
		if mysql.Username == "" {
			missing = append(missing, "username")
		}
		if mysql.Database == "" {
			missing = append(missing, "database")
		}
		if len(missing) > 0 {
			return fmt.Errorf("output.mysql is enabled but missing: %s", strings.Join(missing, ", "))
		}
		if err := validateEnvPort(mysql.Port); err != nil {
			return fmt.Errorf("output.mysql.port: %w", err)
		}
	}
	return nil
}

func validateWebServerSettings(settings *Settings) error {
	if err := validateEnvPort(settings.WebServer.Port); err != nil {
		return fmt.Errorf("webserver.port: %w", err)
	}
	if settings.WebServer.ReportCacheTTL < 0 {
		return fmt.Errorf("webserver.reportcachettl must not be negative")
	}
	if settings.WebServer.SubmitRateLimit < 0 {
		return fmt.Errorf("webserver.submitratelimit must not be negative")
	}
	return nil
}

func validateTelemetrySettings(settings *Settings) error {
	if !settings.Telemetry.Enabled {
		return nil
	}
	if err := validateEnvListen(settings.Telemetry.Listen); err != nil {
		return fmt.Errorf("telemetry.listen: %w", err)
	}
	return nil
}

func validateMQTTSettings(settings *Settings) error {
	if !settings.MQTT.Enabled {
		return nil
	}
	if err := validateEnvBrokerURL(settings.MQTT.Broker); err != nil {
		return fmt.Errorf("mqtt.broker: %w", err)
	}
	if strings.TrimSpace(settings.MQTT.Topic) == "" {
		return fmt.Errorf("mqtt.topic is required when mqtt is enabled")
	}
	return nil
}

func validateSentrySettings(settings *Settings) error {
	if settings.Sentry.Enabled && settings.Sentry.DSN == "" {
		return fmt.Errorf("sentry.dsn is required when sentry is enabled")
	}
	return nil
}
