package logger

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	DefaultLevel string            `yaml:"default_level" json:"default_level" mapstructure:"default_level"` // default log level for all modules
	Timezone     string            `yaml:"timezone" json:"timezone" mapstructure:"timezone"`                // "Local", "UTC", or IANA name like "America/Chicago"
	Console      *ConsoleOutput    `yaml:"console" json:"console" mapstructure:"console"`
	FileOutput   *FileOutput       `yaml:"file_output" json:"file_output" mapstructure:"file_output"`
	ModuleLevels map[string]string `yaml:"module_levels" json:"module_levels" mapstructure:"module_levels"` // per-module log levels
}

// ConsoleOutput represents console logging configuration.
// Console output is text without timestamps; journald or Docker add their own.
type ConsoleOutput struct {
	Enabled bool   `yaml:"enabled" json:"enabled" mapstructure:"enabled"`
	Level   string `yaml:"level" json:"level" mapstructure:"level"`
}

// FileOutput represents file logging configuration. File output is JSON.
type FileOutput struct {
	Enabled bool   `yaml:"enabled" json:"enabled" mapstructure:"enabled"`
	Path    string `yaml:"path" json:"path" mapstructure:"path"`
	Level   string `yaml:"level" json:"level" mapstructure:"level"`
}

// Default values for logging configuration. They match conf/defaults.go.
const (
	DefaultLogLevel       = "info"
	DefaultLogPath        = "logs/wintracker.log"
	DefaultConsoleEnabled = true
)

// applyConfigDefaults fills nil sections so a partial config still logs to the console.
func applyConfigDefaults(cfg *LoggingConfig) {
	if cfg.DefaultLevel == "" {
		cfg.DefaultLevel = DefaultLogLevel
	}
	if cfg.Console == nil {
		cfg.Console = &ConsoleOutput{
			Enabled: DefaultConsoleEnabled,
			Level:   cfg.DefaultLevel,
		}
	}
	if cfg.FileOutput == nil {
		cfg.FileOutput = &FileOutput{
			Path:  DefaultLogPath,
			Level: cfg.DefaultLevel,
		}
	}
}
