// conf/defaults.go default values for settings
package conf

import "github.com/spf13/viper"

// setDefaultConfig registers default values for every configuration key.
func setDefaultConfig(v *viper.Viper) {
	v.SetDefault("debug", false)

	v.SetDefault("main.name", "Basketball Wins Tracker")

	v.SetDefault("logging.default_level", "info")
	v.SetDefault("logging.timezone", "Local")
	v.SetDefault("logging.console.enabled", true)
	v.SetDefault("logging.console.level", "info")
	v.SetDefault("logging.file_output.enabled", false)
	v.SetDefault("logging.file_output.path", "logs/wintracker.log")
	v.SetDefault("logging.file_output.level", "info")

	v.SetDefault("output.sqlite.enabled", true)
	v.SetDefault("output.sqlite.path", "basketball.db")

	v.SetDefault("output.mysql.enabled", false)
	v.SetDefault("output.mysql.username", "")
	v.SetDefault("output.mysql.password", "")
	v.SetDefault("output.mysql.passwordfile", "")
	v.SetDefault("output.mysql.host", "localhost")
	v.SetDefault("output.mysql.port", "3306")
	v.SetDefault("output.mysql.database", "wintracker")

	v.SetDefault("webserver.port", "8080")
	v.SetDefault("webserver.reportcachettl", "0s")
	v.SetDefault("webserver.submitratelimit", 5)

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.listen", "0.0.0.0:8090")

	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.broker", "tcp://localhost:1883")
	v.SetDefault("mqtt.topic", "wintracker/games")
	v.SetDefault("mqtt.username", "")
	v.SetDefault("mqtt.password", "")
	v.SetDefault("mqtt.passwordfile", "")
	v.SetDefault("mqtt.clientid", "")

	v.SetDefault("sentry.enabled", false)
	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.debug", false)
}
