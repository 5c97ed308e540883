package conf

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateEnvBool(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"true", "true", false},
		{"false", "false", false},
		{"1", "1", false},
		{"0", "0", false},
		{"TRUE", "TRUE", false},
		{"true with spaces", " true ", false},
		{"yes", "yes", true}, // strconv.ParseBool doesn't accept yes/no
		{"decimal", "1.0", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := validateEnvBool(tt.value)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "invalid boolean value")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateEnvPort(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value   string
		wantErr bool
	}{
		{"8080", false},
		{"1", false},
		{"65535", false},
		{"0", true},
		{"65536", true},
		{"http", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.wantErr, validateEnvPort(tt.value) != nil)
		})
	}
}

func TestValidateEnvListen(t *testing.T) {
	t.Parallel()

	assert.NoError(t, validateEnvListen("0.0.0.0:8090"))
	assert.NoError(t, validateEnvListen(":8090"))
	assert.Error(t, validateEnvListen("8090"))
	assert.Error(t, validateEnvListen("localhost:0"))
}

func TestValidateEnvBrokerURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value   string
		wantErr bool
	}{
		{"tcp://localhost:1883", false},
		{"ssl://broker.example.com:8883", false},
		{"wss://broker.example.com/mqtt", false},
		{"http://localhost:1883", true},
		{"localhost:1883", true},
		{"tcp://", true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.wantErr, validateEnvBrokerURL(tt.value) != nil)
		})
	}
}

func TestValidateEnvLogLevel(t *testing.T) {
	t.Parallel()

	for _, level := range []string{"trace", "debug", "info", "warn", "error", "INFO"} {
		assert.NoError(t, validateEnvLogLevel(level), level)
	}
	assert.Error(t, validateEnvLogLevel("verbose"))
}

func TestBindEnvVarsCollectsAllProblems(t *testing.T) {
	t.Setenv("WINTRACKER_PORT", "eighty")
	t.Setenv("WINTRACKER_MQTT_BROKER", "localhost")
	t.Setenv("WINTRACKER_MYSQL_HOST", "db.internal")

	v := viper.New()
	err := bindEnvVars(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WINTRACKER_PORT")
	assert.Contains(t, err.Error(), "WINTRACKER_MQTT_BROKER")
	assert.NotContains(t, err.Error(), "WINTRACKER_MYSQL_HOST")

	assert.Equal(t, "db.internal", v.GetString("output.mysql.host"))
}
