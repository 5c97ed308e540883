package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/courtside/wintracker/internal/conf"
)

func TestRedactMasksSecrets(t *testing.T) {
	t.Parallel()

	settings := &conf.Settings{}
	settings.Output.MySQL.Password = "hunter2"
	settings.Sentry.DSN = "https://key@o0.ingest.sentry.io/1"

	out := Redact(settings)
	assert.Equal(t, redacted, out.Output.MySQL.Password)
	assert.Equal(t, redacted, out.Sentry.DSN)
	assert.Empty(t, out.MQTT.Password, "empty values stay empty")
	assert.Equal(t, "hunter2", settings.Output.MySQL.Password, "input is not modified")
}

func TestConfigPrintsYAML(t *testing.T) {
	t.Parallel()

	settings := &conf.Settings{}
	settings.WebServer.Port = "9000"
	settings.MQTT.Password = "secret"

	cmd := Command(settings)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())

	assert.NotContains(t, out.String(), "secret")

	var parsed map[string]any
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &parsed))
	assert.Equal(t, map[string]any{"port": "9000"}, parsed["webserver"])
}

func TestConfigInit(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	cmd := Command(&conf.Settings{})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"init", path})
	require.NoError(t, cmd.Execute())

	assert.FileExists(t, path)
	assert.Contains(t, out.String(), "Wrote default configuration")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "sqlite")
}
