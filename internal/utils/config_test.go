package utils

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/benmeehan/carstatus-relay/internal/constants"
	"github.com/benmeehan/carstatus-relay/pkg/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configEnv = []string{
	"CARSTATUS_REMOTE_URL",
	"CARSTATUS_REMOTE_TIMEOUT",
	"CARSTATUS_RELAY_ADDR",
	"CARSTATUS_RELAY_URL",
	"CARSTATUS_POLL_INTERVAL",
	"CARSTATUS_PAGE_SIZE",
	"CARSTATUS_OPERATOR",
	"CARSTATUS_MQTT_BROKER",
	"CARSTATUS_LOG_LEVEL",
	"CARSTATUS_LOG_FILE",
}

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range configEnv {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearConfigEnv(t)

	config, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"), file.NewFileService())
	require.NoError(t, err)

	assert.Equal(t, DefaultRemoteURL, config.Remote.BaseURL)
	assert.Equal(t, DefaultRemoteTimeout, config.Remote.Timeout)
	assert.Equal(t, DefaultListenAddr, config.Relay.ListenAddr)
	assert.Equal(t, DefaultRelayURL, config.Relay.URL)
	assert.True(t, config.Relay.Embedded)
	assert.Equal(t, DefaultRemoteTimeout+5*time.Second, config.Relay.WriteTimeout)
	assert.Equal(t, DefaultPollInterval, config.Monitor.Interval)
	assert.Equal(t, DefaultPageSize, config.Monitor.PageSize)
	assert.Equal(t, constants.SourceRemote, config.Monitor.Source)
	assert.Equal(t, DefaultOperator, config.Dispatcher.Operator)
	assert.False(t, config.Dispatcher.StrictCommands)
	assert.False(t, config.MQTT.Enabled)
	assert.Equal(t, DefaultRemoteURL, config.MonitorURL())
}

func TestLoadConfig_FromFile(t *testing.T) {
	clearConfigEnv(t)
	path := writeConfig(t, `
remote:
  base_url: http://store.local/IoTCarStatus
  timeout: 3s
relay:
  embedded: false
monitor:
  interval: 2s
  page_size: 5
  source: relay
  sort_by_id: true
dispatcher:
  operator: alice
  strict_commands: true
`)

	config, err := LoadConfig(path, file.NewFileService())
	require.NoError(t, err)

	assert.Equal(t, "http://store.local/IoTCarStatus", config.Remote.BaseURL)
	assert.Equal(t, 3*time.Second, config.Remote.Timeout)
	assert.False(t, config.Relay.Embedded)
	assert.Equal(t, 2*time.Second, config.Monitor.Interval)
	assert.Equal(t, 5, config.Monitor.PageSize)
	assert.True(t, config.Monitor.SortByID)
	assert.Equal(t, "alice", config.Dispatcher.Operator)
	assert.True(t, config.Dispatcher.StrictCommands)
	assert.Equal(t, DefaultRelayURL, config.MonitorURL())
}

func TestLoadConfig_EnvironmentOverridesFile(t *testing.T) {
	clearConfigEnv(t)
	path := writeConfig(t, "dispatcher:\n  operator: alice\n")

	t.Setenv("CARSTATUS_OPERATOR", "bob")
	t.Setenv("CARSTATUS_REMOTE_URL", "https://example.test/records")
	t.Setenv("CARSTATUS_POLL_INTERVAL", "500ms")
	t.Setenv("CARSTATUS_PAGE_SIZE", "3")
	t.Setenv("CARSTATUS_MQTT_BROKER", "tcp://broker:1883")

	config, err := LoadConfig(path, file.NewFileService())
	require.NoError(t, err)

	assert.Equal(t, "bob", config.Dispatcher.Operator)
	assert.Equal(t, "https://example.test/records", config.Remote.BaseURL)
	assert.Equal(t, 500*time.Millisecond, config.Monitor.Interval)
	assert.Equal(t, 3, config.Monitor.PageSize)
	assert.True(t, config.MQTT.Enabled)
	assert.Equal(t, "tcp://broker:1883", config.MQTT.Broker)
}

func TestLoadConfig_InvalidEnvironment(t *testing.T) {
	clearConfigEnv(t)

	t.Setenv("CARSTATUS_POLL_INTERVAL", "often")
	_, err := LoadConfig("", file.NewFileService())
	assert.ErrorContains(t, err, "CARSTATUS_POLL_INTERVAL")

	t.Setenv("CARSTATUS_POLL_INTERVAL", "")
	t.Setenv("CARSTATUS_PAGE_SIZE", "ten")
	_, err = LoadConfig("", file.NewFileService())
	assert.ErrorContains(t, err, "CARSTATUS_PAGE_SIZE")
}

func TestLoadConfig_UnknownKeyRejected(t *testing.T) {
	clearConfigEnv(t)
	path := writeConfig(t, "monitor:\n  intervall: 2s\n")

	_, err := LoadConfig(path, file.NewFileService())
	assert.ErrorContains(t, err, "failed to parse config file")
}

func TestConfig_Validate(t *testing.T) {
	clearConfigEnv(t)
	config, err := LoadConfig("", file.NewFileService())
	require.NoError(t, err)

	config.Monitor.Source = "cache"
	config.Monitor.PageSize = -1
	config.MQTT.Enabled = true
	config.MQTT.Broker = ""

	err = config.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "monitor.source")
	assert.Contains(t, err.Error(), "monitor.page_size")
	assert.Contains(t, err.Error(), "mqtt.broker")
}
