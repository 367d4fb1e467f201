package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalYAML = `
environment: test
server:
  port: 8080
events:
  backend: none
engine:
  trend:
    confirm_threshold: 2
  groups:
    - id: 1
      enabled: true
      required: 2
      trend_mode: respect
      bullish: ["rsi oversold"]
      bearish: ["rsi overbought"]
  combinations:
    - name: momentum
      groups: [1]
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadMinimal(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.Environment)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 2, cfg.Engine.Trend.ConfirmThreshold)
	require.Len(t, cfg.Engine.Groups, 1)
	assert.Equal(t, []string{"rsi oversold"}, cfg.Engine.Groups[0].Bullish)
	require.Len(t, cfg.Engine.Combinations, 1)
	assert.Equal(t, []int{1}, cfg.Engine.Combinations[0].Groups)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidateRejectsUnknownBackend(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	cfg.Events.Backend = "rabbitmq"
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsDuplicateGroupIDs(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	cfg.Engine.Groups = append(cfg.Engine.Groups, cfg.Engine.Groups[0])
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsUnknownComboGroup(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	cfg.Engine.Combinations[0].Groups = []int{1, 9}
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsKafkaWithoutBrokers(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	cfg.Events.Backend = "kafka"
	assert.Error(t, cfg.Validate())
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("REDIS_ADDR", "redis.internal:6380")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg, err := LoadWithEnv(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, "redis.internal", cfg.Redis.Host)
	assert.Equal(t, 6380, cfg.Redis.Port)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
}
