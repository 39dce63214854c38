package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := Default()
	assert.Equal(t, 5, cfg.Chat.ReconnectAttempts)
	assert.Equal(t, time.Second, cfg.ReconnectDelay())
	assert.Equal(t, 500*time.Millisecond, cfg.TypingDebounce())
	assert.Equal(t, 10*time.Second, cfg.RemoteTypingTimeout())
	assert.False(t, cfg.Chat.ResyncOnReconnect)
}

func TestLoad_MissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), nil)
	require.NoError(t, err)
	assert.Equal(t, Default().Server.APIBaseURL, cfg.Server.APIBaseURL)
}

func TestLoad_YamlFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  api_base_url: https://api.mwork.kz
  ws_base_url: wss://api.mwork.kz/ws
  token: secret
chat:
  reconnect_attempts: 3
  reconnect_delay_ms: 250
  typing_debounce_ms: 400
  remote_typing_timeout_ms: 8000
  resync_on_reconnect: true
upload:
  max_size: 1048576
`), 0o600))

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "https://api.mwork.kz", cfg.Server.APIBaseURL)
	assert.Equal(t, 3, cfg.Chat.ReconnectAttempts)
	assert.Equal(t, 250*time.Millisecond, cfg.ReconnectDelay())
	assert.True(t, cfg.Chat.ResyncOnReconnect)
	assert.Equal(t, int64(1048576), cfg.Upload.MaxSize)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("MWORK_API_URL", "https://stage.mwork.kz")
	t.Setenv("MWORK_RECONNECT_ATTEMPTS", "7")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), nil)
	require.NoError(t, err)
	assert.Equal(t, "https://stage.mwork.kz", cfg.Server.APIBaseURL)
	assert.Equal(t, 7, cfg.Chat.ReconnectAttempts)
}

func TestLoad_ValidationRejectsBadValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  api_base_url: not-a-url
  ws_base_url: wss://api.mwork.kz/ws
`), 0o600))

	_, err := Load(path, nil)
	require.Error(t, err)
}

func TestLoad_RejectsHTTPSchemeForChannel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  api_base_url: https://api.mwork.kz
  ws_base_url: https://api.mwork.kz/ws
`), 0o600))

	_, err := Load(path, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ws://")
}

func TestLoad_RejectsUnparseableYaml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [broken"), 0o600))

	_, err := Load(path, nil)
	require.Error(t, err)
}
