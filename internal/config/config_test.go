package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	require.Equal(t, "0.0.0.0", cfg.Server.Host)
	require.Equal(t, 5000, cfg.Server.Port)
	require.Equal(t, 60*time.Second, cfg.Process.CommandTimeout)
	require.Equal(t, 30*time.Second, cfg.LLM.RequestTimeout)
	require.Equal(t, 10, cfg.Memory.RecentWindow)
	require.Equal(t, 6, cfg.Memory.ImportanceThreshold)
	require.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadConfig(t *testing.T) {
	content := `
server:
  host: 127.0.0.1
  port: 8083
workspace:
  root: /tmp/ws
llm:
  request_timeout: 20s
  providers:
    - name: openai
      model: gpt-4o-mini
      api_key_env: TEST_SANDBOX_OPENAI_KEY
    - name: anthropic
      model: claude-3-5-haiku-20241022
      api_key: inline-key
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	t.Setenv("TEST_SANDBOX_OPENAI_KEY", "from-env")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	require.Equal(t, "127.0.0.1", cfg.Server.Host)
	require.Equal(t, 8083, cfg.Server.Port)
	require.Equal(t, "/tmp/ws", cfg.Workspace.Root)
	require.Equal(t, 20*time.Second, cfg.LLM.RequestTimeout)

	require.Len(t, cfg.LLM.Providers, 2)
	require.Equal(t, "from-env", cfg.LLM.Providers[0].APIKey)
	require.Equal(t, "inline-key", cfg.LLM.Providers[1].APIKey)

	// Unset fields still acquire defaults.
	require.Equal(t, 60*time.Second, cfg.Process.CommandTimeout)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig("/nonexistent/config.yaml")
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	cfg.LLM.RequestTimeout = 5 * time.Second
	require.Error(t, cfg.Validate())

	cfg = Default()
	cfg.LLM.Providers = []LLMProviderConfig{{Name: ""}}
	require.Error(t, cfg.Validate())
}
