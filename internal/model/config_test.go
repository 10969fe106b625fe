package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultAppConfig(), cfg)
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `storage:
  path: /tmp/tk.db
ai:
  min_interval_sec: 5
reminders:
  deliver: mail
  mail:
    host: smtp.example.com
    from: me@example.com
    to: me@example.com
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/tk.db", cfg.Storage.Path)
	assert.Equal(t, 5, cfg.AI.MinIntervalSec)
	assert.Equal(t, 100, cfg.AI.MaxTokens)
	assert.Equal(t, DeliverMail, cfg.Reminders.Deliver)
	assert.Equal(t, "smtp.example.com", cfg.Reminders.Mail.Host)
	assert.Equal(t, "587", cfg.Reminders.Mail.Port)
}

func TestLoadConfigRejectsUnknownDeliverMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("reminders:\n  deliver: pigeon\n"), 0o600))

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pigeon")
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultAppConfig()
	cfg.Storage.Path = "/data/tasks.db"
	cfg.Display.Theme = "dark"

	require.NoError(t, SaveConfig(path, cfg))

	got, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/tasks.db", got.Storage.Path)
	assert.Equal(t, "dark", got.Display.Theme)
}
