package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		configPathEnv, databaseDSNEnv, databaseDriverEnv, cronSecretEnv, chatGPTAPIKeyEnv, chatGPTModelEnv,
		anthropicKeyEnv, geminiKeyEnv, marketNewsKeyEnv, telegramTokenEnv, telegramChatIDEnv, logLevelEnv, httpAddrEnv,
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, ProviderChatGPT, cfg.AI.Provider)
	assert.Equal(t, 30, cfg.AI.RequestsPerMinute)
	assert.Equal(t, 24*time.Hour, cfg.Pipeline.Window)
	assert.Len(t, cfg.Pipeline.Zones, 3)
	assert.Equal(t, time.UTC.String(), cfg.Scheduler.Location().String())
	assert.Equal(t, []string{"markets", "world", "technology"}, cfg.CategoryNames())
	assert.Equal(t, []string{"markets", "world", "technology", "business"}, cfg.CategoryPages())
	assert.Equal(t, 20, cfg.Pipeline.CategoryZoneCapacity)
}

func TestLoadMergesFileAndEnv(t *testing.T) {
	path := writeConfig(t, `
database:
  driver: postgres
  dsn: postgres://localhost/news
ai:
  provider: claude
  requestsPerMinute: 10
pipeline:
  window: 6h
  zones:
    - slug: hero-featured
      capacity: 2
sites:
  - name: wire
    scanner: rss
    categories:
      - name: politics
        url: https://example.com/politics.xml
      - name: politics
        url: https://example.com/politics2.xml
  - name: market
    scanner: marketnews
    categories:
      - name: markets
        url: https://example.com/news
`)
	clearEnv(t)
	t.Setenv(configPathEnv, path)
	t.Setenv(cronSecretEnv, "s3cret")
	t.Setenv(anthropicKeyEnv, "ak")
	t.Setenv(marketNewsKeyEnv, "mk")
	t.Setenv(logLevelEnv, "warn")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "postgres://localhost/news", cfg.Database.DSN)
	assert.Equal(t, ProviderClaude, cfg.AI.Provider)
	assert.Equal(t, 10, cfg.AI.RequestsPerMinute)
	assert.Equal(t, 1, cfg.AI.Burst, "unset fields keep defaults")
	assert.Equal(t, 6*time.Hour, cfg.Pipeline.Window)
	require.Len(t, cfg.Pipeline.Zones, 1)
	assert.Equal(t, 2, cfg.Pipeline.Zones[0].Capacity)
	assert.Equal(t, "s3cret", cfg.HTTP.CronSecret)
	assert.Equal(t, "ak", cfg.Claude.APIKey)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "mk", cfg.Sites[1].Options["apiKey"])
	assert.Empty(t, cfg.Sites[0].Options["apiKey"])
	assert.Equal(t, []string{"politics", "markets"}, cfg.CategoryNames())
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "unknown provider", body: "ai:\n  provider: llama\n"},
		{name: "unknown driver", body: "database:\n  driver: mysql\n"},
		{name: "zero zone capacity", body: "pipeline:\n  zones:\n    - slug: hero\n      capacity: 0\n"},
		{name: "site without scanner", body: "sites:\n  - name: broken\n"},
		{name: "bad timezone", body: "scheduler:\n  timezone: Mars/Olympus\n"},
		{name: "malformed yaml", body: "database: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(configPathEnv, writeConfig(t, tt.body))
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	t.Setenv(configPathEnv, filepath.Join(t.TempDir(), "absent.yaml"))
	_, err := Load()
	assert.Error(t, err)
}

func TestTelegramEnabled(t *testing.T) {
	assert.False(t, TelegramConfig{BotToken: "x"}.Enabled())
	assert.True(t, TelegramConfig{BotToken: "x", ChatID: "1"}.Enabled())
}

func TestLoadExampleConfig(t *testing.T) {
	clearEnv(t)
	t.Setenv(configPathEnv, filepath.Join("..", "..", "configs", "newsdesk.example.yaml"))
	t.Setenv(marketNewsKeyEnv, "demo")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, ProviderClaude, cfg.AI.Provider)
	assert.True(t, cfg.Scheduler.Enabled)
	assert.Equal(t, "Europe/London", cfg.Scheduler.Location().String())
	assert.Equal(t, "demo", cfg.Sites[0].Options["apiKey"])
	assert.Equal(t, []string{"markets", "economy", "world", "technology", "business"}, cfg.CategoryPages())
}
