package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("REDDIT_USERNAME", "modbot")
	t.Setenv("REDDIT_PASSWORD", "hunter2")
	t.Setenv("REDDIT_CLIENT_ID", "client")
	t.Setenv("REDDIT_CLIENT_SECRET", "secret")
	t.Setenv("REDDIT_SUBREDDIT", "swordartonline")
}

// noEnvFile points godotenv at a file that does not exist so a stray .env in
// the working directory cannot leak into the test.
func noEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestLoadConfig_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := LoadConfig(noEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, "swordartonline", cfg.Subreddit)
	assert.Equal(t, 30*time.Second, cfg.PollInterval)
	assert.Equal(t, 7*24*time.Hour, cfg.ImageWindow)
	assert.True(t, cfg.ReportDedupe)
	assert.Empty(t, cfg.DiscordWebhookURLs)
	assert.Equal(t, "/r/swordartonline Moderation Bot", cfg.DiscordBotName)
	assert.Equal(t, 60, cfg.RedditRequestsPerMinute)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

func TestLoadConfig_WebhookURLs(t *testing.T) {
	setRequired(t)
	t.Setenv("DISCORD_WEBHOOK_URLS", " https://a.example/hook , ,https://b.example/hook")

	cfg, err := LoadConfig(noEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, []string{"https://a.example/hook", "https://b.example/hook"}, cfg.DiscordWebhookURLs)
}

func TestLoadConfig_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("REDDIT_SUBREDDIT", "r/golang")
	t.Setenv("POLL_INTERVAL", "1m")
	t.Setenv("REPORT_DEDUPE", "false")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DISCORD_BOT_NAME", "Gopher")
	t.Setenv("REDDIT_MAX_RETRIES", "not-a-number")

	cfg, err := LoadConfig(noEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, "golang", cfg.Subreddit)
	assert.Equal(t, time.Minute, cfg.PollInterval)
	assert.False(t, cfg.ReportDedupe)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, "Gopher", cfg.DiscordBotName)
	assert.Equal(t, 2, cfg.RedditMaxRetries)
}

func TestLoadConfig_MissingCredentials(t *testing.T) {
	setRequired(t)
	t.Setenv("REDDIT_PASSWORD", "")

	_, err := LoadConfig(noEnvFile(t))
	assert.ErrorContains(t, err, "REDDIT_PASSWORD")
}

func TestLoadConfig_MissingSubreddit(t *testing.T) {
	setRequired(t)
	t.Setenv("REDDIT_SUBREDDIT", "")

	_, err := LoadConfig(noEnvFile(t))
	assert.ErrorContains(t, err, "REDDIT_SUBREDDIT")
}

func TestLoadConfig_EnvFile(t *testing.T) {
	setRequired(t)
	os.Unsetenv("REDDIT_SUBREDDIT")

	path := filepath.Join(t.TempDir(), "bot.env")
	require.NoError(t, os.WriteFile(path, []byte("REDDIT_SUBREDDIT=fromfile\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("REDDIT_SUBREDDIT") })

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "fromfile", cfg.Subreddit)
}
