// internal/config/config.go
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Reddit credentials (required)
	RedditUsername     string
	RedditPassword     string
	RedditClientID     string
	RedditClientSecret string
	RedditRedirectURI  string
	RedditUserAgent    string

	Subreddit string

	RedditAPIURL            string
	RedditAuthURL           string
	RedditRequestsPerMinute int
	RedditMaxRetries        int
	RequestTimeout          time.Duration

	// Discord webhook module; no URLs disables it
	DiscordWebhookURLs []string
	DiscordBotName     string
	DiscordAvatarURL   string

	PollInterval time.Duration
	ImageWindow  time.Duration
	ReportDedupe bool

	MongoDBURI   string
	DatabaseName string

	ServerPort      string
	WebAuthUser     string
	WebAuthPassword string
	MetricsAddr     string

	LogLevel slog.Level
}

// LoadConfig reads the environment, after loading envFiles (or ".env" when
// none are given). Missing dotenv files are not an error.
func LoadConfig(envFiles ...string) (*Config, error) {
	_ = godotenv.Load(envFiles...)

	cfg := &Config{
		RedditUsername:          getEnv("REDDIT_USERNAME", ""),
		RedditPassword:          getEnv("REDDIT_PASSWORD", ""),
		RedditClientID:          getEnv("REDDIT_CLIENT_ID", ""),
		RedditClientSecret:      getEnv("REDDIT_CLIENT_SECRET", ""),
		RedditRedirectURI:       getEnv("REDDIT_REDIRECT_URI", "http://localhost:8080"),
		RedditUserAgent:         getEnv("REDDIT_USER_AGENT", "reddit-modbot/1.0"),
		Subreddit:               strings.TrimPrefix(getEnv("REDDIT_SUBREDDIT", ""), "r/"),
		RedditAPIURL:            getEnv("REDDIT_API_URL", "https://oauth.reddit.com"),
		RedditAuthURL:           getEnv("REDDIT_AUTH_URL", "https://www.reddit.com/api/v1/access_token"),
		RedditRequestsPerMinute: getEnvInt("REDDIT_REQUESTS_PER_MINUTE", 60),
		RedditMaxRetries:        getEnvInt("REDDIT_MAX_RETRIES", 2),
		RequestTimeout:          getEnvDuration("REQUEST_TIMEOUT", 30*time.Second),
		DiscordWebhookURLs:      getEnvStringSlice("DISCORD_WEBHOOK_URLS", nil),
		DiscordBotName:          getEnv("DISCORD_BOT_NAME", ""),
		DiscordAvatarURL:        getEnv("DISCORD_AVATAR_URL", "https://i.imgur.com/JgH9D87.png"),
		PollInterval:            getEnvDuration("POLL_INTERVAL", 30*time.Second),
		ImageWindow:             getEnvDuration("IMAGE_WINDOW", 7*24*time.Hour),
		ReportDedupe:            getEnvBool("REPORT_DEDUPE", true),
		MongoDBURI:              getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		DatabaseName:            getEnv("DATABASE_NAME", "reddit_modbot"),
		ServerPort:              getEnv("SERVER_PORT", "8080"),
		WebAuthUser:             getEnv("WEB_AUTH_USER", "admin"),
		WebAuthPassword:         getEnv("WEB_AUTH_PASSWORD", "password"),
		MetricsAddr:             getEnv("METRICS_ADDR", ":9090"),
		LogLevel:                getEnvLogLevel("LOG_LEVEL", slog.LevelInfo),
	}

	if cfg.RedditUsername == "" || cfg.RedditPassword == "" {
		return nil, fmt.Errorf("REDDIT_USERNAME and REDDIT_PASSWORD are required")
	}
	if cfg.RedditClientID == "" || cfg.RedditClientSecret == "" {
		return nil, fmt.Errorf("REDDIT_CLIENT_ID and REDDIT_CLIENT_SECRET are required")
	}
	if cfg.Subreddit == "" {
		return nil, fmt.Errorf("REDDIT_SUBREDDIT is required")
	}
	if cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("POLL_INTERVAL must be positive, got %s", cfg.PollInterval)
	}
	if cfg.MongoDBURI == "" {
		return nil, fmt.Errorf("MONGODB_URI is required")
	}
	if cfg.WebAuthUser == "" || cfg.WebAuthPassword == "" {
		return nil, fmt.Errorf("WEB_AUTH_USER and WEB_AUTH_PASSWORD are required")
	}

	if cfg.DiscordBotName == "" {
		cfg.DiscordBotName = fmt.Sprintf("/r/%s Moderation Bot", cfg.Subreddit)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvStringSlice splits a comma separated value, dropping empty entries.
func getEnvStringSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvLogLevel(key string, defaultValue slog.Level) slog.Level {
	if value := os.Getenv(key); value != "" {
		var level slog.Level
		if err := level.UnmarshalText([]byte(value)); err == nil {
			return level
		}
	}
	return defaultValue
}
