// internal/modules/discord_webhook.go
package modules

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"reddit-modbot/internal/models"
)

const (
	maxDescriptionBody = 250
	embedColor         = 0x9CCC65
	redditIconURL      = "http://www.redditstatic.com/desktop2x/img/favicon/android-icon-192x192.png"
	embedTimeLayout    = "2006-01-02T15:04:05.0000000-07:00"
)

// WebhookTarget is a Discord webhook and the identity messages are sent as.
type WebhookTarget struct {
	URL       string
	BotName   string
	AvatarURL string
}

type webhookMessage struct {
	Username  string         `json:"username"`
	AvatarURL string         `json:"avatar_url"`
	Embeds    []webhookEmbed `json:"embeds"`
}

type webhookEmbed struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	URL         string      `json:"url"`
	Image       *embedImage `json:"image,omitempty"`
	Color       int         `json:"color"`
	Timestamp   string      `json:"timestamp"`
	Footer      embedFooter `json:"footer"`
	Author      embedAuthor `json:"author"`
}

type embedImage struct {
	URL string `json:"url"`
}

type embedFooter struct {
	Text string `json:"text"`
}

type embedAuthor struct {
	Name    string `json:"name"`
	URL     string `json:"url"`
	IconURL string `json:"icon_url"`
}

// DiscordWebhookModule forwards every new post to each configured webhook.
type DiscordWebhookModule struct {
	httpClient *http.Client
	community  string
	targets    []WebhookTarget
	logger     *slog.Logger
}

var _ PostMonitorModule = (*DiscordWebhookModule)(nil)

func NewDiscordWebhookModule(httpClient *http.Client, community string, targets []WebhookTarget, logger *slog.Logger) *DiscordWebhookModule {
	if logger == nil {
		logger = slog.Default()
	}
	return &DiscordWebhookModule{
		httpClient: httpClient,
		community:  community,
		targets:    targets,
		logger:     logger.With("module", "discord_webhook"),
	}
}

func (m *DiscordWebhookModule) Name() string {
	return "DiscordWebhookModule"
}

// ProcessNewPosts sends one message per (target, post), all posts for a
// target before the next target. The first transport error aborts the batch.
func (m *DiscordWebhookModule) ProcessNewPosts(ctx context.Context, posts []models.Post) error {
	if len(m.targets) == 0 {
		return nil
	}

	for _, target := range m.targets {
		for _, post := range posts {
			if err := m.sendMessage(ctx, target, post); err != nil {
				return fmt.Errorf("sending post %s to webhook: %w", post.ID, err)
			}
		}
	}
	return nil
}

func (m *DiscordWebhookModule) sendMessage(ctx context.Context, target WebhookTarget, post models.Post) error {
	body, err := json.Marshal(m.buildMessage(target, post))
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		webhookPosts.WithLabelValues("error").Inc()
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	webhookPosts.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		m.logger.Warn("webhook rejected message", "post", post.ID, "status", resp.StatusCode)
	}
	return nil
}

func (m *DiscordWebhookModule) buildMessage(target WebhookTarget, post models.Post) webhookMessage {
	var description strings.Builder
	description.WriteString("**" + post.Title + "**")
	if post.SelfText != "" {
		description.WriteString("\n")
		description.WriteString(truncateBody(post.SelfText))
	}

	embed := webhookEmbed{
		Title:       fmt.Sprintf("New post in /r/%s by /u/%s", m.community, post.Author),
		Description: description.String(),
		URL:         post.Shortlink(),
		Color:       embedColor,
		Timestamp:   post.CreatedUTC.UTC().Format(embedTimeLayout),
		Footer:      embedFooter{Text: target.BotName},
		Author: embedAuthor{
			Name:    "/r/" + m.community,
			URL:     "https://reddit.com/r/" + m.community,
			IconURL: redditIconURL,
		},
	}
	if models.HasImageURL(post.URL) {
		embed.Image = &embedImage{URL: post.URL}
	}

	return webhookMessage{
		Username:  target.BotName,
		AvatarURL: target.AvatarURL,
		Embeds:    []webhookEmbed{embed},
	}
}

// truncateBody caps text at 250 characters, ending in "..." when cut.
func truncateBody(text string) string {
	runes := []rune(text)
	if len(runes) <= maxDescriptionBody {
		return text
	}
	return string(runes[:maxDescriptionBody-3]) + "..."
}
