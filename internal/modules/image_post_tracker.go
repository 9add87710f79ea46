// internal/modules/image_post_tracker.go
package modules

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"reddit-modbot/internal/client"
	"reddit-modbot/internal/models"
)

// AuthorFeed is the part of the Reddit client the tracker needs.
type AuthorFeed interface {
	AuthorPosts(ctx context.Context, author string) iter.Seq2[models.Post, error]
	Report(ctx context.Context, post models.Post, reason client.ReportReason, text string) error
}

// ReportLedger remembers which posts have already been reported.
type ReportLedger interface {
	HasReport(ctx context.Context, postID string) (bool, error)
	RecordReport(ctx context.Context, record *models.ReportRecord) error
}

// ImagePostTrackerModule reports image posts from authors who already made
// an image post in the community within the window (one per week by
// default).
type ImagePostTrackerModule struct {
	feed      AuthorFeed
	community string
	window    time.Duration
	ledger    ReportLedger
	logger    *slog.Logger
	now       func() time.Time
}

var _ PostMonitorModule = (*ImagePostTrackerModule)(nil)

// NewImagePostTrackerModule builds the tracker. A nil ledger means the same
// post may be reported again on later cycles.
func NewImagePostTrackerModule(feed AuthorFeed, community string, window time.Duration, ledger ReportLedger, logger *slog.Logger) *ImagePostTrackerModule {
	if logger == nil {
		logger = slog.Default()
	}
	return &ImagePostTrackerModule{
		feed:      feed,
		community: community,
		window:    window,
		ledger:    ledger,
		logger:    logger.With("module", "image_post_tracker"),
		now:       time.Now,
	}
}

func (m *ImagePostTrackerModule) Name() string {
	return "ImagePostTrackerModule"
}

// ProcessNewPosts evaluates every post in the batch, including after a
// report has been filed for an earlier one.
func (m *ImagePostTrackerModule) ProcessNewPosts(ctx context.Context, posts []models.Post) error {
	for _, post := range posts {
		m.logger.Debug("handling new post", "title", post.Title, "author", post.Author, "link", post.Shortlink())

		if !models.IsImagePost(post) || !strings.EqualFold(post.Community, m.community) {
			continue
		}

		prior, found, err := m.findRecentImagePost(ctx, post)
		if err != nil {
			return fmt.Errorf("fetching posts by /u/%s: %w", post.Author, err)
		}
		if !found {
			continue
		}

		if err := m.handleInfringingPost(ctx, post, prior); err != nil {
			return err
		}
	}
	return nil
}

// findRecentImagePost scans the author's history, newest first, and returns
// the first other image link post in the community inside the window.
func (m *ImagePostTrackerModule) findRecentImagePost(ctx context.Context, post models.Post) (models.Post, bool, error) {
	cutoff := m.now().Add(-m.window)

	for candidate, err := range m.feed.AuthorPosts(ctx, post.Author) {
		if err != nil {
			return models.Post{}, false, err
		}
		if candidate.CreatedUTC.Before(cutoff) {
			break
		}
		if candidate.ID == post.ID || candidate.IsSelf {
			continue
		}
		if !strings.EqualFold(candidate.Community, m.community) {
			continue
		}
		if models.IsImagePost(candidate) {
			return candidate, true, nil
		}
	}
	return models.Post{}, false, nil
}

func (m *ImagePostTrackerModule) handleInfringingPost(ctx context.Context, post, prior models.Post) error {
	logger := m.logger.With("post", post.ID, "prior", prior.ID, "author", post.Author)

	if m.ledger != nil {
		reported, err := m.ledger.HasReport(ctx, post.ID)
		if err != nil {
			logger.Warn("failed to check report ledger, reporting anyway", "err", err)
		} else if reported {
			logger.Debug("post already reported")
			reportsDeduped.Inc()
			return nil
		}
	}

	reason := ReportReasonText(prior, m.now())
	logger.Info("reporting possible image rule infringement", "reason", reason)

	if err := m.feed.Report(ctx, post, client.ReportReasonOther, reason); err != nil {
		return err
	}
	reportsFiled.Inc()

	if m.ledger != nil {
		record := &models.ReportRecord{
			PostID:      post.ID,
			PriorPostID: prior.ID,
			Author:      post.Author,
			Community:   post.Community,
			Reason:      reason,
			ReportedAt:  m.now().UTC(),
		}
		if err := m.ledger.RecordReport(ctx, record); err != nil {
			logger.Warn("failed to record report", "err", err)
		}
	}
	return nil
}

// ReportReasonText is the reason attached to an image rule report, with the
// age of the prior post in days to one decimal place.
func ReportReasonText(prior models.Post, now time.Time) string {
	days := now.Sub(prior.CreatedUTC).Hours() / 24
	return fmt.Sprintf("Possible image rule violation - %s posted %s days ago",
		prior.Shortlink(), strconv.FormatFloat(days, 'f', 1, 64))
}
