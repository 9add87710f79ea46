// internal/client/interface.go
package client

import (
	"context"
	"iter"

	"reddit-modbot/internal/models"
)

// ReportReason is the report category sent to Reddit.
type ReportReason string

const (
	ReportReasonOther ReportReason = "other"
)

type RedditClientInterface interface {
	// Me returns the name of the authenticated account.
	Me(ctx context.Context) (string, error)
	// Community returns the canonical display name of a subreddit.
	Community(ctx context.Context, name string) (string, error)

	// NewPosts and AuthorPosts yield posts newest first. Pages are only
	// fetched while the caller keeps ranging.
	NewPosts(ctx context.Context, community string) iter.Seq2[models.Post, error]
	AuthorPosts(ctx context.Context, author string) iter.Seq2[models.Post, error]

	Report(ctx context.Context, post models.Post, reason ReportReason, text string) error
}
