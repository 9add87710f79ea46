// internal/storage/interface.go
package storage

import (
	"context"

	"reddit-modbot/internal/models"
)

type StorageInterface interface {
	// Community checkpoint operations
	GetCommunityMetadata(ctx context.Context, communityName string) (*models.CommunityMetadata, error)
	UpsertCommunityMetadata(ctx context.Context, metadata *models.CommunityMetadata) error

	// Report ledger operations
	HasReport(ctx context.Context, postID string) (bool, error)
	RecordReport(ctx context.Context, record *models.ReportRecord) error

	// Health check and cleanup
	Ping(ctx context.Context) error
	Close() error
}
