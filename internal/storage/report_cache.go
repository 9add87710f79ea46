// internal/storage/report_cache.go
package storage

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"reddit-modbot/internal/models"
)

type ReportStore interface {
	HasReport(ctx context.Context, postID string) (bool, error)
	RecordReport(ctx context.Context, record *models.ReportRecord) error
}

// CachedReportLedger keeps recently reported post ids in memory so repeat
// checks across poll cycles skip the database.
type CachedReportLedger struct {
	store    ReportStore
	reported *lru.Cache[string, struct{}]
}

func NewCachedReportLedger(store ReportStore, size int) (*CachedReportLedger, error) {
	reported, err := lru.New[string, struct{}](size)
	if err != nil {
		return nil, fmt.Errorf("creating report cache: %w", err)
	}
	return &CachedReportLedger{store: store, reported: reported}, nil
}

func (l *CachedReportLedger) HasReport(ctx context.Context, postID string) (bool, error) {
	if l.reported.Contains(postID) {
		return true, nil
	}

	ok, err := l.store.HasReport(ctx, postID)
	if err != nil {
		return false, err
	}
	if ok {
		l.reported.Add(postID, struct{}{})
	}
	return ok, nil
}

func (l *CachedReportLedger) RecordReport(ctx context.Context, record *models.ReportRecord) error {
	if err := l.store.RecordReport(ctx, record); err != nil {
		return err
	}
	l.reported.Add(record.PostID, struct{}{})
	return nil
}
