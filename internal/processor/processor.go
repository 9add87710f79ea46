// internal/processor/processor.go
package processor

import (
	"math"
	"strings"
	"time"

	"reddit-modbot/internal/models"
)

const linkKind = "t3"

// Ensure Processor implements ProcessorInterface
var _ ProcessorInterface = (*Processor)(nil)

type Processor struct{}

func NewProcessor() *Processor {
	return &Processor{}
}

// ProcessListing cleans the submissions of a listing page, keeping the
// listing's order. Non-link children and children without an id are dropped.
func (p *Processor) ProcessListing(listing *models.Listing) []models.Post {
	if listing == nil {
		return nil
	}

	processed := make([]models.Post, 0, len(listing.Data.Children))

	for _, child := range listing.Data.Children {
		if child.Kind != linkKind {
			continue
		}

		raw := child.Data
		id := strings.TrimSpace(raw.ID)
		if id == "" || strings.Contains(id, " ") {
			continue
		}

		fullName := strings.TrimSpace(raw.Name)
		if fullName == "" {
			fullName = linkKind + "_" + id
		}

		processed = append(processed, models.Post{
			ID:         id,
			FullName:   fullName,
			Title:      strings.TrimSpace(raw.Title),
			Author:     strings.TrimSpace(raw.Author),
			SelfText:   raw.Selftext,
			URL:        strings.TrimSpace(raw.URL),
			Permalink:  strings.TrimSpace(raw.Permalink),
			Community:  strings.TrimSpace(raw.Subreddit),
			CreatedUTC: unixToUTC(raw.CreatedUTC),
			IsSelf:     raw.IsSelf,
			Removed:    raw.Removed || (raw.RemovedByCategory != nil && *raw.RemovedByCategory != ""),
		})
	}

	return processed
}

func unixToUTC(seconds float64) time.Time {
	whole, frac := math.Modf(seconds)
	return time.Unix(int64(whole), int64(frac*1e9)).UTC()
}
