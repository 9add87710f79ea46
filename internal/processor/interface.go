// internal/processor/interface.go
package processor

import (
	"reddit-modbot/internal/models"
)

type ProcessorInterface interface {
	ProcessListing(listing *models.Listing) []models.Post
}
