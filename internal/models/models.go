// internal/models/models.go
package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Post is a snapshot of a Reddit submission at fetch time.
type Post struct {
	ID         string    `json:"id"`
	FullName   string    `json:"name"`
	Title      string    `json:"title"`
	Author     string    `json:"author"`
	SelfText   string    `json:"selftext"`
	URL        string    `json:"url"`
	Permalink  string    `json:"permalink"`
	Community  string    `json:"subreddit"`
	CreatedUTC time.Time `json:"created_utc"`
	IsSelf     bool      `json:"is_self"`
	Removed    bool      `json:"removed"`
}

// Shortlink is the redd.it short URL for the post.
func (p Post) Shortlink() string {
	return "https://redd.it/" + p.ID
}

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".bmp"}

// HasImageURL reports whether url ends in a known image extension. The match
// is case sensitive and done on the raw string.
func HasImageURL(url string) bool {
	for _, ext := range imageExtensions {
		if strings.HasSuffix(url, ext) {
			return true
		}
	}
	return false
}

// IsImagePost reports whether p links directly to an image and has not been
// removed.
func IsImagePost(p Post) bool {
	return !p.Removed && HasImageURL(p.URL)
}

// RawPost is the data of a t3 child in a Reddit listing.
type RawPost struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	Title             string  `json:"title"`
	Author            string  `json:"author"`
	Selftext          string  `json:"selftext"`
	URL               string  `json:"url"`
	Permalink         string  `json:"permalink"`
	Subreddit         string  `json:"subreddit"`
	CreatedUTC        float64 `json:"created_utc"`
	IsSelf            bool    `json:"is_self"`
	Removed           bool    `json:"removed"`
	RemovedByCategory *string `json:"removed_by_category"`
}

// Listing is a page of a Reddit listing endpoint.
type Listing struct {
	Kind string `json:"kind"`
	Data struct {
		After    string         `json:"after"`
		Children []ListingChild `json:"children"`
	} `json:"data"`
}

type ListingChild struct {
	Kind string  `json:"kind"`
	Data RawPost `json:"data"`
}

// CommunityMetadata records the poll checkpoint for a monitored community
type CommunityMetadata struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CommunityName string             `bson:"community_name" json:"community_name"`
	LastCheckedAt time.Time          `bson:"last_checked_at" json:"last_checked_at"`
	LastBatchSize int                `bson:"last_batch_size" json:"last_batch_size"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at" json:"updated_at"`
}

// ReportRecord is a report filed by the bot
type ReportRecord struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PostID      string             `bson:"post_id" json:"post_id"`
	PriorPostID string             `bson:"prior_post_id,omitempty" json:"prior_post_id,omitempty"`
	Author      string             `bson:"author" json:"author"`
	Community   string             `bson:"community" json:"community"`
	Reason      string             `bson:"reason" json:"reason"`
	ReportedAt  time.Time          `bson:"reported_at" json:"reported_at"`
}
