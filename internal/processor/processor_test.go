package processor

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reddit-modbot/internal/models"
)

const listingJSON = `{
  "kind": "Listing",
  "data": {
    "after": "t3_bbb",
    "children": [
      {"kind": "t3", "data": {"id": "aaa", "name": "t3_aaa", "title": "  First  ", "author": "kirito",
        "selftext": "", "url": "https://i.redd.it/x.png", "permalink": "/r/sao/comments/aaa/first/",
        "subreddit": "sao", "created_utc": 1700000000.0, "is_self": false, "removed_by_category": null}},
      {"kind": "t1", "data": {"id": "ccc"}},
      {"kind": "t3", "data": {"id": "", "title": "no id"}},
      {"kind": "t3", "data": {"id": "bbb", "title": "Second", "author": "asuna", "selftext": "hello",
        "url": "https://www.reddit.com/r/sao/comments/bbb/second/", "subreddit": "sao",
        "created_utc": 1699999999.5, "is_self": true, "removed_by_category": "moderator"}}
    ]
  }
}`

func TestProcessListing(t *testing.T) {
	var listing models.Listing
	require.NoError(t, json.Unmarshal([]byte(listingJSON), &listing))

	posts := NewProcessor().ProcessListing(&listing)
	require.Len(t, posts, 2)

	first := posts[0]
	assert.Equal(t, "aaa", first.ID)
	assert.Equal(t, "t3_aaa", first.FullName)
	assert.Equal(t, "First", first.Title)
	assert.Equal(t, "kirito", first.Author)
	assert.Equal(t, "sao", first.Community)
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), first.CreatedUTC)
	assert.Equal(t, time.UTC, first.CreatedUTC.Location())
	assert.False(t, first.Removed)
	assert.True(t, models.IsImagePost(first))

	second := posts[1]
	assert.Equal(t, "t3_bbb", second.FullName)
	assert.True(t, second.IsSelf)
	assert.True(t, second.Removed)
	assert.Equal(t, "hello", second.SelfText)
	assert.Equal(t, time.Unix(1699999999, 5e8).UTC(), second.CreatedUTC)
}

func TestProcessListing_Nil(t *testing.T) {
	assert.Empty(t, NewProcessor().ProcessListing(nil))
}
