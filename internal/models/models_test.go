package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasImageURL(t *testing.T) {
	cases := map[string]bool{
		"https://i.redd.it/abc.jpg":          true,
		"https://i.redd.it/abc.jpeg":         true,
		"https://i.imgur.com/abc.png":        true,
		"https://i.imgur.com/abc.gif":        true,
		"https://example.com/abc.bmp":        true,
		"https://i.imgur.com/abc.PNG":        false,
		"https://i.imgur.com/abc.png?x=1":    false,
		"https://i.imgur.com/abc.gifv":       false,
		"https://www.reddit.com/r/sao/xyz/":  false,
		"":                                   false,
	}

	for url, want := range cases {
		assert.Equal(t, want, HasImageURL(url), url)
	}
}

func TestIsImagePost(t *testing.T) {
	p := Post{URL: "https://i.redd.it/abc.jpg"}
	assert.True(t, IsImagePost(p))

	p.Removed = true
	assert.False(t, IsImagePost(p))

	assert.False(t, IsImagePost(Post{URL: "https://youtube.com/watch?v=1"}))
}

func TestShortlink(t *testing.T) {
	assert.Equal(t, "https://redd.it/1abcd", Post{ID: "1abcd"}.Shortlink())
}
