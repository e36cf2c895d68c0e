package blueprints_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tendant/blueprint-share/pkg/blueprints"
)

func TestFindVideoProvider(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		embed    string
		provider string
	}{
		{
			name:     "youtube watch url",
			url:      "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
			embed:    "//www.youtube.com/embed/dQw4w9WgXcQ",
			provider: "youtube",
		},
		{
			name:     "youtube short url",
			url:      "https://youtu.be/dQw4w9WgXcQ",
			embed:    "//www.youtube.com/embed/dQw4w9WgXcQ",
			provider: "youtube",
		},
		{
			name:     "youtube embed url",
			url:      "https://www.youtube.com/embed/dQw4w9WgXcQ",
			embed:    "//www.youtube.com/embed/dQw4w9WgXcQ",
			provider: "youtube",
		},
		{
			name:     "youtube nocookie",
			url:      "https://www.youtube-nocookie.com/embed/dQw4w9WgXcQ",
			embed:    "//www.youtube.com/embed/dQw4w9WgXcQ",
			provider: "youtube",
		},
		{
			name:     "vimeo",
			url:      "https://vimeo.com/148751763",
			embed:    "//player.vimeo.com/video/148751763",
			provider: "vimeo",
		},
		{
			name:     "vimeo player url",
			url:      "https://player.vimeo.com/video/148751763",
			embed:    "//player.vimeo.com/video/148751763",
			provider: "vimeo",
		},
		{
			name:     "dailymotion",
			url:      "https://www.dailymotion.com/video/x8v0r2c",
			embed:    "//www.dailymotion.com/embed/video/x8v0r2c",
			provider: "dailymotion",
		},
		{
			name:     "dailymotion short url",
			url:      "https://dai.ly/x8v0r2c",
			embed:    "//www.dailymotion.com/embed/video/x8v0r2c",
			provider: "dailymotion",
		},
		{
			name:     "dailymotion embed url",
			url:      "https://www.dailymotion.com/embed/video/x8v0r2c",
			embed:    "//www.dailymotion.com/embed/video/x8v0r2c",
			provider: "dailymotion",
		},
		{
			name:     "bilibili av url",
			url:      "https://www.bilibili.com/video/av170001",
			embed:    "//player.bilibili.com/player.html?aid=170001",
			provider: "bilibili",
		},
		{
			name:     "bilibili player url",
			url:      "https://player.bilibili.com/player.html?aid=170001",
			embed:    "//player.bilibili.com/player.html?aid=170001",
			provider: "bilibili",
		},
		{
			name:     "niconico",
			url:      "https://www.nicovideo.jp/watch/sm9",
			embed:    "//embed.nicovideo.jp/watch/sm9",
			provider: "niconico",
		},
		{
			name:     "peertube keeps its host",
			url:      "https://framatube.org/videos/watch/9c9de5e8-0a1e-484a-b099-e80766180a6d",
			embed:    "//framatube.org/videos/embed/9c9de5e8-0a1e-484a-b099-e80766180a6d",
			provider: "peertube",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			embed, provider, ok := blueprints.FindVideoProvider(tt.url)
			assert.True(t, ok)
			assert.Equal(t, tt.embed, embed)
			assert.Equal(t, tt.provider, provider)
		})
	}
}

func TestFindVideoProvider_NoMatch(t *testing.T) {
	for _, url := range []string{
		"",
		"https://example.com/video/123",
		"not a url",
	} {
		embed, provider, ok := blueprints.FindVideoProvider(url)
		assert.False(t, ok, "url %q should not match", url)
		assert.Empty(t, embed)
		assert.Empty(t, provider)
	}
}
