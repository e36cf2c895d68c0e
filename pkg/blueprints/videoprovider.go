package blueprints

import (
	"regexp"
	"strings"
)

// providerMatcher binds one URL pattern to its embeddable output template.
// Templates substitute {{1}} with the first captured group; peertube is the
// only provider with a second capture (host + video UUID) via {{2}}.
type providerMatcher struct {
	provider string
	regex    *regexp.Regexp
	output   string
}

// providersMatcher is evaluated in order; first match wins.
var providersMatcher = []providerMatcher{
	{
		provider: "youtube",
		regex:    regexp.MustCompile(`(?i)(?:https?://)?(?:www\.)?(?:youtu\.be/|youtube\.com/(?:embed/|v/|watch/?\?v=|watch/?\?.+&v=))([A-Za-z0-9_-]{11})`),
		output:   "//www.youtube.com/embed/{{1}}",
	},
	{
		provider: "youtube",
		regex:    regexp.MustCompile(`(?i)(?:https?://)?(?:www\.)?youtube-nocookie\.com/embed/([A-Za-z0-9_-]{11})`),
		output:   "//www.youtube.com/embed/{{1}}",
	},
	{
		provider: "vimeo",
		regex:    regexp.MustCompile(`(?i)(?:https?://)?(?:www\.|player\.)?vimeo\.com/(?:channels/(?:\w+/)?|groups/(?:[^/]*)/videos/|showcase/(?:[^/]+)/video/|video/|)(\d+)`),
		output:   "//player.vimeo.com/video/{{1}}",
	},
	{
		provider: "dailymotion",
		regex:    regexp.MustCompile(`(?i)(?:https?://)?(?:api\.dailymotion\.com|www\.dailymotion\.com)/(?:video|hub)/([^#?&/]+)?`),
		output:   "//www.dailymotion.com/embed/video/{{1}}",
	},
	{
		provider: "dailymotion",
		regex:    regexp.MustCompile(`(?i)(?:https?://)?dai\.ly/([^#?&/]+)?`),
		output:   "//www.dailymotion.com/embed/video/{{1}}",
	},
	{
		provider: "dailymotion",
		regex:    regexp.MustCompile(`(?i)(?:https?://)?(?:www\.dailymotion\.com)/embed/video/([^#?&/]+)?`),
		output:   "//www.dailymotion.com/embed/video/{{1}}",
	},
	{
		provider: "bilibili",
		regex:    regexp.MustCompile(`(?i)(?:https?://)?(?:www\.)?bilibili\.com/video/av(\d+)`),
		output:   "//player.bilibili.com/player.html?aid={{1}}",
	},
	{
		provider: "bilibili",
		regex:    regexp.MustCompile(`(?i)(?:https?://)?player\.bilibili\.com/player\.html\?aid=(\d+)`),
		output:   "//player.bilibili.com/player.html?aid={{1}}",
	},
	{
		provider: "niconico",
		regex:    regexp.MustCompile(`(?i)(?:https?://)?(?:www\.)?nicovideo\.jp/watch/sm(\d+)`),
		output:   "//embed.nicovideo.jp/watch/sm{{1}}",
	},
	{
		provider: "peertube",
		regex:    regexp.MustCompile(`(?i)(?:https?://)?([^/]+)/videos/(?:watch|embed)/([a-z0-9]{8}-[a-z0-9]{4}-[a-z0-9]{4}-[a-z0-9]{4}-[a-z0-9]{12})(?:[^#?&/]+)?`),
		output:   "//{{1}}/videos/embed/{{2}}",
	},
}

// FindVideoProvider matches a user-supplied URL against the known video
// providers and returns the embeddable URL plus the provider name. ok is
// false for empty input or when no provider matches.
func FindVideoProvider(videoURL string) (embedURL, provider string, ok bool) {
	if videoURL == "" {
		return "", "", false
	}

	for _, m := range providersMatcher {
		matches := m.regex.FindStringSubmatch(videoURL)
		if matches == nil {
			continue
		}

		output := strings.ReplaceAll(m.output, "{{1}}", matches[1])
		if m.provider == "peertube" {
			output = strings.ReplaceAll(output, "{{2}}", matches[2])
		}

		return output, m.provider, true
	}

	return "", "", false
}
