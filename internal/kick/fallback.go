package kick

import (
	"fmt"
	"net/url"
)

// Fallback payloads are deterministic and scoped per endpoint kind so a
// rendering consumer always has something sensible to show when every
// delivery attempt against the upstream has failed. They are intentionally
// distinguishable from real data.

// FallbackFeaturedStreams returns the substitute payload for the featured
// streams endpoint.
func FallbackFeaturedStreams() []Stream {
	return []Stream{
		placeholder("kick", "Kick.com is unreachable right now"),
		placeholder("trainwreckstv", "Featured streams are temporarily unavailable"),
		placeholder("xqc", "Featured streams are temporarily unavailable"),
	}
}

// FallbackFollowedStreams returns the substitute payload for the followed
// streams endpoint.
func FallbackFollowedStreams() []Stream {
	return []Stream{
		placeholder("kick", "Followed channels are temporarily unavailable"),
	}
}

// FallbackCategories returns the substitute payload for the categories
// endpoint.
func FallbackCategories() []Category {
	return []Category{
		{ID: 1, Name: "Just Chatting", Slug: "just-chatting"},
		{ID: 2, Name: "Slots & Casino", Slug: "slots"},
		{ID: 3, Name: "Gaming", Slug: "gaming"},
	}
}

// PlaceholderStream is the graceful-degradation stand-in for a single
// streamer lookup that failed upstream.
func PlaceholderStream(username string) Stream {
	if username == "" {
		username = defaultUsername
	}
	return placeholder(username, defaultTitle)
}

func placeholder(username, title string) Stream {
	return Stream{
		Username:    username,
		ChannelURL:  channelBaseURL + url.PathEscape(username),
		Thumbnail:   fmt.Sprintf(placeholderThumbnail, url.QueryEscape(username)),
		Title:       title,
		ViewerCount: 0,
		Category:    defaultCategory,
		IsLive:      false,
		Followers:   0,
	}
}
