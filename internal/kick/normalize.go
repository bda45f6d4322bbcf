package kick

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// Defaults used when no upstream shape yields a value.
const (
	defaultUsername = "Unknown"
	defaultTitle    = "no title"
	defaultCategory = "no category"

	channelBaseURL       = "https://kick.com/"
	placeholderThumbnail = "https://ui-avatars.com/api/?name=%s&size=300&background=141517&color=53fc18"
)

// FormatStream collapses any of the known upstream channel/livestream shapes
// into a Stream. Each field is resolved independently by ordered path
// probing; no single shape is assumed authoritative.
func FormatStream(raw map[string]any) Stream {
	username := firstString(raw,
		[]string{"user", "username"},
		[]string{"slug"},
		[]string{"channel", "user", "username"},
	)
	if username == "" {
		username = defaultUsername
	}

	slug := firstString(raw, []string{"slug"})
	if slug == "" {
		slug = username
	}

	title := firstString(raw,
		[]string{"livestream", "session_title"},
		[]string{"session_title"},
		[]string{"title"},
	)
	if title == "" {
		title = defaultTitle
	}

	viewers := firstInt(raw,
		[]string{"livestream", "viewer_count"},
		[]string{"viewer_count"},
		[]string{"viewers"},
	)
	if viewers < 0 {
		viewers = 0
	}

	category := firstString(raw,
		[]string{"livestream", "categories", "0", "name"},
		[]string{"category", "name"},
		[]string{"category"},
	)
	if category == "" {
		category = defaultCategory
	}

	thumbnail := firstString(raw,
		[]string{"livestream", "thumbnail", "url"},
		[]string{"thumbnail", "url"},
		[]string{"thumbnail"},
		[]string{"user", "profile_pic"},
	)
	if thumbnail == "" {
		thumbnail = fmt.Sprintf(placeholderThumbnail, url.QueryEscape(username))
	}

	followers := firstInt(raw,
		[]string{"followers_count"},
		[]string{"followersCount"},
		[]string{"user", "followers_count"},
	)
	if followers < 0 {
		followers = 0
	}

	_, hasLivestream := dig(raw, []string{"livestream"}).(map[string]any)
	isLive := hasLivestream || firstBool(raw, []string{"is_live"}, []string{"livestream", "is_live"}) || viewers > 0

	return Stream{
		Username:    username,
		ChannelURL:  channelBaseURL + url.PathEscape(strings.ToLower(slug)),
		Thumbnail:   thumbnail,
		Title:       title,
		ViewerCount: viewers,
		Category:    category,
		IsLive:      isLive,
		Followers:   followers,
	}
}

// FormatCategory normalizes a raw category object.
func FormatCategory(raw map[string]any) Category {
	return Category{
		ID:   firstInt(raw, []string{"id"}),
		Name: firstString(raw, []string{"name"}),
		Slug: firstString(raw, []string{"slug"}),
		Viewers: firstInt(raw,
			[]string{"viewers"},
			[]string{"viewer_count"},
		),
		Thumbnail: firstString(raw,
			[]string{"banner", "url"},
			[]string{"banner"},
			[]string{"thumbnail"},
		),
	}
}

// dig walks a path of object keys (a numeric segment indexes into an array)
// and returns nil as soon as a segment is missing.
func dig(raw map[string]any, path []string) any {
	var current any = raw
	for _, segment := range path {
		switch node := current.(type) {
		case map[string]any:
			var ok bool
			current, ok = node[segment]
			if !ok {
				return nil
			}
		case []any:
			idx := asInt(segment)
			if idx < 0 || idx >= len(node) {
				return nil
			}
			current = node[idx]
		default:
			return nil
		}
	}
	return current
}

// firstString returns the first path that resolves to a non-empty string.
func firstString(raw map[string]any, paths ...[]string) string {
	for _, path := range paths {
		if s, ok := dig(raw, path).(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// firstInt returns the first path that resolves to a numeric value.
func firstInt(raw map[string]any, paths ...[]string) int {
	for _, path := range paths {
		switch n := dig(raw, path).(type) {
		case float64:
			return int(n)
		case int:
			return n
		case int64:
			return int(n)
		case json.Number:
			i, err := n.Int64()
			if err == nil {
				return int(i)
			}
		}
	}
	return 0
}

// firstBool returns the first path that resolves to true.
func firstBool(raw map[string]any, paths ...[]string) bool {
	for _, path := range paths {
		if b, ok := dig(raw, path).(bool); ok && b {
			return true
		}
	}
	return false
}

func asInt(segment string) int {
	n := 0
	for _, r := range segment {
		if r < '0' || r > '9' {
			return -1
		}
		n = n*10 + int(r-'0')
	}
	return n
}

// payloadItems extracts the list of raw objects from an upstream payload.
// Responses arrive either as a bare JSON array or wrapped under one of a few
// known envelope keys.
func payloadItems(payload any) []map[string]any {
	var list []any
	switch node := payload.(type) {
	case []any:
		list = node
	case map[string]any:
		for _, key := range []string{"data", "streams", "channels"} {
			if inner, ok := node[key].([]any); ok {
				list = inner
				break
			}
		}
		if list == nil {
			// A single object payload normalizes to a one-item list.
			return []map[string]any{node}
		}
	default:
		return nil
	}

	items := make([]map[string]any, 0, len(list))
	for _, entry := range list {
		if m, ok := entry.(map[string]any); ok {
			items = append(items, m)
		}
	}
	return items
}
