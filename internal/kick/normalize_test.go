package kick

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, raw string) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &m))
	return m
}

func TestFormatStreamMinimalObject(t *testing.T) {
	stream := FormatStream(mustParse(t, `{"slug": "foo"}`))

	assert.Equal(t, Stream{
		Username:    "foo",
		ChannelURL:  "https://kick.com/foo",
		Thumbnail:   "https://ui-avatars.com/api/?name=foo&size=300&background=141517&color=53fc18",
		Title:       "no title",
		ViewerCount: 0,
		Category:    "no category",
		IsLive:      false,
		Followers:   0,
	}, stream)
}

func TestFormatStreamEmptyObject(t *testing.T) {
	stream := FormatStream(map[string]any{})

	assert.Equal(t, "Unknown", stream.Username)
	assert.Equal(t, "https://kick.com/unknown", stream.ChannelURL)
	assert.Equal(t, "no title", stream.Title)
	assert.Equal(t, "no category", stream.Category)
	assert.False(t, stream.IsLive)
}

func TestFormatStreamNestedLivestreamShape(t *testing.T) {
	stream := FormatStream(mustParse(t, `{
		"slug": "Trainwreckstv",
		"user": {"username": "Trainwreckstv", "profile_pic": "https://files.kick.com/tw.jpg"},
		"followers_count": 123456,
		"livestream": {
			"session_title": "SLOTS ALL DAY",
			"viewer_count": 4200,
			"is_live": true,
			"thumbnail": {"url": "https://files.kick.com/thumb.jpg"},
			"categories": [{"name": "Slots & Casino"}]
		}
	}`))

	assert.Equal(t, "Trainwreckstv", stream.Username)
	assert.Equal(t, "https://kick.com/trainwreckstv", stream.ChannelURL)
	assert.Equal(t, "SLOTS ALL DAY", stream.Title)
	assert.Equal(t, 4200, stream.ViewerCount)
	assert.Equal(t, "Slots & Casino", stream.Category)
	assert.Equal(t, "https://files.kick.com/thumb.jpg", stream.Thumbnail)
	assert.Equal(t, 123456, stream.Followers)
	assert.True(t, stream.IsLive)
}

func TestFormatStreamFlatShape(t *testing.T) {
	stream := FormatStream(mustParse(t, `{
		"slug": "xqc",
		"session_title": "VARIETY",
		"viewer_count": 9000,
		"category": "Just Chatting",
		"thumbnail": "https://files.kick.com/xqc.jpg",
		"followersCount": 77
	}`))

	assert.Equal(t, "xqc", stream.Username)
	assert.Equal(t, "VARIETY", stream.Title)
	assert.Equal(t, 9000, stream.ViewerCount)
	assert.Equal(t, "Just Chatting", stream.Category)
	assert.Equal(t, "https://files.kick.com/xqc.jpg", stream.Thumbnail)
	assert.Equal(t, 77, stream.Followers)
}

func TestFormatStreamLivestreamObjectImpliesLive(t *testing.T) {
	stream := FormatStream(mustParse(t, `{"slug": "foo", "livestream": {"session_title": "live now"}}`))
	assert.True(t, stream.IsLive)
}

func TestFormatStreamViewersImplyLive(t *testing.T) {
	stream := FormatStream(mustParse(t, `{"slug": "foo", "viewers": 3}`))
	assert.True(t, stream.IsLive)
	assert.Equal(t, 3, stream.ViewerCount)
}

func TestFormatStreamFallbackThumbnailFromProfilePic(t *testing.T) {
	stream := FormatStream(mustParse(t, `{"slug": "foo", "user": {"profile_pic": "https://files.kick.com/pic.jpg"}}`))
	assert.Equal(t, "https://files.kick.com/pic.jpg", stream.Thumbnail)
}

func TestFormatStreamIgnoresWrongTypes(t *testing.T) {
	// A path whose value has the wrong JSON type falls through to the next.
	stream := FormatStream(mustParse(t, `{
		"slug": "foo",
		"viewer_count": "not a number",
		"session_title": 42,
		"title": "actual title"
	}`))

	assert.Equal(t, 0, stream.ViewerCount)
	assert.Equal(t, "actual title", stream.Title)
}

func TestFormatCategory(t *testing.T) {
	category := FormatCategory(mustParse(t, `{
		"id": 15,
		"name": "Just Chatting",
		"slug": "just-chatting",
		"viewers": 120000,
		"banner": {"url": "https://files.kick.com/banner.jpg"}
	}`))

	assert.Equal(t, Category{
		ID:        15,
		Name:      "Just Chatting",
		Slug:      "just-chatting",
		Viewers:   120000,
		Thumbnail: "https://files.kick.com/banner.jpg",
	}, category)
}

func TestPayloadItemsBareArray(t *testing.T) {
	var payload any
	require.NoError(t, json.Unmarshal([]byte(`[{"slug": "a"}, {"slug": "b"}]`), &payload))

	items := payloadItems(payload)
	require.Len(t, items, 2)
	assert.Equal(t, "a", items[0]["slug"])
}

func TestPayloadItemsEnvelopes(t *testing.T) {
	for _, key := range []string{"data", "streams", "channels"} {
		var payload any
		require.NoError(t, json.Unmarshal([]byte(`{"`+key+`": [{"slug": "a"}]}`), &payload))

		items := payloadItems(payload)
		require.Len(t, items, 1, "envelope key %q", key)
		assert.Equal(t, "a", items[0]["slug"])
	}
}

func TestPayloadItemsSingleObject(t *testing.T) {
	var payload any
	require.NoError(t, json.Unmarshal([]byte(`{"slug": "solo"}`), &payload))

	items := payloadItems(payload)
	require.Len(t, items, 1)
	assert.Equal(t, "solo", items[0]["slug"])
}

func TestPayloadItemsSkipsNonObjects(t *testing.T) {
	var payload any
	require.NoError(t, json.Unmarshal([]byte(`[{"slug": "a"}, "junk", 42, null]`), &payload))

	items := payloadItems(payload)
	require.Len(t, items, 1)
}

func TestDigArrayIndexing(t *testing.T) {
	raw := mustParse(t, `{"livestream": {"categories": [{"name": "first"}, {"name": "second"}]}}`)

	assert.Equal(t, "first", dig(raw, []string{"livestream", "categories", "0", "name"}))
	assert.Equal(t, "second", dig(raw, []string{"livestream", "categories", "1", "name"}))
	assert.Nil(t, dig(raw, []string{"livestream", "categories", "5", "name"}))
	assert.Nil(t, dig(raw, []string{"livestream", "categories", "x", "name"}))
}
