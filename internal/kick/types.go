package kick

// Stream is the normalized representation every upstream shape collapses
// into. Every field is always populated with a safe default, so rendering
// code never needs nil checks.
type Stream struct {
	Username    string `json:"username"`
	ChannelURL  string `json:"channel_url"`
	Thumbnail   string `json:"thumbnail"`
	Title       string `json:"title"`
	ViewerCount int    `json:"viewer_count"`
	Category    string `json:"category"`
	IsLive      bool   `json:"is_live"`
	Followers   int    `json:"followers"`
}

// Category is a normalized Kick category (game / topic).
type Category struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	Viewers   int    `json:"viewers"`
	Thumbnail string `json:"thumbnail,omitempty"`
}

// StreamsResult is what every stream accessor returns. Error is a
// human-readable condition ("token required", upstream unavailable) and Data
// is always renderable, possibly fallback material.
type StreamsResult struct {
	Error string   `json:"error,omitempty"`
	Data  []Stream `json:"data"`
}

// CategoriesResult mirrors StreamsResult for categories.
type CategoriesResult struct {
	Error string     `json:"error,omitempty"`
	Data  []Category `json:"data"`
}

// ConnectionTest reports the outcome of the lightweight reachability probe
// used by the health-check UI.
type ConnectionTest struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	Details    string `json:"details,omitempty"`
	APIWorking bool   `json:"api_working,omitempty"`
}
