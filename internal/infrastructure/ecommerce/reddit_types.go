package ecommerce

import "encoding/json"

// redditTokenResponse is the application-only OAuth token response
type redditTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// redditListingResponse is the search.json envelope. Children stay raw so
// one malformed post never aborts the page.
type redditListingResponse struct {
	Kind string `json:"kind"`
	Data struct {
		After    string            `json:"after"`
		Children []json.RawMessage `json:"children"`
	} `json:"data"`
}

// redditThing is the kind/data wrapper around every Reddit object
type redditThing struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// redditPost is one t3 submission
type redditPost struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Selftext    string         `json:"selftext"`
	Author      string         `json:"author"`
	Subreddit   string         `json:"subreddit"`
	Permalink   string         `json:"permalink"`
	URL         string         `json:"url"`
	Thumbnail   string         `json:"thumbnail"`
	Score       int            `json:"score"`
	NumComments int            `json:"num_comments"`
	UpvoteRatio float64        `json:"upvote_ratio"`
	CreatedUTC  float64        `json:"created_utc"`
	Preview     *redditPreview `json:"preview"`
}

// redditPreview holds the post's preview images
type redditPreview struct {
	Images []struct {
		Source struct {
			URL string `json:"url"`
		} `json:"source"`
	} `json:"images"`
}
