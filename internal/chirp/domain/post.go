package domain

import "time"

// MaxPostLength is the character limit for a post body.
const MaxPostLength = 280

// Post is a short text post. Hashtags are extracted from the body at insert
// time and stored alongside it so the trending aggregation is a plain
// GROUP BY over the window.
type Post struct {
	ID        string
	AuthorID  string
	Body      string
	Tags      []string
	CreatedAt time.Time
}

// TrendingTag is one row of the trending aggregation.
type TrendingTag struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}
