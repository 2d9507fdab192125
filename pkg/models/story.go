package models

// Story is one harvested post the extraction pipeline turns into a PatternRecord.
type Story struct {
	ID          string    `json:"id"`
	Subreddit   string    `json:"subreddit"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	Score       int       `json:"score"`
	CreatedUTC  float64   `json:"created_utc,omitempty"`
	NumComments int       `json:"num_comments,omitempty"`
	URL         string    `json:"url,omitempty"`
	TopComments []Comment `json:"top_comments"`
}

// Comment is a top-level reply attached to a Story.
type Comment struct {
	Body  string `json:"body"`
	Score int    `json:"score"`
}

// StoryCollection is the raw stories document produced by the harvesting step.
type StoryCollection struct {
	ScrapedAt  string  `json:"scraped_at"`
	TotalPosts int     `json:"total_posts"`
	Posts      []Story `json:"posts"`
}
