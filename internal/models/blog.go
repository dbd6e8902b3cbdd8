package models

import "time"

// BlogPost represents a published or draft article.
type BlogPost struct {
	PostID     string    `json:"post_id"`
	Title      string    `json:"title"`
	Slug       string    `json:"slug"`
	Excerpt    string    `json:"excerpt"`
	Body       string    `json:"body"`
	AuthorID   string    `json:"author_id"`
	Tags       []string  `json:"tags,omitempty"`
	Published  bool      `json:"published"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`
}
