package index

import (
	"time"

	"slipstream/internal/domain/content"
)

// PostMeta is what the index keeps per post: everything but the body.
type PostMeta struct {
	Slug      string     `json:"slug"`
	Title     string     `json:"title"`
	Author    string     `json:"author"`
	Published time.Time  `json:"published"`
	Updated   *time.Time `json:"updated,omitempty"`
	Tags      []string   `json:"tags"`
	URL       string     `json:"url"`
}

func MetaOf(p content.Post, url string) PostMeta {
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	return PostMeta{
		Slug:      p.Slug(),
		Title:     p.Title,
		Author:    p.Author,
		Published: p.Published,
		Updated:   p.Updated,
		Tags:      tags,
		URL:       url,
	}
}

type TagCount struct {
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Count int    `json:"count"`
}
