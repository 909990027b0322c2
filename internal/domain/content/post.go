package content

import (
	"strings"
	"time"
)

type Post struct {
	Title     string
	Author    string
	Published time.Time
	Updated   *time.Time

	Tags []string
	Body string

	// explicit slug from a `slug` header; empty means derive from Title
	ExplicitSlug string
}

// Slug returns the URL segment of the post. Without a usable explicit slug it
// is recomputed from the current Title on every call.
func (p Post) Slug() string {
	if s := Slugify(p.ExplicitSlug); s != "" {
		return s
	}
	return Slugify(p.Title)
}

// HasTag reports whether the post carries tag, ignoring case and surrounding
// space.
func (p Post) HasTag(tag string) bool {
	key := TagKey(tag)
	for _, t := range p.Tags {
		if TagKey(t) == key {
			return true
		}
	}
	return false
}

// SplitTags splits a comma separated header value, dropping empty items.
func SplitTags(raw string) []string {
	out := make([]string, 0)
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
