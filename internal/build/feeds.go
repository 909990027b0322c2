package build

import (
	"context"

	"slipstream/internal/domain/content"
	"slipstream/internal/domain/site"
)

// Artifact is one generated file handed back to the builder for writing.
type Artifact struct {
	Route site.Route
	Data  []byte
}

// FeedGenerator produces syndication feeds (RSS, Atom) from the same snapshot
// the pages are built from. The builder writes whatever it returns.
type FeedGenerator interface {
	Generate(ctx context.Context, posts []content.Post) ([]Artifact, error)
}

// NoopFeeds generates nothing.
type NoopFeeds struct{}

func (NoopFeeds) Generate(context.Context, []content.Post) ([]Artifact, error) { return nil, nil }
