package site

import (
	"strings"
)

type RouteKind string

const (
	RouteIndex RouteKind = "index"
	RoutePost  RouteKind = "post"
	RouteTag   RouteKind = "tag"
	RouteRSS   RouteKind = "rss"
	RouteAtom  RouteKind = "atom"
)

// Route is one generated artifact: what it is and where it lands, relative to
// the output directory.
type Route struct {
	Kind    RouteKind
	Slug    string
	Key     string
	OutPath string
}

func (r Route) String() string {
	var parts []string
	parts = append(parts, string(r.Kind))
	if r.Slug != "" {
		parts = append(parts, "slug="+r.Slug)
	}
	if r.Key != "" {
		parts = append(parts, "key="+r.Key)
	}
	if r.OutPath != "" {
		parts = append(parts, "out="+r.OutPath)
	}
	return strings.Join(parts, " ")
}
