package app

import (
	"path"
	"strings"

	"slipstream/internal/domain/content"
	"slipstream/internal/domain/site"
)

// RouteBuilder maps posts and tags to output paths and public URLs.
type RouteBuilder struct {
	SiteURL string
}

func (rb *RouteBuilder) IndexRoute() site.Route {
	return site.Route{Kind: site.RouteIndex, OutPath: "index.html"}
}

func (rb *RouteBuilder) PostRoute(p content.Post) site.Route {
	slug := p.Slug()
	return site.Route{
		Kind:    site.RoutePost,
		Slug:    slug,
		OutPath: slug + ".html",
	}
}

// Reserved reports whether post route r would land on a page the site
// writes for itself.
func (rb *RouteBuilder) Reserved(r site.Route) bool {
	return r.OutPath == rb.IndexRoute().OutPath
}

func (rb *RouteBuilder) BuildPostRoutes(posts []content.Post) []site.Route {
	routes := make([]site.Route, 0, len(posts))
	for _, p := range posts {
		routes = append(routes, rb.PostRoute(p))
	}
	return routes
}

// TagRoute places the page of tag name at slug, as assigned by
// content.AssignTagSlugs. An empty slug falls back to content.TagSlug.
func (rb *RouteBuilder) TagRoute(name, slug string) site.Route {
	if slug == "" {
		slug = content.TagSlug(name)
	}
	return site.Route{
		Kind:    site.RouteTag,
		Slug:    slug,
		Key:     name,
		OutPath: path.Join("tag", slug+".html"),
	}
}

// URL is the public address of r, absolute when SiteURL is set.
func (rb *RouteBuilder) URL(r site.Route) string {
	return strings.TrimRight(rb.SiteURL, "/") + "/" + r.OutPath
}
