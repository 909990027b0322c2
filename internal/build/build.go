package build

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"slipstream/internal/app"
	domainbuild "slipstream/internal/domain/build"
	"slipstream/internal/domain/config"
	"slipstream/internal/domain/content"
	"slipstream/internal/fsx"
	"slipstream/internal/index"
	"slipstream/internal/ingest"
	"slipstream/internal/metrics"
	"slipstream/internal/render"
)

// Source yields the current post collection.
type Source interface {
	ListAll(ctx context.Context) ([]content.Post, []ingest.Warning, error)
}

// Builder regenerates the whole site from one snapshot of the content dir.
// Index, Feeds and Metrics are optional.
type Builder struct {
	Site      config.SiteConfig
	OutputDir string
	ThemeDir  string

	Source    Source
	Templates render.Templates
	Markdown  *render.MarkdownRenderer
	Routes    *app.RouteBuilder
	Index     *index.Store
	Feeds     FeedGenerator
	Metrics   metrics.Recorder

	mu sync.Mutex
}

// ErrDuplicateOutput means two artifacts of one run claimed the same path.
var ErrDuplicateOutput = errors.New("output path written twice")

type Result struct {
	Posts     int
	Tags      int
	Artifacts int
	Changed   int
	Pruned    []string
	Digest    string
	Warnings  []ingest.Warning
}

// Regenerate rebuilds every post page, the index page and one page per tag.
// Calls are serialised.
func (b *Builder) Regenerate(ctx context.Context) (res *Result, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	rec := metrics.OrNoop(b.Metrics)
	start := time.Now()
	defer func() {
		rec.ObserveRegenerateDuration(time.Since(start))
		rec.IncRegenerateOutcome(outcomeOf(ctx, res, err))
	}()

	posts, warns, err := b.Source.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	posts, warns = b.dropReserved(posts, warns)
	for _, w := range warns {
		log.Warn().Str("path", w.Path).Msg(w.Msg)
	}
	rec.SetPosts(len(posts))

	if err := os.MkdirAll(b.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir output: %w", err)
	}

	fp := domainbuild.NewFingerprint()
	write := func(rel string, data []byte) error {
		if _, dup := fp.Artifacts[rel]; dup {
			return fmt.Errorf("%s: %w", rel, ErrDuplicateOutput)
		}
		if err := fsx.WriteFile(b.OutputDir, rel, data); err != nil {
			return fmt.Errorf("write %s: %w", rel, err)
		}
		fp.Add(rel, data)
		return nil
	}

	tags, slugs := groupTags(posts)
	views, err := b.buildPosts(ctx, posts, slugs, write)
	if err != nil {
		return nil, fmt.Errorf("build posts: %w", err)
	}
	if err := b.buildIndex(ctx, views, tags, write); err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}
	if err := b.buildTags(ctx, views, tags, write); err != nil {
		return nil, fmt.Errorf("build tags: %w", err)
	}
	if err := b.buildFeeds(ctx, posts, write); err != nil {
		return nil, fmt.Errorf("build feeds: %w", err)
	}
	if err := b.copyStaticAssets(write); err != nil {
		return nil, fmt.Errorf("copy static assets: %w", err)
	}

	res = &Result{
		Posts:     len(posts),
		Tags:      len(tags),
		Artifacts: len(fp.Artifacts),
		Changed:   len(fp.Artifacts),
		Digest:    fp.Digest(),
		Warnings:  warns,
	}
	if b.Index != nil {
		if err := b.syncIndex(posts, fp, res); err != nil {
			return nil, err
		}
	}
	rec.AddArtifactsWritten(res.Artifacts)
	rec.AddArtifactsPruned(len(res.Pruned))

	log.Info().
		Int("posts", res.Posts).
		Int("tags", res.Tags).
		Int("artifacts", res.Artifacts).
		Int("changed", res.Changed).
		Int("pruned", len(res.Pruned)).
		Dur("took", time.Since(start)).
		Msg("site regenerated")
	return res, nil
}

// dropReserved leaves out posts whose page would overwrite one the site
// writes for itself, such as a post slugged "index".
func (b *Builder) dropReserved(posts []content.Post, warns []ingest.Warning) ([]content.Post, []ingest.Warning) {
	rb := b.routes()
	kept := make([]content.Post, 0, len(posts))
	for _, p := range posts {
		if route := rb.PostRoute(p); rb.Reserved(route) {
			warns = append(warns, ingest.Warning{
				Path: route.OutPath,
				Msg:  fmt.Sprintf("post %q skipped: slug %q is reserved", p.Title, route.Slug),
			})
			continue
		}
		kept = append(kept, p)
	}
	return kept, warns
}

func (b *Builder) routes() *app.RouteBuilder {
	if b.Routes == nil {
		return &app.RouteBuilder{SiteURL: b.Site.SiteURL}
	}
	return b.Routes
}

func (b *Builder) buildPosts(
	ctx context.Context,
	posts []content.Post,
	slugs content.TagSlugs,
	write func(string, []byte) error,
) ([]render.PostView, error) {
	md := b.Markdown
	if md == nil {
		md = render.NewMarkdownRenderer()
	}
	rb := b.routes()

	views := make([]render.PostView, 0, len(posts))
	for _, p := range posts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		route := rb.PostRoute(p)

		res, err := md.Render([]byte(p.Body))
		if err != nil {
			return nil, fmt.Errorf("markdown render(%s): %w", route.Slug, err)
		}
		view := render.PostView{
			Title:     p.Title,
			Slug:      route.Slug,
			Author:    p.Author,
			URL:       rb.URL(route),
			Published: p.Published,
			Updated:   p.Updated,
			Tags:      b.tagLinks(p.Tags, slugs),
			HTML:      template.HTML(res.HTML),
			TOC:       res.Headings,
		}

		page := render.PostPage{Site: b.Site, Post: view, Title: p.Title}
		out, err := b.Templates.Post.Render(ctx, page)
		if err != nil {
			return nil, fmt.Errorf("render post(%s): %w", route.Slug, err)
		}
		if err := write(route.OutPath, out); err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

func (b *Builder) buildIndex(
	ctx context.Context,
	views []render.PostView,
	tags []tagGroup,
	write func(string, []byte) error,
) error {
	stats := make([]render.TagStat, 0, len(tags))
	for _, tg := range tags {
		stats = append(stats, render.TagStat{TagLink: b.tagLink(tg.name, tg.slug), Count: len(tg.posts)})
	}
	page := render.IndexPage{
		Site:  b.Site,
		Posts: views,
		Tags:  stats,
	}
	out, err := b.Templates.Index.Render(ctx, page)
	if err != nil {
		return err
	}
	return write(b.routes().IndexRoute().OutPath, out)
}

func (b *Builder) buildTags(
	ctx context.Context,
	views []render.PostView,
	tags []tagGroup,
	write func(string, []byte) error,
) error {
	rb := b.routes()
	for _, tg := range tags {
		if err := ctx.Err(); err != nil {
			return err
		}
		route := rb.TagRoute(tg.name, tg.slug)

		items := make([]render.PostView, 0, len(tg.posts))
		for _, i := range tg.posts {
			items = append(items, views[i])
		}
		page := render.TagPage{
			Site:  b.Site,
			Tag:   b.tagLink(tg.name, tg.slug),
			Posts: items,
			Title: tg.name,
		}
		out, err := b.Templates.Tag.Render(ctx, page)
		if err != nil {
			return fmt.Errorf("render tag(%s): %w", tg.name, err)
		}
		if err := write(route.OutPath, out); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) buildFeeds(ctx context.Context, posts []content.Post, write func(string, []byte) error) error {
	if b.Feeds == nil {
		return nil
	}
	arts, err := b.Feeds.Generate(ctx, posts)
	if err != nil {
		return err
	}
	for _, a := range arts {
		if a.Route.OutPath == "" {
			return fmt.Errorf("feed %s has no output path", a.Route.Kind)
		}
		if err := write(a.Route.OutPath, a.Data); err != nil {
			return err
		}
	}
	return nil
}

// syncIndex rebuilds the post index, swaps in the new artifact manifest and
// deletes files the previous run wrote but this one did not.
func (b *Builder) syncIndex(posts []content.Post, fp *domainbuild.Fingerprint, res *Result) error {
	rb := b.routes()
	metas := make([]index.PostMeta, 0, len(posts))
	for _, p := range posts {
		metas = append(metas, index.MetaOf(p, rb.URL(rb.PostRoute(p))))
	}
	if err := b.Index.Rebuild(metas); err != nil {
		return fmt.Errorf("rebuild index: %w", err)
	}

	stale, changed, err := b.Index.SwapArtifacts(fp.Artifacts)
	if err != nil {
		return fmt.Errorf("swap manifest: %w", err)
	}
	res.Changed = changed

	for _, rel := range stale {
		if !filepath.IsLocal(rel) {
			log.Warn().Str("path", rel).Msg("refusing to prune path outside output dir")
			continue
		}
		err := os.Remove(filepath.Join(b.OutputDir, filepath.FromSlash(rel)))
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("prune %s: %w", rel, err)
		}
		log.Debug().Str("path", rel).Msg("pruned stale artifact")
		res.Pruned = append(res.Pruned, rel)
	}
	return nil
}

func (b *Builder) tagLink(name, slug string) render.TagLink {
	route := b.routes().TagRoute(name, slug)
	return render.TagLink{Name: name, Slug: route.Slug, URL: b.routes().URL(route)}
}

func (b *Builder) tagLinks(tags []string, slugs content.TagSlugs) []render.TagLink {
	out := make([]render.TagLink, 0, len(tags))
	for _, t := range tags {
		out = append(out, b.tagLink(t, slugs.Slug(t)))
	}
	return out
}

type tagGroup struct {
	name  string
	slug  string
	posts []int // indexes into the snapshot
}

// groupTags collects distinct tags, compared by content.TagKey. The first
// spelling seen names the group; groups come back ordered by slug.
func groupTags(posts []content.Post) ([]tagGroup, content.TagSlugs) {
	var all []string
	for _, p := range posts {
		all = append(all, p.Tags...)
	}
	slugs := content.AssignTagSlugs(all)

	byKey := make(map[string]*tagGroup)
	for i, p := range posts {
		seen := make(map[string]struct{}, len(p.Tags))
		for _, t := range p.Tags {
			key := content.TagKey(t)
			if key == "" {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}

			g, ok := byKey[key]
			if !ok {
				g = &tagGroup{name: strings.TrimSpace(t), slug: slugs[key]}
				byKey[key] = g
			}
			g.posts = append(g.posts, i)
		}
	}

	out := make([]tagGroup, 0, len(byKey))
	for _, g := range byKey {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].slug < out[j].slug })
	return out, slugs
}

func outcomeOf(ctx context.Context, res *Result, err error) metrics.Outcome {
	switch {
	case err != nil && (errors.Is(err, context.Canceled) || ctx.Err() != nil):
		return metrics.OutcomeCanceled
	case err != nil:
		return metrics.OutcomeFailed
	case res != nil && len(res.Warnings) > 0:
		return metrics.OutcomeWarning
	default:
		return metrics.OutcomeSuccess
	}
}
