package publish

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"slipstream/internal/app"
	"slipstream/internal/build"
	"slipstream/internal/domain/content"
	domainerr "slipstream/internal/domain/errors"
	"slipstream/internal/ingest"
	"slipstream/internal/metrics"
	"slipstream/internal/notify"
	"slipstream/internal/store"
)

type PostStore interface {
	Save(p content.Post) (string, error)
	Load(slug string) (content.Post, error)
	CodecOptions() ingest.Options
}

type Regenerator interface {
	Regenerate(ctx context.Context) (*build.Result, error)
}

type Request struct {
	Title   string
	Author  string
	Content string
	// Extra carries optional headers: slug, tags, date, updated.
	Extra map[string]string
}

type Outcome struct {
	RequestID   string
	Slug        string
	Path        string
	URL         string
	Post        content.Post
	Republished bool
	Build       *build.Result
}

// Pipeline turns a publish request into a saved post and a regenerated site.
type Pipeline struct {
	Store    PostStore
	Builder  Regenerator
	Notifier notify.Notifier
	Routes   *app.RouteBuilder
	Metrics  metrics.Recorder
}

// Publish validates req, writes the post and regenerates the site. Nothing is
// written when validation fails. A failed webhook delivery is logged, not
// returned.
func (pl *Pipeline) Publish(ctx context.Context, req Request) (out *Outcome, err error) {
	rec := metrics.OrNoop(pl.Metrics)
	reqID := uuid.NewString()
	logger := log.With().Str("request_id", reqID).Logger()

	defer func() {
		switch {
		case err == nil:
			rec.IncPublishOutcome(metrics.OutcomeSuccess)
		case errors.Is(err, domainerr.ErrInvalid):
			rec.IncPublishOutcome(metrics.OutcomeInvalid)
		default:
			rec.IncPublishOutcome(metrics.OutcomeFailed)
		}
	}()

	opts := pl.Store.CodecOptions()
	if err := validate(req, opts); err != nil {
		logger.Info().Err(err).Msg("publish rejected")
		return nil, err
	}

	p, err := ingest.FromFields(req.Title, req.Author, req.Content, req.Extra, opts)
	if err != nil {
		return nil, asValidation(err)
	}
	slug := p.Slug()
	if slug == "" {
		return nil, domainerr.Invalid("title", "does not produce a usable slug")
	}
	if pl.routes().Reserved(pl.routes().PostRoute(p)) {
		field := "title"
		if hasKey(req.Extra, "slug") {
			field = "slug"
		}
		return nil, domainerr.Invalid(field, fmt.Sprintf("slug %q is reserved", slug))
	}

	republished := pl.keepOriginalDate(&p, req.Extra, opts)

	path, err := pl.Store.Save(p)
	if err != nil {
		return nil, err
	}
	logger.Info().Str("slug", slug).Str("path", path).Bool("republished", republished).Msg("post saved")

	res, err := pl.Builder.Regenerate(ctx)
	if err != nil {
		return nil, fmt.Errorf("regenerate after publishing %s: %w", slug, err)
	}

	out = &Outcome{
		RequestID:   reqID,
		Slug:        slug,
		Path:        path,
		URL:         pl.routes().URL(pl.routes().PostRoute(p)),
		Post:        p,
		Republished: republished,
		Build:       res,
	}

	if pl.Notifier != nil {
		ev := notify.Event{
			Event:     "published",
			RequestID: reqID,
			Slug:      slug,
			Title:     p.Title,
			URL:       out.URL,
			Published: p.Published,
			Posts:     res.Posts,
		}
		if err := pl.Notifier.Notify(ctx, ev); err != nil {
			logger.Error().Err(err).Str("slug", slug).Msg("publish webhook delivery failed")
		}
	}
	return out, nil
}

func (pl *Pipeline) routes() *app.RouteBuilder {
	if pl.Routes == nil {
		return &app.RouteBuilder{}
	}
	return pl.Routes
}

// keepOriginalDate makes a republish of an existing slug an update: the
// stored publish date stays and Updated becomes now. Explicit date or updated
// headers in the request win.
func (pl *Pipeline) keepOriginalDate(p *content.Post, extra map[string]string, opts ingest.Options) bool {
	prev, err := pl.Store.Load(p.Slug())
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Warn().Err(err).Str("slug", p.Slug()).Msg("existing post unreadable, overwriting")
		}
		return false
	}
	if !hasKey(extra, "date") {
		p.Published = prev.Published
	}
	if !hasKey(extra, "updated") {
		now := time.Now()
		if opts.Now != nil {
			now = opts.Now()
		}
		p.Updated = &now
	}
	return true
}

func validate(req Request, opts ingest.Options) error {
	var ve domainerr.ValidationError
	if strings.TrimSpace(req.Title) == "" {
		ve.Add("title", "must not be blank")
	}
	if strings.TrimSpace(req.Content) == "" {
		ve.Add("content", "must not be blank")
	}
	for _, key := range ingest.FoldCollisions(req.Extra) {
		ve.Add(key, "given more than once")
	}
	for _, key := range []string{"date", "updated"} {
		v, ok := lookup(req.Extra, key)
		if !ok {
			continue
		}
		if _, err := ingest.ParseTime(strings.TrimSpace(v), opts.Location); err != nil {
			ve.Add(key, "unrecognised date "+fmt.Sprintf("%q", v))
		}
	}
	if ve.HasAny() {
		return ve
	}
	return nil
}

// asValidation reports a post that could not be built from request fields as
// bad input rather than a malformed file.
func asValidation(err error) error {
	var fe domainerr.FormatError
	if !errors.As(err, &fe) {
		return err
	}
	field := "content"
	switch fe.Reason {
	case domainerr.ReasonMissingTitle:
		field = "title"
	case domainerr.ReasonBadDate:
		field = "date"
	}
	return domainerr.Invalid(field, fe.Error())
}

func lookup(m map[string]string, key string) (string, bool) {
	v, ok := ingest.FoldKeys(m)[key]
	return v, ok
}

func hasKey(m map[string]string, key string) bool {
	_, ok := lookup(m, key)
	return ok
}
