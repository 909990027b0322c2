package main

import (
	"fmt"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"

	"slipstream/internal/app"
	"slipstream/internal/build"
	"slipstream/internal/domain/config"
	"slipstream/internal/index"
	"slipstream/internal/metrics"
	"slipstream/internal/notify"
	"slipstream/internal/publish"
	"slipstream/internal/render"
	"slipstream/internal/store"
)

// site is every long-lived component one command needs.
type site struct {
	cfg      config.Config
	store    *store.Store
	index    *index.Store
	builder  *build.Builder
	pipeline *publish.Pipeline
	registry *prom.Registry
}

func loadConfig(cli *CLI) (config.Config, error) {
	cfg, err := config.Load(cli.Config)
	if err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}
	if cfg.Server.Debug && !cli.Debug {
		setupLogging(true)
	}
	return cfg, nil
}

func openSite(cfg config.Config) (*site, error) {
	tpls, err := render.LoadTemplates(cfg.Build.ThemeDir, cfg.Build.Templates)
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}

	idx, err := index.Open(index.OpenOptions{Path: cfg.Build.IndexPath})
	if err != nil {
		return nil, fmt.Errorf("open index %s: %w", cfg.Build.IndexPath, err)
	}

	reg := prom.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rec := metrics.NewPrometheusRecorder(reg)

	st := store.New(store.Options{
		Dir:           cfg.Build.ContentDir,
		Ext:           cfg.Build.Extension,
		DefaultAuthor: cfg.Site.DefaultAuthor,
		Location:      cfg.Location(),
		Strict:        cfg.Build.Strict,
	})
	routes := &app.RouteBuilder{SiteURL: cfg.Site.SiteURL}

	b := &build.Builder{
		Site:      cfg.Site,
		OutputDir: cfg.Build.OutputDir,
		ThemeDir:  cfg.Build.ThemeDir,
		Source:    st,
		Templates: tpls,
		Markdown:  render.NewMarkdownRenderer(),
		Routes:    routes,
		Index:     idx,
		Feeds:     build.NoopFeeds{},
		Metrics:   rec,
	}

	var notifier notify.Notifier = notify.Nop{}
	if u := cfg.Publish.WebhookURL; u != "" {
		p := notify.NewPolicy(cfg.Publish.WebhookBackoff, 0, 0, cfg.Publish.WebhookRetries)
		notifier = notify.NewWebhook(u, cfg.Publish.WebhookTimeout, p, rec)
		log.Info().Str("url", u).Msg("publish webhook enabled")
	}

	pl := &publish.Pipeline{
		Store:    st,
		Builder:  b,
		Notifier: notifier,
		Routes:   routes,
		Metrics:  rec,
	}

	return &site{
		cfg:      cfg,
		store:    st,
		index:    idx,
		builder:  b,
		pipeline: pl,
		registry: reg,
	}, nil
}

func (s *site) Close() error {
	return s.index.Close()
}
