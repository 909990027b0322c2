package serve

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-co-op/gocron/v2"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"slipstream/internal/build"
	"slipstream/internal/domain/config"
	"slipstream/internal/index"
	"slipstream/internal/metrics"
	"slipstream/internal/publish"
)

const shutdownTimeout = 5 * time.Second

type Publisher interface {
	Publish(ctx context.Context, req publish.Request) (*publish.Outcome, error)
}

type Regenerator interface {
	Regenerate(ctx context.Context) (*build.Result, error)
}

type Options struct {
	Config    config.Config
	APIKey    string
	Publisher Publisher
	Builder   Regenerator
	Index     *index.Store   // optional; /api answers 503 without it
	Registry  *prom.Registry // optional; no /metrics without it
}

// Server is the webhook endpoint plus the background triggers that keep the
// generated site in step with the content dir.
type Server struct {
	cfg       config.Config
	apiKey    string
	publisher Publisher
	builder   Regenerator
	idx       *index.Store
	reg       *prom.Registry
	router    chi.Router
	limiter   *rate.Limiter

	sseMu    sync.Mutex
	sseConns map[chan string]struct{}

	watcher   *fsnotify.Watcher
	watchOnce sync.Once
	self      selfWrites
	scheduler gocron.Scheduler
}

func New(opt Options) *Server {
	s := &Server{
		cfg:       opt.Config,
		apiKey:    strings.TrimSpace(opt.APIKey),
		publisher: opt.Publisher,
		builder:   opt.Builder,
		idx:       opt.Index,
		reg:       opt.Registry,
		sseConns:  make(map[chan string]struct{}),
	}
	if srv := opt.Config.Server; srv.WebhookRate > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(srv.WebhookRate), srv.WebhookBurst)
	}
	s.router = s.routes()
	return s
}

func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(accessLog)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	if s.reg != nil {
		r.Method(http.MethodGet, "/metrics", metrics.HTTPHandler(s.reg))
	}
	r.Get("/events", s.handleSSE)

	r.Route("/api", func(r chi.Router) {
		r.Get("/posts", s.handleListPosts)
		r.Get("/posts/{slug}", s.handleGetPost)
		r.Get("/tags", s.handleListTags)
		r.Get("/tags/{tag}", s.handleTagPosts)
	})

	r.With(s.limitWebhook).Post("/{apiKey}", s.handleDraftWebhook)
	return r
}

// ListenAndServe regenerates once, starts the watcher and the periodic job
// when configured, then serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.regenerate(ctx, "startup")

	if s.cfg.Server.Watch {
		if err := s.startWatch(ctx); err != nil {
			return err
		}
	}
	if every := s.cfg.Build.RebuildEvery; every > 0 {
		if err := s.startSchedule(ctx, every); err != nil {
			return err
		}
	}

	srv := &http.Server{
		Addr:              s.cfg.Addr(),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("server shutdown")
		}
	}()

	log.Info().Str("addr", srv.Addr).Msg("listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Close() error {
	var errs []error
	if s.watcher != nil {
		errs = append(errs, s.watcher.Close())
	}
	if s.scheduler != nil {
		errs = append(errs, s.scheduler.Shutdown())
	}
	return errors.Join(errs...)
}

// regenerate runs a background rebuild and tells live-reload clients.
func (s *Server) regenerate(ctx context.Context, trigger string) {
	res, err := s.builder.Regenerate(ctx)
	if err != nil {
		log.Error().Err(err).Str("trigger", trigger).Msg("regenerate failed")
		return
	}
	log.Debug().Str("trigger", trigger).Int("posts", res.Posts).Msg("regenerated")
	s.broadcastSSE("reload")
}

func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		// never log the webhook path, it carries the api key
		path := r.URL.Path
		if r.Method == http.MethodPost {
			path = "/{apiKey}"
		}
		log.Info().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("took", time.Since(start)).
			Msg("http")
	})
}
