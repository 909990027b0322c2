package serve

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

const (
	watchDebounce = 200 * time.Millisecond

	// how long events on a file the server saved itself are ignored
	ownWriteWindow = 5 * time.Second
)

// selfWrites tracks files the webhook publish path saved. Publish already
// regenerates, so the watcher should not run a second time for them.
type selfWrites struct {
	mu       sync.Mutex
	inflight int
	saved    map[string]time.Time // abs path -> save time
	pending  map[string]struct{}  // abs paths seen by the watcher
}

func (sw *selfWrites) begin() {
	sw.mu.Lock()
	sw.inflight++
	sw.mu.Unlock()
}

// end closes a publish started with begin; path is the saved file, empty
// when the publish failed.
func (sw *selfWrites) end(path string, now time.Time) {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	sw.inflight--
	if path == "" {
		return
	}
	if sw.saved == nil {
		sw.saved = make(map[string]time.Time)
	}
	sw.saved[absPath(path)] = now
}

func (sw *selfWrites) seen(name string) {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	if sw.pending == nil {
		sw.pending = make(map[string]struct{})
	}
	sw.pending[absPath(name)] = struct{}{}
}

// flush decides what a fired debounce timer does. wait means a publish is
// still running and the decision must be retried; run means some change did
// not come from the server itself.
func (sw *selfWrites) flush(now time.Time) (run, wait bool) {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	if sw.inflight > 0 {
		return false, true
	}
	for name := range sw.pending {
		at, own := sw.saved[name]
		if !own || now.Sub(at) > ownWriteWindow {
			run = true
		}
	}
	for name, at := range sw.saved {
		if now.Sub(at) > ownWriteWindow {
			delete(sw.saved, name)
		}
	}
	sw.pending = nil
	return run, false
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}

func (s *Server) startWatch(ctx context.Context) error {
	var err error
	s.watchOnce.Do(func() {
		w, e := fsnotify.NewWatcher()
		if e != nil {
			err = e
			return
		}
		if e := w.Add(s.cfg.Build.ContentDir); e != nil {
			_ = w.Close()
			err = e
			return
		}
		s.watcher = w
		go s.watchLoop(ctx)
	})
	return err
}

// relevant reports whether ev touches a post file. Dotfiles are skipped, which
// also hides the temp files of atomic writes.
func (s *Server) relevant(ev fsnotify.Event) bool {
	if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	base := filepath.Base(ev.Name)
	if strings.HasPrefix(base, ".") {
		return false
	}
	return filepath.Ext(base) == s.cfg.Build.Extension
}

func (s *Server) watchLoop(ctx context.Context) {
	log.Info().Str("dir", s.cfg.Build.ContentDir).Msg("watching for content changes")

	debounce := time.NewTimer(time.Hour)
	debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			debounce.Stop()
			return
		case ev, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if s.relevant(ev) {
				s.self.seen(ev.Name)
				debounce.Reset(watchDebounce)
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			log.Warn().Err(err).Msg("watcher error")
		case <-debounce.C:
			run, wait := s.self.flush(time.Now())
			switch {
			case wait:
				debounce.Reset(watchDebounce)
			case run:
				s.regenerate(ctx, "watch")
			default:
				log.Debug().Msg("skipping regenerate for the server's own writes")
			}
		}
	}
}
