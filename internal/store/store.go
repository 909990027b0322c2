package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"slipstream/internal/domain/content"
	domainerr "slipstream/internal/domain/errors"
	"slipstream/internal/fsx"
	"slipstream/internal/ingest"
)

var ErrNotFound = errors.New("post not found")

type Options struct {
	Dir           string
	Ext           string
	DefaultAuthor string
	Location      *time.Location
	Now           func() time.Time
	Strict        bool
}

// Store keeps one file per post in a content directory. Nothing is cached:
// every call goes back to disk.
type Store struct {
	opt Options
}

func New(opt Options) *Store {
	if opt.Ext == "" {
		opt.Ext = ".md"
	}
	if opt.Location == nil {
		opt.Location = time.Local
	}
	return &Store{opt: opt}
}

func (s *Store) Dir() string { return s.opt.Dir }

func (s *Store) codec() ingest.Options {
	return ingest.Options{
		DefaultAuthor: s.opt.DefaultAuthor,
		Location:      s.opt.Location,
		Now:           s.opt.Now,
	}
}

// CodecOptions exposes the decode settings so callers can build posts the
// same way the store reads them.
func (s *Store) CodecOptions() ingest.Options { return s.codec() }

// ListAll decodes every post in the directory, newest first.
func (s *Store) ListAll(ctx context.Context) ([]content.Post, []ingest.Warning, error) {
	return ingest.Ingest(ctx, s.opt.Dir, ingest.IngestOptions{
		Ext:    s.opt.Ext,
		Codec:  s.codec(),
		Strict: s.opt.Strict,
	})
}

func (s *Store) PathFor(slug string) string {
	return filepath.Join(s.opt.Dir, slug+s.opt.Ext)
}

// Save writes the canonical form of p to <dir>/<slug><ext>, replacing any
// existing post with that slug.
func (s *Store) Save(p content.Post) (string, error) {
	slug := p.Slug()
	if slug == "" {
		return "", domainerr.Invalid("slug", "title does not produce a usable slug")
	}
	path := s.PathFor(slug)
	if err := fsx.WriteFileAtomic(path, ingest.Encode(p, s.opt.Location), 0o644); err != nil {
		return "", fmt.Errorf("save post %s: %w", slug, err)
	}
	return path, nil
}

func (s *Store) Load(slug string) (content.Post, error) {
	slug = content.Slugify(slug)
	if slug == "" {
		return content.Post{}, ErrNotFound
	}
	raw, err := os.ReadFile(s.PathFor(slug))
	if err != nil {
		if os.IsNotExist(err) {
			return content.Post{}, ErrNotFound
		}
		return content.Post{}, err
	}
	p, err := ingest.Decode(raw, s.codec())
	if err != nil {
		return content.Post{}, fmt.Errorf("%s: %w", s.PathFor(slug), err)
	}
	return p, nil
}
