package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"sort"
	"sync"

	"slipstream/internal/domain/content"
	domainerr "slipstream/internal/domain/errors"
)

type Warning struct {
	Path string
	Msg  string
}

type Result struct {
	Index int
	Post  content.Post
	Warns []Warning
	Skip  bool
	Err   error
}

type IngestOptions struct {
	Ext    string
	Codec  Options
	Strict bool
}

// Ingest decodes every post file in sourceDir and returns them newest first.
// Malformed files are skipped with a warning unless opt.Strict is set, in
// which case the first one aborts the listing.
func Ingest(ctx context.Context, sourceDir string, opt IngestOptions) ([]content.Post, []Warning, error) {
	files, err := DiscoverSource(sourceDir, opt.Ext)
	if err != nil {
		return nil, nil, err
	}

	workers := runtime.GOMAXPROCS(0)
	if workers > len(files) {
		workers = len(files)
	}
	jobs := make(chan int)
	results := make(chan Result)

	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results <- decodeFile(idx, files[idx], opt)
			}
		}()
	}

	go func() {
		defer func() {
			close(jobs)
			wg.Wait()
			close(results)
		}()
		for i := range files {
			select {
			case jobs <- i:
			case <-ctx.Done():
				return
			}
		}
	}()

	decoded := make([]*content.Post, len(files))
	var warns []Warning
	var firstErr error
	errIdx := len(files)
	for r := range results {
		if r.Err != nil {
			if r.Index < errIdx {
				firstErr, errIdx = r.Err, r.Index
			}
			continue
		}
		warns = append(warns, r.Warns...)
		if r.Skip {
			continue
		}
		p := r.Post
		decoded[r.Index] = &p
	}
	if firstErr != nil {
		return nil, nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	type sourced struct {
		post content.Post
		path string
	}
	list := make([]sourced, 0, len(decoded))
	for i, p := range decoded {
		if p != nil {
			list = append(list, sourced{post: *p, path: files[i].Path})
		}
	}
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].post.Published.After(list[j].post.Published)
	})

	seen := make(map[string]struct{}, len(list))
	out := make([]content.Post, 0, len(list))
	for _, s := range list {
		slug := s.post.Slug()
		if _, ok := seen[slug]; ok {
			warns = append(warns, Warning{Path: s.path, Msg: "duplicate slug, skipped: " + slug})
			continue
		}
		seen[slug] = struct{}{}
		out = append(out, s.post)
	}

	sort.SliceStable(warns, func(i, j int) bool { return warns[i].Path < warns[j].Path })
	return out, warns, nil
}

func decodeFile(idx int, sf SourceFile, opt IngestOptions) Result {
	raw, err := os.ReadFile(sf.Path)
	if err != nil {
		return Result{Index: idx, Err: err}
	}
	p, err := Decode(raw, opt.Codec)
	if err != nil {
		if !errors.Is(err, domainerr.ErrMalformed) {
			return Result{Index: idx, Err: err}
		}
		if opt.Strict {
			return Result{Index: idx, Err: fmt.Errorf("%s: %w", sf.Path, err)}
		}
		return Result{
			Index: idx,
			Skip:  true,
			Warns: []Warning{{Path: sf.Path, Msg: "skipped malformed post: " + err.Error()}},
		}
	}
	if p.Slug() == "" {
		return Result{
			Index: idx,
			Skip:  true,
			Warns: []Warning{{Path: sf.Path, Msg: "empty slug"}},
		}
	}
	return Result{Index: idx, Post: p}
}
