package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainerr "slipstream/internal/domain/errors"
)

func writePost(t *testing.T, dir, name, text string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(text), 0o644))
}

func ingestOptions() IngestOptions {
	return IngestOptions{Ext: ".md", Codec: testOptions()}
}

func TestDiscoverSourceFiltersFiles(t *testing.T) {
	dir := t.TempDir()
	writePost(t, dir, "b.md", "x")
	writePost(t, dir, "a.md", "x")
	writePost(t, dir, ".hidden.md", "x")
	writePost(t, dir, "notes.txt", "x")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.md"), 0o755))
	writePost(t, filepath.Join(dir, "nested.md"), "deep.md", "x")

	files, err := DiscoverSource(dir, ".md")
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, filepath.Join(dir, "a.md"), files[0].Path)
	assert.Equal(t, filepath.Join(dir, "b.md"), files[1].Path)
}

func TestIngestOrdersNewestFirst(t *testing.T) {
	dir := t.TempDir()
	writePost(t, dir, "old.md", "Title: Old\nDate: 1982-06-25\n\nold")
	writePost(t, dir, "now.md", "Title: Now\n\nundated, so now")
	writePost(t, dir, "mid.md", "Title: Mid\nDate: 2010-08-14\n\nmid")

	opt := ingestOptions()
	opt.Codec.Now = func() time.Time { return time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC) }

	posts, warns, err := Ingest(context.Background(), dir, opt)
	require.NoError(t, err)
	assert.Empty(t, warns)

	var titles []string
	for _, p := range posts {
		titles = append(titles, p.Title)
	}
	assert.Equal(t, []string{"Now", "Mid", "Old"}, titles)
}

func TestIngestTiesKeepFileNameOrder(t *testing.T) {
	dir := t.TempDir()
	writePost(t, dir, "b.md", "Title: B\nDate: 2010-08-14\n\nb")
	writePost(t, dir, "a.md", "Title: A\nDate: 2010-08-14\n\na")
	writePost(t, dir, "c.md", "Title: C\nDate: 2010-08-14\n\nc")

	posts, _, err := Ingest(context.Background(), dir, ingestOptions())
	require.NoError(t, err)
	require.Len(t, posts, 3)
	assert.Equal(t, "A", posts[0].Title)
	assert.Equal(t, "B", posts[1].Title)
	assert.Equal(t, "C", posts[2].Title)
}

func TestIngestSkipsMalformedByDefault(t *testing.T) {
	dir := t.TempDir()
	writePost(t, dir, "good.md", "Title: Good\n\nbody")
	writePost(t, dir, "bad.md", "no separator at all")

	posts, warns, err := Ingest(context.Background(), dir, ingestOptions())
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "Good", posts[0].Title)
	require.Len(t, warns, 1)
	assert.Equal(t, filepath.Join(dir, "bad.md"), warns[0].Path)
}

func TestIngestStrictAborts(t *testing.T) {
	dir := t.TempDir()
	writePost(t, dir, "good.md", "Title: Good\n\nbody")
	writePost(t, dir, "bad.md", "Title: Bad\n\n   ")

	opt := ingestOptions()
	opt.Strict = true
	_, _, err := Ingest(context.Background(), dir, opt)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domainerr.ErrMalformed))
	assert.Contains(t, err.Error(), "bad.md")
}

func TestIngestDuplicateSlugKeepsNewest(t *testing.T) {
	dir := t.TempDir()
	writePost(t, dir, "a.md", "Title: Same\nDate: 2001-01-01\n\nolder")
	writePost(t, dir, "b.md", "Title: Other\nSlug: same\nDate: 2002-01-01\n\nnewer")

	posts, warns, err := Ingest(context.Background(), dir, ingestOptions())
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "newer", posts[0].Body)
	require.Len(t, warns, 1)
	assert.Equal(t, filepath.Join(dir, "a.md"), warns[0].Path)
}

func TestIngestEmptyDir(t *testing.T) {
	posts, warns, err := Ingest(context.Background(), t.TempDir(), ingestOptions())
	require.NoError(t, err)
	assert.Empty(t, posts)
	assert.Empty(t, warns)
}

func TestIngestMissingDir(t *testing.T) {
	_, _, err := Ingest(context.Background(), filepath.Join(t.TempDir(), "nope"), ingestOptions())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestIngestCanceled(t *testing.T) {
	dir := t.TempDir()
	writePost(t, dir, "a.md", "Title: A\n\nbody")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := Ingest(ctx, dir, ingestOptions())
	assert.ErrorIs(t, err, context.Canceled)
}
