package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, args ...string) (*CLI, *kong.Context) {
	t.Helper()
	var cli CLI
	parser, err := kong.New(&cli, kong.Name("slipstream"), kong.Exit(func(int) { t.Fatal("unexpected exit") }))
	require.NoError(t, err)
	ctx, err := parser.Parse(args)
	require.NoError(t, err)
	return &cli, ctx
}

func TestParseCommands(t *testing.T) {
	cli, ctx := parse(t, "build", "--strict")
	assert.Equal(t, "build", ctx.Command())
	assert.True(t, cli.Build.Strict)

	cli, ctx = parse(t, "publish", "-t", "Hello", "--tags", "a,b", "post.md")
	assert.True(t, strings.HasPrefix(ctx.Command(), "publish"))
	assert.Equal(t, "Hello", cli.Publish.Title)
	assert.Equal(t, "post.md", cli.Publish.File)

	_, ctx = parse(t, "apikey")
	assert.Equal(t, "apikey", ctx.Command())
}

func TestPublishReadBodyFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "post.md")
	require.NoError(t, os.WriteFile(path, []byte("# Body\n"), 0o644))

	body, err := (&PublishCmd{File: path}).readBody()
	require.NoError(t, err)
	assert.Equal(t, "# Body\n", body)
}

func TestBuildCommandEndToEnd(t *testing.T) {
	dir := t.TempDir()
	content := filepath.Join(dir, "content")
	output := filepath.Join(dir, "output")
	require.NoError(t, os.MkdirAll(content, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(content, "hello.md"),
		[]byte("Title: Hello\nDate: 2010-08-14 09:00\nTags: go\n\nHi there.\n"), 0o644))

	cfgPath := filepath.Join(dir, "site.yaml")
	cfg := strings.Join([]string{
		"site:",
		"  title: Test",
		"  time_zone: UTC",
		"build:",
		"  content_dir: " + content,
		"  output_dir: " + output,
		"  index_path: " + filepath.Join(dir, "index.db"),
	}, "\n")
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))

	cli, ctx := parse(t, "-c", cfgPath, "build")
	require.NoError(t, ctx.Run(cli))

	assert.FileExists(t, filepath.Join(output, "index.html"))
	assert.FileExists(t, filepath.Join(output, "hello.html"))
	assert.FileExists(t, filepath.Join(output, "tag", "go.html"))
}
