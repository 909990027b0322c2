package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"

	"slipstream/internal/publish"
)

type PublishCmd struct {
	Title   string `short:"t" required:"" help:"Post title"`
	Author  string `short:"a" help:"Post author (defaults to site.default_author)"`
	Tags    string `help:"Comma separated tags"`
	Slug    string `help:"Explicit slug"`
	Date    string `help:"Publish date (YYYY-MM-DD[ HH:MM[:SS]])"`
	Updated string `help:"Update date"`
	File    string `arg:"" optional:"" default:"-" help:"Markdown body file, '-' for stdin"`
}

func (c *PublishCmd) Run(cli *CLI) error {
	cfg, err := loadConfig(cli)
	if err != nil {
		return err
	}

	body, err := c.readBody()
	if err != nil {
		return err
	}

	s, err := openSite(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	extra := map[string]string{}
	for k, v := range map[string]string{"tags": c.Tags, "slug": c.Slug, "date": c.Date, "updated": c.Updated} {
		if v != "" {
			extra[k] = v
		}
	}

	out, err := s.pipeline.Publish(context.Background(), publish.Request{
		Title:   c.Title,
		Author:  c.Author,
		Content: body,
		Extra:   extra,
	})
	if err != nil {
		return err
	}
	log.Info().Str("slug", out.Slug).Str("path", out.Path).Bool("republished", out.Republished).Msg("published")
	fmt.Println(out.URL)
	return nil
}

func (c *PublishCmd) readBody() (string, error) {
	if c.File == "" || c.File == "-" {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(b), nil
	}
	b, err := os.ReadFile(c.File)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
