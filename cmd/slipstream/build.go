package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
)

type BuildCmd struct {
	Strict bool `help:"Fail on the first malformed post instead of skipping it"`
}

func (c *BuildCmd) Run(cli *CLI) error {
	cfg, err := loadConfig(cli)
	if err != nil {
		return err
	}
	if c.Strict {
		cfg.Build.Strict = true
	}

	s, err := openSite(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := s.builder.Regenerate(ctx)
	if err != nil {
		return err
	}
	log.Info().
		Str("output", cfg.Build.OutputDir).
		Int("posts", res.Posts).
		Int("warnings", len(res.Warnings)).
		Str("digest", res.Digest).
		Msg("build complete")
	return nil
}
