package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/rs/zerolog/log"

	"slipstream/internal/domain/config"
	"slipstream/internal/serve"
)

type ServeCmd struct {
	Addr    string `help:"Override the listen address (host:port)"`
	NoWatch bool   `help:"Do not watch the content dir for changes"`
	KeyDir  string `help:"Directory holding the generated API key file" default:"."`
}

func (c *ServeCmd) Run(cli *CLI) error {
	cfg, err := loadConfig(cli)
	if err != nil {
		return err
	}
	if c.NoWatch {
		cfg.Server.Watch = false
	}
	if c.Addr != "" {
		host, port, err := net.SplitHostPort(c.Addr)
		if err != nil {
			return fmt.Errorf("addr: %w", err)
		}
		if cfg.Server.Port, err = strconv.Atoi(port); err != nil {
			return fmt.Errorf("addr port: %w", err)
		}
		cfg.Server.IP = host
	}

	key, err := config.ResolveAPIKey(cfg.Server, c.KeyDir)
	if err != nil {
		return err
	}

	s, err := openSite(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := serve.New(serve.Options{
		Config:    cfg,
		APIKey:    key,
		Publisher: s.pipeline,
		Builder:   s.builder,
		Index:     s.index,
		Registry:  s.registry,
	})
	defer func() {
		if err := srv.Close(); err != nil {
			log.Warn().Err(err).Msg("close server")
		}
	}()

	return srv.ListenAndServe(ctx)
}
