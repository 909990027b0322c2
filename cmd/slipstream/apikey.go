package main

import (
	"fmt"
	"strings"

	"slipstream/internal/domain/config"
)

type APIKeyCmd struct {
	KeyDir string `help:"Directory holding the generated API key file" default:"."`
}

func (c *APIKeyCmd) Run(cli *CLI) error {
	cfg, err := loadConfig(cli)
	if err != nil {
		return err
	}
	key, err := config.ResolveAPIKey(cfg.Server, c.KeyDir)
	if err != nil {
		return err
	}
	fmt.Println(strings.TrimSpace(key))
	return nil
}
