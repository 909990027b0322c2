package main

import (
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type CLI struct {
	Config string `short:"c" help:"Site configuration file" default:"site.yaml" type:"path"`
	Debug  bool   `short:"d" help:"Debug logging on a console writer" env:"SLIPSTREAM_DEBUG"`

	Serve   ServeCmd   `cmd:"" default:"1" help:"Serve the Draft webhook and keep the site regenerated"`
	Build   BuildCmd   `cmd:"" help:"Regenerate the site once and exit"`
	Publish PublishCmd `cmd:"" help:"Publish a post from a Markdown file or stdin"`
	APIKey  APIKeyCmd  `cmd:"" name:"apikey" help:"Print the webhook API key, creating one if needed"`
}

// AfterApply sets up logging once flags are parsed.
func (c *CLI) AfterApply() error {
	setupLogging(c.Debug)
	return nil
}

func setupLogging(debug bool) {
	zerolog.TimeFieldFormat = time.RFC3339
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
		return
	}
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("slipstream"),
		kong.Description("Webhook-driven static blog publisher."),
		kong.UsageOnError(),
	)
	if err := ctx.Run(&cli); err != nil {
		log.Error().Err(err).Str("command", ctx.Command()).Msg("command failed")
		os.Exit(1)
	}
}
