package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
	domainerr "slipstream/internal/domain/errors"
)

const EnvPrefix = "SLIPSTREAM_"

type Config struct {
	Site    SiteConfig    `yaml:"site"`
	Build   BuildConfig   `yaml:"build"`
	Server  ServerConfig  `yaml:"server"`
	Publish PublishConfig `yaml:"publish"`
}

type SiteConfig struct {
	Title         string `yaml:"title"`
	SiteURL       string `yaml:"site_url"`
	DefaultAuthor string `yaml:"default_author"`
	TimeZone      string `yaml:"time_zone"`
	Description   string `yaml:"description"`
}

type BuildConfig struct {
	ContentDir   string         `yaml:"content_dir"`
	OutputDir    string         `yaml:"output_dir"`
	Extension    string         `yaml:"extension"`
	ThemeDir     string         `yaml:"theme_dir"`
	Templates    TemplateConfig `yaml:"templates"`
	IndexPath    string         `yaml:"index_path"`
	Strict       bool           `yaml:"strict"`
	RebuildEvery time.Duration  `yaml:"rebuild_every"`
}

type TemplateConfig struct {
	Post  string `yaml:"post"`
	Index string `yaml:"index"`
	Tag   string `yaml:"tag"`
}

type ServerConfig struct {
	IP         string `yaml:"ip"`
	Port       int    `yaml:"port"`
	Debug      bool   `yaml:"debug"`
	Watch      bool   `yaml:"watch"`
	APIKey     string `yaml:"-"`
	APIKeyFile string `yaml:"api_key_file"`

	// webhook requests per second; 0 disables the limit
	WebhookRate  float64 `yaml:"webhook_rate"`
	WebhookBurst int     `yaml:"webhook_burst"`
}

type PublishConfig struct {
	WebhookURL     string        `yaml:"webhook_url"`
	WebhookRetries int           `yaml:"webhook_retries"`
	WebhookTimeout time.Duration `yaml:"webhook_timeout"`
	WebhookBackoff string        `yaml:"webhook_backoff"`
}

func Default() Config {
	return Config{
		Site: SiteConfig{
			Title:         "Slipstream",
			DefaultAuthor: "Anonymous",
			TimeZone:      "Local",
		},
		Build: BuildConfig{
			ContentDir: "content",
			OutputDir:  "output",
			Extension:  ".md",
			Templates: TemplateConfig{
				Post:  "post.tmpl",
				Index: "index.tmpl",
				Tag:   "tag.tmpl",
			},
			IndexPath: ".slipstream/index.db",
		},
		Server: ServerConfig{
			IP:           "0.0.0.0",
			Port:         5000,
			Watch:        true,
			WebhookRate:  1,
			WebhookBurst: 10,
		},
		Publish: PublishConfig{
			WebhookRetries: 2,
			WebhookTimeout: 10 * time.Second,
			WebhookBackoff: "linear",
		},
	}
}

func (c Config) Validate() error {
	var ve domainerr.ValidationError

	if strings.TrimSpace(c.Site.Title) == "" {
		ve.Add("site.title", "must not be empty")
	}
	if u := strings.TrimSpace(c.Site.SiteURL); u != "" && !isValidAbsURL(u) {
		ve.Add("site.site_url", "must be a valid absolute URL")
	}
	if strings.TrimSpace(c.Site.DefaultAuthor) == "" {
		ve.Add("site.default_author", "must not be empty")
	}
	if _, err := loadLocation(c.Site.TimeZone); err != nil {
		ve.Add("site.time_zone", "unknown time zone")
	}

	if strings.TrimSpace(c.Build.ContentDir) == "" {
		ve.Add("build.content_dir", "must not be empty")
	}
	if strings.TrimSpace(c.Build.OutputDir) == "" {
		ve.Add("build.output_dir", "must not be empty")
	}
	if ext := c.Build.Extension; !strings.HasPrefix(ext, ".") || len(ext) < 2 {
		ve.Add("build.extension", "must start with '.'")
	}
	if strings.TrimSpace(c.Build.Templates.Post) == "" {
		ve.Add("build.templates.post", "must not be empty")
	}
	if strings.TrimSpace(c.Build.Templates.Index) == "" {
		ve.Add("build.templates.index", "must not be empty")
	}
	if strings.TrimSpace(c.Build.Templates.Tag) == "" {
		ve.Add("build.templates.tag", "must not be empty")
	}
	if c.Build.RebuildEvery < 0 {
		ve.Add("build.rebuild_every", "must not be negative")
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		ve.Add("server.port", "must be between 1 and 65535")
	}
	if ip := strings.TrimSpace(c.Server.IP); ip != "" && net.ParseIP(ip) == nil {
		ve.Add("server.ip", "must be an IP address")
	}
	if c.Server.WebhookRate < 0 {
		ve.Add("server.webhook_rate", "must not be negative")
	}
	if c.Server.WebhookRate > 0 && c.Server.WebhookBurst < 1 {
		ve.Add("server.webhook_burst", "must be at least 1")
	}

	if u := strings.TrimSpace(c.Publish.WebhookURL); u != "" && !isValidAbsURL(u) {
		ve.Add("publish.webhook_url", "must be a valid absolute URL")
	}
	if c.Publish.WebhookRetries < 0 {
		ve.Add("publish.webhook_retries", "must not be negative")
	}
	switch c.Publish.WebhookBackoff {
	case "", "fixed", "linear", "exponential":
	default:
		ve.Add("publish.webhook_backoff", "must be 'fixed', 'linear' or 'exponential'")
	}

	if ve.HasAny() {
		return ve
	}
	return nil
}

// Location resolves site.time_zone, falling back to time.Local.
func (c Config) Location() *time.Location {
	loc, err := loadLocation(c.Site.TimeZone)
	if err != nil {
		return time.Local
	}
	return loc
}

func (c Config) Addr() string {
	return net.JoinHostPort(c.Server.IP, strconv.Itoa(c.Server.Port))
}

func loadLocation(name string) (*time.Location, error) {
	switch strings.TrimSpace(name) {
	case "", "Local":
		return time.Local, nil
	}
	return time.LoadLocation(name)
}

func isValidAbsURL(s string) bool {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != ""
}

// Load reads the YAML file at path over the defaults, then applies the
// environment. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			// fields present in the file override the defaults
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse %s: %w", path, err)
			}
		case os.IsNotExist(err):
		default:
			return cfg, err
		}
	}

	// .env never overrides variables already present in the process
	_ = godotenv.Load()

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from SLIPSTREAM_* variables.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}
	str("CONTENT_DIR", &c.Build.ContentDir)
	str("OUTPUT_DIR", &c.Build.OutputDir)
	str("THEME_DIR", &c.Build.ThemeDir)
	str("INDEX_PATH", &c.Build.IndexPath)
	str("POST_TEMPLATE", &c.Build.Templates.Post)
	str("INDEX_TEMPLATE", &c.Build.Templates.Index)
	str("TAG_TEMPLATE", &c.Build.Templates.Tag)
	str("DEFAULT_AUTHOR", &c.Site.DefaultAuthor)
	str("SITE_URL", &c.Site.SiteURL)
	str("BLOG_NAME", &c.Site.Title)
	str("TIME_ZONE", &c.Site.TimeZone)
	str("PUBLISH_WEBHOOK", &c.Publish.WebhookURL)
	str("IP_ADDR", &c.Server.IP)
	str("API_KEY", &c.Server.APIKey)
	str("API_KEYFILE", &c.Server.APIKeyFile)

	var ve domainerr.ValidationError
	if v, ok := lookup(EnvPrefix + "PORT"); ok {
		port, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			ve.Add(EnvPrefix+"PORT", "must be an integer")
		} else {
			c.Server.Port = port
		}
	}
	if v, ok := lookup(EnvPrefix + "DEBUG"); ok {
		c.Server.Debug = strings.EqualFold(strings.TrimSpace(v), "true")
	}
	if v, ok := lookup(EnvPrefix + "STRICT"); ok {
		c.Build.Strict = strings.EqualFold(strings.TrimSpace(v), "true")
	}
	if v, ok := lookup(EnvPrefix + "REBUILD_EVERY"); ok {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			ve.Add(EnvPrefix+"REBUILD_EVERY", "must be a duration")
		} else {
			c.Build.RebuildEvery = d
		}
	}
	if ve.HasAny() {
		return ve
	}
	return nil
}
