package render

import (
	"html/template"
	"time"

	"slipstream/internal/domain/config"
)

type Heading struct {
	Level int
	ID    string
	Text  string
}

type TagLink struct {
	Name string
	Slug string
	URL  string
}

type PostView struct {
	Title     string
	Slug      string
	Author    string
	URL       string
	Published time.Time
	Updated   *time.Time
	Tags      []TagLink

	HTML template.HTML
	TOC  []Heading
}

type PostPage struct {
	Site  config.SiteConfig
	Post  PostView
	Title string
}

type TagStat struct {
	TagLink
	Count int
}

type IndexPage struct {
	Site  config.SiteConfig
	Posts []PostView
	Tags  []TagStat
	Title string
}

type TagPage struct {
	Site  config.SiteConfig
	Tag   TagLink
	Posts []PostView
	Title string
}
