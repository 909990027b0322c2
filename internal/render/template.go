package render

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"slipstream/internal/domain/config"
)

//go:embed themes/default/*.tmpl
var defaultTheme embed.FS

// htmlTemplate is one named template inside a parsed theme set.
type htmlTemplate struct {
	set  *template.Template
	name string
}

func (t *htmlTemplate) Render(_ context.Context, model any) ([]byte, error) {
	var buf bytes.Buffer
	if err := t.set.ExecuteTemplate(&buf, t.name, model); err != nil {
		return nil, fmt.Errorf("execute %s: %w", t.name, err)
	}
	return buf.Bytes(), nil
}

// LoadTemplates parses every *.tmpl in themeDir, or the embedded default theme
// when themeDir is empty, and picks the three page templates by name.
func LoadTemplates(themeDir string, names config.TemplateConfig) (Templates, error) {
	var (
		fsys    fs.FS
		pattern = "*.tmpl"
	)
	if strings.TrimSpace(themeDir) == "" {
		sub, err := fs.Sub(defaultTheme, "themes/default")
		if err != nil {
			return Templates{}, err
		}
		fsys = sub
	} else {
		if err := CheckThemeTemplates(themeDir, names); err != nil {
			return Templates{}, err
		}
		fsys = os.DirFS(themeDir)
	}

	set, err := template.New("").Funcs(templateFuncs()).ParseFS(fsys, pattern)
	if err != nil {
		return Templates{}, fmt.Errorf("parse theme: %w", err)
	}

	pick := func(name string) (Template, error) {
		if set.Lookup(name) == nil {
			return nil, fmt.Errorf("template %s not found", name)
		}
		return &htmlTemplate{set: set, name: name}, nil
	}

	var out Templates
	if out.Post, err = pick(names.Post); err != nil {
		return Templates{}, err
	}
	if out.Index, err = pick(names.Index); err != nil {
		return Templates{}, err
	}
	if out.Tag, err = pick(names.Tag); err != nil {
		return Templates{}, err
	}
	return out, nil
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"date": func(t interface{}, layout string) string {
			switch v := t.(type) {
			case nil:
				return ""
			case string:
				return v
			case interface{ Format(string) string }:
				return v.Format(layout)
			default:
				return ""
			}
		},
		"isoDate": func(t interface{ Format(string) string }) string {
			return t.Format("2006-01-02T15:04:05Z07:00")
		},
		"join": strings.Join,
	}
}

func CheckThemeTemplates(themeDir string, names config.TemplateConfig) error {
	for _, name := range []string{names.Post, names.Index, names.Tag} {
		if _, err := os.Stat(filepath.Join(themeDir, name)); err != nil {
			return fmt.Errorf("missing template: %s", name)
		}
	}
	return nil
}
