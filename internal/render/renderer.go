package render

import "context"

// Template turns a page model into markup.
type Template interface {
	Render(ctx context.Context, model any) ([]byte, error)
}

// Templates is the set of page templates a site build needs.
type Templates struct {
	Post  Template
	Index Template
	Tag   Template
}

// TemplateFunc adapts a plain function to Template.
type TemplateFunc func(ctx context.Context, model any) ([]byte, error)

func (f TemplateFunc) Render(ctx context.Context, model any) ([]byte, error) {
	return f(ctx, model)
}
