package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "words", in: "The Quick Brown Fox", want: "the-quick-brown-fox"},
		{name: "mixed case", in: "NaCl", want: "nacl"},
		{name: "empty", in: "", want: ""},
		{name: "only punctuation", in: "!!! ???", want: ""},
		{name: "runs collapse", in: "So Long, and Thanks -- For All The Fish", want: "so-long-and-thanks-for-all-the-fish"},
		{name: "leading and trailing", in: "  --Hello World!--  ", want: "hello-world"},
		{name: "digits", in: "Top 10 of 2015", want: "top-10-of-2015"},
		{name: "unicode collapses", in: "Café über naïve", want: "caf-ber-na-ve"},
		{name: "cjk only", in: "博客", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Slugify(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, Slugify(got), "slugify must be idempotent")
		})
	}
}

func TestTagSlug(t *testing.T) {
	assert.Equal(t, "go", TagSlug(" Go "))
	assert.Equal(t, "c", TagSlug("C++"))

	hashed := TagSlug("博客")
	assert.Regexp(t, `^tag-[0-9a-f]{8}$`, hashed)
	assert.Equal(t, hashed, TagSlug("博客"))
	assert.NotEqual(t, hashed, TagSlug("日記"))
}

func TestTagKey(t *testing.T) {
	assert.Equal(t, "go", TagKey("  Go "))
	assert.Equal(t, "c++", TagKey("C++"))
	assert.NotEqual(t, TagKey("C"), TagKey("C#"))
}

func TestAssignTagSlugs(t *testing.T) {
	slugs := AssignTagSlugs([]string{"C", "C++", "C#", "Go", "go", "Web Dev", "博客", "日記"})

	// "go" and "Go" are one tag
	require.Len(t, slugs, 7)
	assert.Equal(t, "go", slugs.Slug("GO"))
	assert.Equal(t, "web-dev", slugs.Slug("web dev"))

	// C, C++ and C# all slugify to "c", so none of them keeps it
	for _, tag := range []string{"C", "C++", "C#"} {
		assert.Regexp(t, `^c-[0-9a-f]{8}$`, slugs.Slug(tag), tag)
	}
	assert.Regexp(t, `^tag-[0-9a-f]{8}$`, slugs.Slug("博客"))

	unique := make(map[string]string)
	for key, slug := range slugs {
		other, dup := unique[slug]
		assert.False(t, dup, "%q and %q share %q", key, other, slug)
		unique[slug] = key
	}

	again := AssignTagSlugs([]string{"C#", "日記", "web dev", "go", "博客", "C++", "C"})
	assert.Equal(t, slugs, again)

	assert.Equal(t, "python", slugs.Slug("Python"), "unknown tags fall back to TagSlug")
}

func TestAssignTagSlugsAvoidsPlainSlugClash(t *testing.T) {
	first := AssignTagSlugs([]string{"C", "C#"})
	hashedC := first.Slug("C")

	// a tag whose plain slug is exactly the hashed name of another tag
	slugs := AssignTagSlugs([]string{"C", "C#", hashedC})
	assert.Equal(t, hashedC, slugs.Slug(hashedC))
	assert.NotEqual(t, hashedC, slugs.Slug("C"))
	assert.Regexp(t, `^c-[0-9a-f]{64}$`, slugs.Slug("C"))
}

func TestPostSlugFollowsTitle(t *testing.T) {
	p := Post{Title: "First Title"}
	assert.Equal(t, "first-title", p.Slug())

	p.Title = "Second Title"
	assert.Equal(t, "second-title", p.Slug())

	p.ExplicitSlug = "Pinned Slug"
	assert.Equal(t, "pinned-slug", p.Slug())
	p.Title = "Third Title"
	assert.Equal(t, "pinned-slug", p.Slug())
}

func TestPostSlugIgnoresUnusableExplicitSlug(t *testing.T) {
	p := Post{Title: "Fine Title", ExplicitSlug: "!!!"}
	assert.Equal(t, "fine-title", p.Slug())
}

func TestSplitTags(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, SplitTags("a, b ,c"))
	assert.Equal(t, []string{"x", "y"}, SplitTags(",x,, ,y,"))
	assert.Empty(t, SplitTags(""))
	assert.NotNil(t, SplitTags(""))
}

func TestHasTag(t *testing.T) {
	p := Post{Tags: []string{"Go", "static sites", "C++"}}
	assert.True(t, p.HasTag("go"))
	assert.True(t, p.HasTag(" Static Sites "))
	assert.False(t, p.HasTag("static-sites"))
	assert.True(t, p.HasTag("c++"))
	assert.False(t, p.HasTag("C"))
	assert.False(t, p.HasTag("C#"))
	assert.False(t, p.HasTag("python"))
}
