package ingest

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainerr "slipstream/internal/domain/errors"
)

var fixedNow = time.Date(2010, 8, 14, 0, 0, 0, 0, time.UTC)

func testOptions() Options {
	return Options{
		DefaultAuthor: "anon@example.com",
		Location:      time.UTC,
		Now:           func() time.Time { return fixedNow },
	}
}

func TestDecodeFailures(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		reason domainerr.Reason
	}{
		{name: "no separator", text: "no content here", reason: domainerr.ReasonNoSeparator},
		{name: "header without colon", text: "there is no key\n\nhere", reason: domainerr.ReasonMalformedHeader},
		{name: "second header line broken", text: "title: I Just Can't Follow Directions\nI mean, really\n\nbody", reason: domainerr.ReasonMalformedHeader},
		{name: "missing title", text: "key: value\n\nThere is no title here", reason: domainerr.ReasonMissingTitle},
		{name: "empty title", text: "title:   \n\nbody", reason: domainerr.ReasonMissingTitle},
		{name: "empty body", text: "title: value\n\n", reason: domainerr.ReasonEmptyBody},
		{name: "whitespace body", text: "title: value\n\n  \n\t\n", reason: domainerr.ReasonEmptyBody},
		{name: "bad date", text: "title: t\ndate: yesterday\n\nbody", reason: domainerr.ReasonBadDate},
		{name: "bad updated", text: "title: t\nupdated: 14/08/2010\n\nbody", reason: domainerr.ReasonBadDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.text), testOptions())
			require.Error(t, err)
			assert.True(t, errors.Is(err, domainerr.ErrMalformed))

			var fe domainerr.FormatError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, tt.reason, fe.Reason)
		})
	}
}

func TestDecodeKeysAreCaseInsensitive(t *testing.T) {
	for _, text := range []string{
		"Title: this should work\n\nIt really should",
		"TiTlE: this should work\n\nIt really should",
	} {
		p, err := Decode([]byte(text), testOptions())
		require.NoError(t, err)
		assert.Equal(t, "this should work", p.Title)
	}
}

func TestDecodeDefaults(t *testing.T) {
	p, err := Decode([]byte("Title: something with no date\n\nThere is no time"), testOptions())
	require.NoError(t, err)

	assert.Equal(t, fixedNow, p.Published)
	assert.Nil(t, p.Updated)
	assert.Equal(t, "anon@example.com", p.Author)
	assert.Equal(t, []string{}, p.Tags)
	assert.Equal(t, "something-with-no-date", p.Slug())
	assert.Equal(t, "There is no time", p.Body)
}

func TestDecodeDateLayouts(t *testing.T) {
	tests := []struct {
		value string
		want  time.Time
	}{
		{value: "2010-08-14 09:23:12", want: time.Date(2010, 8, 14, 9, 23, 12, 0, time.UTC)},
		{value: "2010-08-14 09:23", want: time.Date(2010, 8, 14, 9, 23, 0, 0, time.UTC)},
		{value: "2010-08-14", want: time.Date(2010, 8, 14, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			p, err := Decode([]byte("Title: This is a title\nDate: "+tt.value+"\nUpdated: "+tt.value+"\n\nThis should work...\n"), testOptions())
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(p.Published), "published %v", p.Published)
			require.NotNil(t, p.Updated)
			assert.True(t, tt.want.Equal(*p.Updated))
		})
	}
}

func TestDecodeHeaders(t *testing.T) {
	text := "title: So Long, and Thanks For All The Fish\n" +
		"date: 2010-08-14\n" +
		"author: arthur@example.com\n" +
		"slug: Fish\n" +
		"tags: a, b ,c,,\n" +
		"\n" +
		"They were delicious fish, weren't they?\n\nYes: they were."

	p, err := Decode([]byte(text), testOptions())
	require.NoError(t, err)
	assert.Equal(t, "So Long, and Thanks For All The Fish", p.Title)
	assert.Equal(t, "arthur@example.com", p.Author)
	assert.Equal(t, "fish", p.Slug())
	assert.Equal(t, []string{"a", "b", "c"}, p.Tags)
	assert.Equal(t, "They were delicious fish, weren't they?\n\nYes: they were.", p.Body)
}

func TestDecodeValueKeepsLaterColons(t *testing.T) {
	p, err := Decode([]byte("title: Re: colons: everywhere\n\nbody"), testOptions())
	require.NoError(t, err)
	assert.Equal(t, "Re: colons: everywhere", p.Title)
}

func TestDecodeDuplicateHeaderLastWins(t *testing.T) {
	p, err := Decode([]byte("Title: first\nTitle: second\n\nbody"), testOptions())
	require.NoError(t, err)
	assert.Equal(t, "second", p.Title)
}

func TestDecodeCRLF(t *testing.T) {
	p, err := Decode([]byte("Title: windows\r\nTags: x\r\n\r\nline one\r\nline two"), testOptions())
	require.NoError(t, err)
	assert.Equal(t, "windows", p.Title)
	assert.Equal(t, []string{"x"}, p.Tags)
	assert.Equal(t, "line one\nline two", p.Body)
}

func TestDecodeOverridesWin(t *testing.T) {
	opts := testOptions()
	opts.Overrides = map[string]string{"TITLE": "Overridden", "Author": "ford@example.com"}

	p, err := Decode([]byte("title: original\nauthor: arthur@example.com\n\nbody"), opts)
	require.NoError(t, err)
	assert.Equal(t, "Overridden", p.Title)
	assert.Equal(t, "ford@example.com", p.Author)
}

func TestEncodeCanonicalForm(t *testing.T) {
	updated := time.Date(2015, 11, 21, 18, 30, 59, 0, time.UTC)
	p, err := Decode([]byte("title: Hello World\ndate: 2015-11-20 08:05:09\nauthor: w@example.com\ntags: go, blog\n\nBody text\n"), testOptions())
	require.NoError(t, err)
	p.Updated = &updated

	want := "Title: Hello World\n" +
		"Date: 2015-11-20 08:05\n" +
		"Slug: hello-world\n" +
		"Author: w@example.com\n" +
		"Updated: 2015-11-21 18:30\n" +
		"Tags: go, blog\n" +
		"\n" +
		"Body text\n"
	assert.Equal(t, want, string(Encode(p, time.UTC)))
}

func TestEncodeOmitsOptionalHeaders(t *testing.T) {
	p, err := Decode([]byte("title: Bare\ndate: 2015-11-20\n\nBody"), testOptions())
	require.NoError(t, err)

	want := "Title: Bare\nDate: 2015-11-20 00:00\nSlug: bare\nAuthor: anon@example.com\n\nBody"
	assert.Equal(t, want, string(Encode(p, time.UTC)))
}

func TestRoundTrip(t *testing.T) {
	texts := []string{
		"Title: good posting\n\nThis is a good post. I swear it.",
		"title: Tagged\ndate: 1982-06-25 13:14:15\nupdated: 2010-08-14 09:00\ntags: one, two,three\nauthor: x@y.z\n\n# Heading\n\nparagraph\n",
		"title: Explicit\nslug: Custom Slug!\n\n\nleading blank line in body",
		"title: Unicode ünïcødé\n\nbody",
	}
	for _, text := range texts {
		first, err := Decode([]byte(text), testOptions())
		require.NoError(t, err)

		second, err := Decode(Encode(first, time.UTC), testOptions())
		require.NoError(t, err)

		assert.Equal(t, first.Title, second.Title)
		assert.Equal(t, first.Body, second.Body)
		assert.Equal(t, first.Author, second.Author)
		assert.Equal(t, first.Tags, second.Tags)
		assert.Equal(t, first.Slug(), second.Slug())
		assert.True(t, first.Published.Truncate(time.Minute).Equal(second.Published))
		if first.Updated == nil {
			assert.Nil(t, second.Updated)
		} else {
			require.NotNil(t, second.Updated)
			assert.True(t, first.Updated.Truncate(time.Minute).Equal(*second.Updated))
		}
	}
}

func TestFromFields(t *testing.T) {
	p, err := FromFields("The Ballad\nof Wol Emulov", "", "## markdown", map[string]string{
		"Tags": "x, y",
		"DATE": "2010-08-14 09:23",
	}, testOptions())
	require.NoError(t, err)

	assert.Equal(t, "The Ballad of Wol Emulov", p.Title)
	assert.Equal(t, "anon@example.com", p.Author)
	assert.Equal(t, []string{"x", "y"}, p.Tags)
	assert.True(t, time.Date(2010, 8, 14, 9, 23, 0, 0, time.UTC).Equal(p.Published))
	assert.Equal(t, "the-ballad-of-wol-emulov", p.Slug())

	again, err := Decode(Encode(p, time.UTC), testOptions())
	require.NoError(t, err)
	assert.Equal(t, p.Title, again.Title)
}

func TestFromFieldsRejectsBlankInput(t *testing.T) {
	_, err := FromFields("  ", "a@b.c", "body", nil, testOptions())
	assert.ErrorIs(t, err, domainerr.ErrMalformed)

	_, err = FromFields("title", "a@b.c", " \n ", nil, testOptions())
	assert.ErrorIs(t, err, domainerr.ErrMalformed)
}

func TestFoldKeysIsDeterministic(t *testing.T) {
	extra := map[string]string{"Date": "2010-08-14", " date ": "2011-01-01", "TAGS": "x"}
	for i := 0; i < 20; i++ {
		assert.Equal(t, map[string]string{"date": "2010-08-14", "tags": "x"}, FoldKeys(extra))
	}
	assert.Equal(t, []string{"date"}, FoldCollisions(extra))
	assert.Empty(t, FoldCollisions(map[string]string{"date": "x", "Tags": "y"}))

	for i := 0; i < 20; i++ {
		p, err := FromFields("T", "", "body", extra, testOptions())
		require.NoError(t, err)
		assert.Equal(t, 2010, p.Published.Year())
	}
}
