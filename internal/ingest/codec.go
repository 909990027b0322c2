package ingest

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"time"

	"slipstream/internal/domain/content"
	domainerr "slipstream/internal/domain/errors"
)

const (
	layoutMinute = "2006-01-02 15:04"
)

// date layouts in order of preference
var dateLayouts = []string{
	time.DateTime,
	layoutMinute,
	time.DateOnly,
}

type Options struct {
	DefaultAuthor string
	Location      *time.Location
	Now           func() time.Time
	// Overrides win over headers parsed from the text. Keys are
	// case-insensitive.
	Overrides map[string]string
}

func (o Options) location() *time.Location {
	if o.Location == nil {
		return time.Local
	}
	return o.Location
}

func (o Options) now() time.Time {
	if o.Now == nil {
		return time.Now()
	}
	return o.Now()
}

// Decode parses post text: `Key: value` header lines, a blank line, then the
// body.
func Decode(raw []byte, opts Options) (content.Post, error) {
	norm := bytes.ReplaceAll(raw, []byte("\r\n"), []byte("\n"))
	norm = bytes.ReplaceAll(norm, []byte("\r"), []byte("\n"))

	headerPart, body, ok := bytes.Cut(norm, []byte("\n\n"))
	if !ok {
		return content.Post{}, domainerr.Malformed(domainerr.ReasonNoSeparator, "")
	}

	headers := make(map[string]string)
	for _, line := range strings.Split(string(headerPart), "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			return content.Post{}, domainerr.Malformed(domainerr.ReasonMalformedHeader, fmt.Sprintf("%q", line))
		}
		// duplicate keys: last one wins
		headers[strings.ToLower(strings.TrimSpace(key))] = strings.TrimSpace(value)
	}
	for k, v := range FoldKeys(opts.Overrides) {
		headers[k] = strings.TrimSpace(v)
	}

	return fromHeaders(headers, string(body), opts)
}

// FoldKeys lower-cases and trims the keys of m. When two keys fold to the
// same one, the value of the key that sorts last wins, so the result never
// depends on map order.
func FoldKeys(m map[string]string) map[string]string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(map[string]string, len(m))
	for _, k := range keys {
		out[strings.ToLower(strings.TrimSpace(k))] = m[k]
	}
	return out
}

// FoldCollisions lists the folded keys that more than one key of m maps to.
func FoldCollisions(m map[string]string) []string {
	count := make(map[string]int, len(m))
	for k := range m {
		count[strings.ToLower(strings.TrimSpace(k))]++
	}
	var out []string
	for k, n := range count {
		if n > 1 {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// FromFields builds a post from explicit publish fields, running them through
// the same normalisation as Decode. Values are folded onto one line so the
// encoded post always decodes again.
func FromFields(title, author, body string, extra map[string]string, opts Options) (content.Post, error) {
	headers := make(map[string]string, len(extra)+2)
	for k, v := range FoldKeys(extra) {
		headers[k] = singleLine(v)
	}
	headers["title"] = singleLine(title)
	if a := singleLine(author); a != "" {
		headers["author"] = a
	}
	for k, v := range FoldKeys(opts.Overrides) {
		headers[k] = singleLine(v)
	}
	return fromHeaders(headers, body, opts)
}

func fromHeaders(headers map[string]string, body string, opts Options) (content.Post, error) {
	title := headers["title"]
	if title == "" {
		return content.Post{}, domainerr.Malformed(domainerr.ReasonMissingTitle, "")
	}
	if strings.TrimSpace(body) == "" {
		return content.Post{}, domainerr.Malformed(domainerr.ReasonEmptyBody, "")
	}

	p := content.Post{
		Title:        title,
		Author:       headers["author"],
		Body:         body,
		Tags:         content.SplitTags(headers["tags"]),
		ExplicitSlug: headers["slug"],
	}
	if p.Author == "" {
		p.Author = opts.DefaultAuthor
	}

	loc := opts.location()
	if v, ok := headers["date"]; ok {
		t, err := ParseTime(v, loc)
		if err != nil {
			return content.Post{}, err
		}
		p.Published = t
	} else {
		p.Published = opts.now()
	}
	if v, ok := headers["updated"]; ok {
		t, err := ParseTime(v, loc)
		if err != nil {
			return content.Post{}, err
		}
		p.Updated = &t
	}
	return p, nil
}

// ParseTime tries each accepted layout in order; the first match wins.
func ParseTime(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, domainerr.Malformed(domainerr.ReasonBadDate, fmt.Sprintf("%q", s))
}

// Encode renders the canonical text form of p. Timestamps keep minute
// resolution.
func Encode(p content.Post, loc *time.Location) []byte {
	if loc == nil {
		loc = time.Local
	}
	var b bytes.Buffer
	writeHeader(&b, "Title", p.Title)
	writeHeader(&b, "Date", p.Published.In(loc).Format(layoutMinute))
	writeHeader(&b, "Slug", p.Slug())
	writeHeader(&b, "Author", p.Author)
	if p.Updated != nil {
		writeHeader(&b, "Updated", p.Updated.In(loc).Format(layoutMinute))
	}
	if len(p.Tags) > 0 {
		writeHeader(&b, "Tags", strings.Join(p.Tags, ", "))
	}
	b.WriteByte('\n')
	b.WriteString(p.Body)
	return b.Bytes()
}

func writeHeader(b *bytes.Buffer, key, value string) {
	b.WriteString(key)
	b.WriteString(": ")
	b.WriteString(value)
	b.WriteByte('\n')
}

func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
