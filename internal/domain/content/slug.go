package content

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// Slugify lower-cases s and collapses every run of characters outside
// [a-z0-9] into a single '-', trimming dashes at both ends.
func Slugify(s string) string {
	s = strings.ToLower(s)
	var b strings.Builder
	b.Grow(len(s))
	lastDash := false

	for _, r := range s {
		if ('a' <= r && r <= 'z') || ('0' <= r && r <= '9') {
			b.WriteRune(r)
			lastDash = false
			continue
		}
		if !lastDash && b.Len() > 0 {
			b.WriteByte('-')
			lastDash = true
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// TagKey is the identity of a tag: trimmed and case folded. Tags with the
// same key are the same tag; any other difference makes them distinct.
func TagKey(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}

// TagSlug is the file name segment for a tag seen on its own. Tags that
// slugify to nothing get a stable hash-based name.
func TagSlug(tag string) string {
	if s := Slugify(TagKey(tag)); s != "" {
		return s
	}
	return hashedSlug("tag", TagKey(tag), 4)
}

// TagSlugs maps tag keys to page slugs for one collection of tags.
type TagSlugs map[string]string

// AssignTagSlugs gives every distinct tag a page slug that no other tag in
// tags shares. A tag keeps its plain slug unless another distinct tag
// slugifies to the same text; then each of them gets a hash suffix.
func AssignTagSlugs(tags []string) TagSlugs {
	byBase := make(map[string][]string)
	seen := make(map[string]struct{})
	for _, t := range tags {
		key := TagKey(t)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		base := Slugify(key)
		byBase[base] = append(byBase[base], key)
	}

	bases := make([]string, 0, len(byBase))
	for base := range byBase {
		bases = append(bases, base)
	}
	sort.Strings(bases)

	out := make(TagSlugs, len(seen))
	taken := make(map[string]struct{}, len(seen))
	for _, base := range bases {
		if keys := byBase[base]; base != "" && len(keys) == 1 {
			out[keys[0]] = base
			taken[base] = struct{}{}
		}
	}
	for _, base := range bases {
		keys := byBase[base]
		if base != "" && len(keys) == 1 {
			continue
		}
		prefix := base
		if prefix == "" {
			prefix = "tag"
		}
		for _, key := range keys {
			s := hashedSlug(prefix, key, 4)
			if _, clash := taken[s]; clash {
				s = hashedSlug(prefix, key, sha256.Size)
			}
			out[key] = s
			taken[s] = struct{}{}
		}
	}
	return out
}

// Slug returns the assigned slug of tag, or its standalone TagSlug when tag
// was not part of the collection.
func (ts TagSlugs) Slug(tag string) string {
	if s, ok := ts[TagKey(tag)]; ok {
		return s
	}
	return TagSlug(tag)
}

func hashedSlug(prefix, key string, n int) string {
	sum := sha256.Sum256([]byte(key))
	return prefix + "-" + hex.EncodeToString(sum[:n])
}
