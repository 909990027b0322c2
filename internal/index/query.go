package index

import (
	"encoding/json"
	"errors"
	"sort"
	"strings"

	bolt "go.etcd.io/bbolt"

	"slipstream/internal/domain/content"
)

var ErrNotFound = errors.New("not found")

type ListOptions struct {
	Page int
	Size int
}

func (s *Store) GetMeta(slug string) (PostMeta, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return PostMeta{}, ErrNotFound
	}
	var m PostMeta
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bMeta)
		if b == nil {
			return ErrNotFound
		}
		v := b.Get([]byte(slug))
		if v == nil {
			return ErrNotFound
		}
		return json.Unmarshal(v, &m)
	})
	return m, err
}

func normalizePaging(page, size int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 10
	}
	if size > 100 {
		size = 100
	}
	return page, size
}

// List pages through all posts, newest first.
func (s *Store) List(opt ListOptions) ([]PostMeta, error) {
	var out []PostMeta
	err := s.db.View(func(tx *bolt.Tx) error {
		out = collect(tx.Bucket(bIdxPublished), tx.Bucket(bMeta), opt)
		return nil
	})
	return out, err
}

// ListByTag pages through the posts carrying tag, newest first. tag is
// either the tag itself, in any case, or the slug of its page.
func (s *Store) ListByTag(tag string, opt ListOptions) ([]PostMeta, error) {
	if strings.TrimSpace(tag) == "" {
		return nil, nil
	}

	var out []PostMeta
	err := s.db.View(func(tx *bolt.Tx) error {
		parent := tx.Bucket(bIdxTag)
		if parent == nil {
			return nil
		}
		b := parent.Bucket([]byte(content.TagKey(tag)))
		if b == nil {
			if key := keyOfTagSlug(tx, tag); key != nil {
				b = parent.Bucket(key)
			}
		}
		out = collect(b, tx.Bucket(bMeta), opt)
		return nil
	})
	return out, err
}

func keyOfTagSlug(tx *bolt.Tx, slug string) []byte {
	b := tx.Bucket(bTagSlug)
	if b == nil {
		return nil
	}
	c := b.Cursor()
	for k, v := c.First(); k != nil; k, v = c.Next() {
		if string(v) == slug {
			return k
		}
	}
	return nil
}

func collect(idx, metaB *bolt.Bucket, opt ListOptions) []PostMeta {
	if idx == nil || metaB == nil {
		return nil
	}
	page, size := normalizePaging(opt.Page, opt.Size)
	skip := (page - 1) * size

	var out []PostMeta
	cur := idx.Cursor()
	for k, _ := cur.First(); k != nil; k, _ = cur.Next() {
		slug := slugFromTimeSlugKey(k)
		if slug == "" {
			continue
		}
		v := metaB.Get([]byte(slug))
		if v == nil {
			continue
		}
		var m PostMeta
		if err := json.Unmarshal(v, &m); err != nil {
			continue
		}
		if skip > 0 {
			skip--
			continue
		}
		out = append(out, m)
		if len(out) >= size {
			break
		}
	}
	return out
}

// Tags lists every tag with its post count, ordered by slug.
func (s *Store) Tags() ([]TagCount, error) {
	var out []TagCount
	err := s.db.View(func(tx *bolt.Tx) error {
		parent := tx.Bucket(bIdxTag)
		names := tx.Bucket(bTagName)
		slugs := tx.Bucket(bTagSlug)
		if parent == nil {
			return nil
		}
		return parent.ForEachBucket(func(k []byte) error {
			tc := TagCount{Slug: content.TagSlug(string(k)), Name: string(k)}
			if names != nil {
				if v := names.Get(k); v != nil {
					tc.Name = string(v)
				}
			}
			if slugs != nil {
				if v := slugs.Get(k); v != nil {
					tc.Slug = string(v)
				}
			}
			tc.Count = countKeys(parent.Bucket(k))
			out = append(out, tc)
			return nil
		})
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, err
}

func (s *Store) Count() (int, error) {
	var n int
	err := s.db.View(func(tx *bolt.Tx) error {
		if b := tx.Bucket(bMeta); b != nil {
			n = countKeys(b)
		}
		return nil
	})
	return n, err
}

func countKeys(b *bolt.Bucket) int {
	if b == nil {
		return 0
	}
	n := 0
	c := b.Cursor()
	for k, _ := c.First(); k != nil; k, _ = c.Next() {
		n++
	}
	return n
}
