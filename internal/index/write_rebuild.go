package index

import (
	"encoding/json"
	"errors"
	"strings"

	bolt "go.etcd.io/bbolt"

	"slipstream/internal/domain/content"
)

// Rebuild replaces the post index with metas. The artifact manifest is left
// alone; see SwapArtifacts.
func (s *Store) Rebuild(metas []PostMeta) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bMeta, bIdxPublished, bIdxTag, bTagName, bTagSlug} {
			if err := tx.DeleteBucket(name); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
				return err
			}
		}

		metaB, err := tx.CreateBucket(bMeta)
		if err != nil {
			return err
		}
		idxB, err := tx.CreateBucket(bIdxPublished)
		if err != nil {
			return err
		}
		idxTagB, err := tx.CreateBucket(bIdxTag)
		if err != nil {
			return err
		}
		tagNameB, err := tx.CreateBucket(bTagName)
		if err != nil {
			return err
		}
		tagSlugB, err := tx.CreateBucket(bTagSlug)
		if err != nil {
			return err
		}

		var all []string
		for _, m := range metas {
			all = append(all, m.Tags...)
		}
		slugs := content.AssignTagSlugs(all)

		for _, m := range metas {
			if strings.TrimSpace(m.Slug) == "" {
				continue
			}
			mb, err := json.Marshal(m)
			if err != nil {
				return err
			}
			if err := metaB.Put([]byte(m.Slug), mb); err != nil {
				return err
			}

			key := makeTimeSlugKey(m.Published.UnixNano(), m.Slug)
			if err := idxB.Put(key, []byte{1}); err != nil {
				return err
			}

			for _, tag := range m.Tags {
				tk := content.TagKey(tag)
				if tk == "" {
					continue
				}
				sb, err := idxTagB.CreateBucketIfNotExists([]byte(tk))
				if err != nil {
					return err
				}
				if err := sb.Put(key, []byte{1}); err != nil {
					return err
				}
				// first spelling seen wins
				if tagNameB.Get([]byte(tk)) == nil {
					if err := tagNameB.Put([]byte(tk), []byte(strings.TrimSpace(tag))); err != nil {
						return err
					}
					if err := tagSlugB.Put([]byte(tk), []byte(slugs[tk])); err != nil {
						return err
					}
				}
			}
		}
		return nil
	})
}
