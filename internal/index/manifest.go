package index

import (
	"sort"

	bolt "go.etcd.io/bbolt"
)

// SwapArtifacts stores current as the new artifact manifest and reports the
// paths the previous manifest had that current lacks, plus how many entries
// are new or changed.
func (s *Store) SwapArtifacts(current map[string]string) (stale []string, changed int, err error) {
	err = s.db.Update(func(tx *bolt.Tx) error {
		old := make(map[string]string)
		if b := tx.Bucket(bManifest); b != nil {
			if err := b.ForEach(func(k, v []byte) error {
				old[string(k)] = string(v)
				return nil
			}); err != nil {
				return err
			}
			if err := tx.DeleteBucket(bManifest); err != nil {
				return err
			}
		}

		b, err := tx.CreateBucket(bManifest)
		if err != nil {
			return err
		}
		for rel, sum := range current {
			if old[rel] != sum {
				changed++
			}
			if err := b.Put([]byte(rel), []byte(sum)); err != nil {
				return err
			}
		}
		for rel := range old {
			if _, ok := current[rel]; !ok {
				stale = append(stale, rel)
			}
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	sort.Strings(stale)
	return stale, changed, nil
}

// Artifacts returns the manifest written by the last SwapArtifacts.
func (s *Store) Artifacts() (map[string]string, error) {
	out := make(map[string]string)
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bManifest)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			out[string(k)] = string(v)
			return nil
		})
	})
	return out, err
}
