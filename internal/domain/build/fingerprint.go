package build

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
)

// Hash is the hex sha256 of one generated artifact.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Fingerprint is the set of artifacts produced by one regeneration, keyed by
// output-relative path.
type Fingerprint struct {
	Artifacts map[string]string
}

func NewFingerprint() *Fingerprint {
	return &Fingerprint{Artifacts: make(map[string]string)}
}

func (f *Fingerprint) Add(rel string, data []byte) {
	f.Artifacts[rel] = Hash(data)
}

// Digest hashes every (path, hash) pair in path order, so two runs that
// produced the same bytes at the same paths share a digest.
func (f *Fingerprint) Digest() string {
	keys := make([]string, 0, len(f.Artifacts))
	for k := range f.Artifacts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := sha256.New()
	for _, k := range keys {
		h.Write([]byte(k))
		h.Write([]byte{0})
		h.Write([]byte(f.Artifacts[k]))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
