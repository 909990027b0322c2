package ingest

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

type SourceFile struct {
	Path string
}

// DiscoverSource lists post files directly inside root (no recursion),
// skipping dot files. Results are sorted by name.
func DiscoverSource(root, ext string) ([]SourceFile, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}

	var out []SourceFile
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		if !strings.HasSuffix(name, ext) {
			continue
		}
		out = append(out, SourceFile{Path: filepath.Join(root, name)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}
