package build

import (
	"io/fs"
	"os"
	"path/filepath"
)

// copyStaticAssets mirrors <themeDir>/static into the output root. A theme
// without a static dir is fine.
func (b *Builder) copyStaticAssets(write func(rel string, data []byte) error) error {
	if b.ThemeDir == "" {
		return nil
	}
	src := filepath.Join(b.ThemeDir, "static")
	info, err := os.Stat(src)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if !info.IsDir() {
		return nil
	}

	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		in, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return write(filepath.ToSlash(rel), in)
	})
}
