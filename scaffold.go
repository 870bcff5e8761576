package infernum

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

//go:embed scaffold
var embeddedScaffold embed.FS

// ScaffoldFS exposes the starter site: global templates, a default theme
// and an en-US message catalog, laid out as the default configuration
// expects.
func ScaffoldFS() fs.FS {
	sub, err := fs.Sub(embeddedScaffold, "scaffold")
	if err != nil {
		return embeddedScaffold
	}
	return sub
}

// WriteScaffold copies the starter site into dir and returns the written
// paths. Existing files are kept unless overwrite is set.
func WriteScaffold(dir string, overwrite bool) ([]string, error) {
	src := ScaffoldFS()
	var written []string

	err := fs.WalkDir(src, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		target := filepath.Join(dir, filepath.FromSlash(p))
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		if _, err := os.Stat(target); err == nil && !overwrite {
			return nil
		} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}

		data, err := fs.ReadFile(src, p)
		if err != nil {
			return err
		}
		if err := os.WriteFile(target, data, 0o644); err != nil {
			return err
		}
		written = append(written, target)
		return nil
	})
	if err != nil {
		return written, fmt.Errorf("infernum: write scaffold: %w", err)
	}
	return written, nil
}
