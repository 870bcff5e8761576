package theme

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	gotheme "github.com/goliatone/go-theme"
	"gopkg.in/yaml.v3"
)

// ManifestFile is the optional descriptor at the root of a theme directory.
const ManifestFile = "theme.yaml"

type assetsFile struct {
	Prefix string            `yaml:"prefix"`
	Files  map[string]string `yaml:"files"`
}

type variantFile struct {
	Tokens    map[string]string `yaml:"tokens"`
	Templates map[string]string `yaml:"templates"`
	Assets    assetsFile        `yaml:"assets"`
}

type manifestFile struct {
	Name      string                 `yaml:"name"`
	Version   string                 `yaml:"version"`
	Tokens    map[string]string      `yaml:"tokens"`
	Templates map[string]string      `yaml:"templates"`
	Assets    assetsFile             `yaml:"assets"`
	Variants  map[string]variantFile `yaml:"variants"`
}

func (f manifestFile) manifest() *gotheme.Manifest {
	m := &gotheme.Manifest{
		Name:      f.Name,
		Version:   f.Version,
		Tokens:    f.Tokens,
		Templates: f.Templates,
		Assets:    gotheme.Assets{Prefix: f.Assets.Prefix, Files: f.Assets.Files},
	}
	if len(f.Variants) > 0 {
		m.Variants = make(map[string]gotheme.Variant, len(f.Variants))
		for name, v := range f.Variants {
			m.Variants[name] = gotheme.Variant{
				Tokens:    v.Tokens,
				Templates: v.Templates,
				Assets:    gotheme.Assets{Prefix: v.Assets.Prefix, Files: v.Assets.Files},
			}
		}
	}
	return m
}

// LoadManifests reads one manifest per directory at the root of fsys. A
// directory without a theme.yaml yields a bare manifest named after it; a
// manifest without a name takes the directory name.
func LoadManifests(fsys fs.FS) ([]*gotheme.Manifest, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("theme: read themes: %w", err)
	}

	var manifests []*gotheme.Manifest
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		dir := entry.Name()

		var file manifestFile
		data, err := fs.ReadFile(fsys, path.Join(dir, ManifestFile))
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("theme: read %s manifest: %w", dir, err)
		default:
			if err := yaml.Unmarshal(data, &file); err != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrInvalidManifest, dir, err)
			}
		}
		if strings.TrimSpace(file.Name) == "" {
			file.Name = dir
		}
		manifests = append(manifests, file.manifest())
	}

	sort.Slice(manifests, func(i, j int) bool { return manifests[i].Name < manifests[j].Name })
	return manifests, nil
}

// LoadFS registers every manifest found in fsys.
func (c *Catalog) LoadFS(fsys fs.FS) error {
	manifests, err := LoadManifests(fsys)
	if err != nil {
		return err
	}
	for _, m := range manifests {
		if err := c.Register(m); err != nil {
			return err
		}
	}
	return nil
}
