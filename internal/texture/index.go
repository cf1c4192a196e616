package texture

import (
	"os"
	"path/filepath"
	"strings"
)

var imageExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".tga": true,
	".bmp": true, ".tif": true, ".tiff": true, ".webp": true,
}

// Index maps lowercase file names under a model directory to their paths.
// Exported assets often reference textures with the wrong case or a stale
// subdirectory; the index lets those still resolve by base name.
type Index struct {
	entries map[string]string // lower(base name) → full path
}

// BuildIndex scans dir recursively for image files.
func BuildIndex(dir string) *Index {
	idx := &Index{entries: make(map[string]string)}
	filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if !imageExts[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		key := strings.ToLower(filepath.Base(path))
		// First match in walk order wins.
		if _, exists := idx.entries[key]; !exists {
			idx.entries[key] = path
		}
		return nil
	})
	return idx
}

// ResolvePath returns the filesystem path for a texture reference, or ("", false).
func (idx *Index) ResolvePath(ref string) (string, bool) {
	if idx == nil {
		return "", false
	}
	ref = strings.ReplaceAll(ref, "\\", "/")
	path, ok := idx.entries[strings.ToLower(filepath.Base(ref))]
	return path, ok
}

// Len returns the number of indexed textures.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.entries)
}
