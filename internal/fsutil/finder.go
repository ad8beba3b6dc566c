// Package fsutil provides small file system helpers for manifest discovery.
package fsutil

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// FindFilesByExtension recursively collects every file under rootPath whose
// name ends with extension, returned in sorted order so manifest loading is
// deterministic across platforms.
func FindFilesByExtension(rootPath, extension string) ([]string, error) {
	if extension == "" {
		panic("fsutil: extension must not be empty")
	}

	var files []string
	walk := func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), extension) {
			return nil
		}
		files = append(files, path)
		return nil
	}
	if err := filepath.WalkDir(rootPath, walk); err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}
