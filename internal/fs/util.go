package fs

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/akeil/syfix/internal/logging"
)

var errNotDir = errors.New("not a directory")

// Find returns all regular files below dir that have the given extension.
// Paths are returned in lexical order.
//
// Directories that cannot be read are skipped with a warning;
// an error is only returned if dir itself cannot be read.
func Find(dir, ext string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, &fs.PathError{Op: "find", Path: dir, Err: errNotDir}
	}

	paths := make([]string, 0)
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			// A bit untidy, but we carry on with the rest of the tree.
			logging.Warning("Skip %v: %v", path, err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.Type().IsRegular() && filepath.Ext(path) == ext {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(paths)
	logging.Debug("Found %d %q files in %v", len(paths), ext, dir)
	return paths, nil
}
