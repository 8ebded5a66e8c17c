package datasets

import (
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
)

// GlobSorted returns the files matching pattern in lexical order, so that
// parallel lists built from sibling directories line up.
func GlobSorted(pattern string) ([]string, error) {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to glob pattern %s", pattern)
	}
	if len(matches) == 0 {
		return nil, errors.Errorf("no files found matching pattern: %s", pattern)
	}
	sort.Strings(matches)
	return matches, nil
}

// PairedPaths globs each pattern and returns one sorted list per pattern.
// All lists must have the same length.
func PairedPaths(patterns ...string) ([][]string, error) {
	lists := make([][]string, len(patterns))
	for i, pattern := range patterns {
		matches, err := GlobSorted(pattern)
		if err != nil {
			return nil, err
		}
		lists[i] = matches
		if len(matches) != len(lists[0]) {
			return nil, errors.Wrapf(ErrConfig, "pattern %s matches %d files, %s matches %d",
				pattern, len(matches), patterns[0], len(lists[0]))
		}
	}
	return lists, nil
}

// FindImagesInDir returns the sorted files in dir with the given extension
// (".png", ".tif", ...).
func FindImagesInDir(dir, ext string) ([]string, error) {
	return GlobSorted(filepath.Join(dir, "*"+ext))
}
