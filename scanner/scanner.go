package scanner

import (
	"errors"
	"io/fs"
	"path/filepath"
	"sort"

	"imagevariants/logging"
	"imagevariants/utils"
)

var errNotDirectory = errors.New("not a directory")

// FindSourceImages walks root and returns every source image below it in
// lexical order. Directories that cannot be read abort the walk with a
// *DirectoryReadError; there are no partial results.
func FindSourceImages(root string) ([]string, error) {
	var images []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return &DirectoryReadError{Dir: path, Err: err}
		}
		if d.IsDir() {
			return nil
		}
		if path == root {
			return &DirectoryReadError{Dir: path, Err: errNotDirectory}
		}
		// Symlinks and other special files are skipped.
		if !d.Type().IsRegular() {
			return nil
		}
		if IsSourceImage(d.Name()) {
			images = append(images, path)
		} else {
			logging.DebugLog("Skipping %s", path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logging.DebugLog("Found %d source images under %s", len(images), root)
	return images, nil
}

// FindOutputCollisions reports derivative paths that more than one source
// would write, e.g. post.jpg and post.png in the same directory. Sources are
// listed in the order given.
func FindOutputCollisions(sources []string, sizeNames []string, exts []string) []Collision {
	owners := make(map[string][]string)
	var order []string

	for _, src := range sources {
		for _, size := range sizeNames {
			for _, ext := range exts {
				out := utils.DerivativePath(src, size, ext)
				if _, seen := owners[out]; !seen {
					order = append(order, out)
				}
				owners[out] = append(owners[out], src)
			}
		}
	}

	var collisions []Collision
	for _, out := range order {
		if len(owners[out]) > 1 {
			collisions = append(collisions, Collision{Output: out, Sources: owners[out]})
		}
	}
	sort.Slice(collisions, func(i, j int) bool { return collisions[i].Output < collisions[j].Output })
	return collisions
}
