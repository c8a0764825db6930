// Package census computes and caches recursive file counts for directories.
package census

import (
	"os"
	"path/filepath"
)

// CountFiles returns the number of regular files reachable from root. It
// never fails: unreadable directories and unclassifiable entries contribute
// zero. Symlink loops are broken by tracking canonical paths, so a directory
// reached through several link chains is counted once.
func CountFiles(root string) int64 {
	var count int64
	pending := []string{root}
	visited := make(map[string]struct{})

	for len(pending) > 0 {
		dir := pending[len(pending)-1]
		pending = pending[:len(pending)-1]

		// Canonicalize only at visit time to bound the cost.
		real, err := filepath.EvalSymlinks(dir)
		if err != nil {
			continue
		}
		if real, err = filepath.Abs(real); err != nil {
			continue
		}
		if _, seen := visited[real]; seen {
			continue
		}
		visited[real] = struct{}{}

		children, err := os.ReadDir(real)
		if err != nil {
			continue
		}
		for _, child := range children {
			path := filepath.Join(real, child.Name())
			isDir, isFile := classify(child, path)
			switch {
			case isFile:
				count++
			case isDir:
				pending = append(pending, path)
			}
		}
	}

	return count
}

// classify resolves an entry to (directory, regular file), following
// symlinks the way the listing does. Broken links and permission errors
// classify as neither.
func classify(entry os.DirEntry, path string) (isDir, isFile bool) {
	typ := entry.Type()
	if typ&os.ModeSymlink != 0 {
		info, err := os.Stat(path)
		if err != nil {
			return false, false
		}
		return info.IsDir(), info.Mode().IsRegular()
	}
	return typ.IsDir(), typ.IsRegular()
}
