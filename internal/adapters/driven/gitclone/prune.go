package gitclone

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// pruneTree strips the .git directory and, when keep is non-empty,
// every regular file whose extension is not kept. Directories emptied
// by the sweep are removed too. Returns the number of files removed.
func pruneTree(root string, keep map[string]struct{}) (int, error) {
	if err := os.RemoveAll(filepath.Join(root, ".git")); err != nil {
		return 0, fmt.Errorf("removing .git: %w", err)
	}
	if len(keep) == 0 {
		return 0, nil
	}

	removed := 0
	var dirs []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root {
				dirs = append(dirs, path)
			}
			return nil
		}
		if _, ok := keep[strings.ToLower(filepath.Ext(path))]; ok {
			return nil
		}
		if err := os.Remove(path); err != nil {
			return err
		}
		removed++
		return nil
	})
	if err != nil {
		return removed, fmt.Errorf("sweeping files: %w", err)
	}

	// Deepest directories first, so parents empty out as children go.
	sort.Sort(sort.Reverse(sort.StringSlice(dirs)))
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			continue
		}
		_ = os.Remove(dir)
	}

	return removed, nil
}
