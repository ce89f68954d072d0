package filter

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// DiscoverAssets returns the accepted config files below root in sorted
// order. A root that is itself a config file is returned alone when
// accepted.
func DiscoverAssets(root string, l Lists) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("filter: stat %s: %w", root, err)
	}
	if !info.IsDir() {
		if l.AcceptCfg(root) {
			return []string{root}, nil
		}
		return nil, nil
	}

	var out []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if l.AcceptCfg(path) {
			out = append(out, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("filter: walk %s: %w", root, err)
	}
	sort.Strings(out)
	return out, nil
}
