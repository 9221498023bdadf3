package inventory

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ConfigSuffix is the required extension of candidate configuration files.
const ConfigSuffix = ".config"

// ConfigFiles lists the config files directly inside <configDir>/<hostname>/,
// sorted by name. A missing per-host directory is a skip condition for the
// caller, not an error: it yields an empty list.
func ConfigFiles(configDir, hostname string) ([]string, error) {
	dir := filepath.Join(configDir, hostname)

	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasSuffix(e.Name(), ConfigSuffix) {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}
