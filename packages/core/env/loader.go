package env

import (
	"errors"
	"io/fs"
	"path/filepath"
)

// DotEnvFiles are loaded by LoadDir in order; later files override earlier ones.
var DotEnvFiles = []string{".env", ".env.local"}

// LoadDir loads every file of DotEnvFiles that exists in dir. Missing files
// are not an error.
func LoadDir(dir string) (map[string]string, error) {
	var sources []map[string]string
	for _, name := range DotEnvFiles {
		vars, err := LoadDotEnv(filepath.Join(dir, name))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, err
		}
		sources = append(sources, vars)
	}
	return MergeVariables(sources...), nil
}

// MergeVariables merges sources left to right; later values win.
func MergeVariables(sources ...map[string]string) map[string]string {
	result := make(map[string]string)
	for _, src := range sources {
		for k, v := range src {
			result[k] = v
		}
	}
	return result
}
