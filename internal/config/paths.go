package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// ErrDataFileNotFound is returned when none of the candidate dataset files exist.
var ErrDataFileNotFound = errors.New("dataset file not found")

// searchDirs returns the directories a relative dataset file is looked up in:
// the configured data directory, the working directory, then the executable's
// directory and its data subdirectory.
func (d DatasetConfig) searchDirs() []string {
	dirs := []string{}
	if d.DataDir != "" {
		dirs = append(dirs, d.DataDir)
	}
	dirs = append(dirs, ".")

	if exe, err := os.Executable(); err == nil {
		if resolved, err := filepath.EvalSymlinks(exe); err == nil {
			exe = resolved
		}
		exeDir := filepath.Dir(exe)
		dirs = append(dirs, exeDir, filepath.Join(exeDir, DefaultDataDirName))
	}
	return dirs
}

// DefaultDataDirName is the data directory name next to the executable.
const DefaultDataDirName = "data"

// ResolveFile finds name in the search directories. Absolute paths are
// returned as-is when they exist.
func (d DatasetConfig) ResolveFile(name string) (string, error) {
	if filepath.IsAbs(name) {
		if _, err := os.Stat(name); err != nil {
			return "", fmt.Errorf("%w: %s", ErrDataFileNotFound, name)
		}
		return name, nil
	}

	for _, dir := range d.searchDirs() {
		candidate := filepath.Join(dir, name)
		info, err := os.Stat(candidate)
		if err == nil && !info.IsDir() {
			return candidate, nil
		}
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			slog.Default().Debug("skipping dataset candidate",
				slog.String("path", candidate),
				slog.String("error", err.Error()))
		}
	}

	return "", fmt.Errorf("%w: %s", ErrDataFileNotFound, name)
}

// ResolveFiles resolves every configured file, keeping the configured order.
// Files that cannot be found are returned in missing.
func (d DatasetConfig) ResolveFiles() (found []string, missing []string) {
	for _, name := range d.Files {
		path, err := d.ResolveFile(name)
		if err != nil {
			missing = append(missing, name)
			continue
		}
		found = append(found, path)
	}
	return found, missing
}
