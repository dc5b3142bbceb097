// Package fsutil resolves user-supplied filesystem paths.
package fsutil

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ExpandHome expands a leading "~" or "~/" to the user's home directory.
// Other paths, including "~user", are returned unchanged.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home dir: %w", err)
	}
	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~/")), nil
}

// PathExists checks if the given path exists.
func PathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil || !errors.Is(err, os.ErrNotExist)
}

// ResolveExecutable returns the path of the installer binary. A path with a
// separator is home-expanded and must exist; a bare name is looked up on PATH.
func ResolveExecutable(path string) (string, error) {
	if path == "" {
		return "", errors.New("executable path is empty")
	}
	p, err := ExpandHome(path)
	if err != nil {
		return "", err
	}
	if !strings.ContainsRune(p, filepath.Separator) && !strings.ContainsRune(p, '/') {
		found, err := exec.LookPath(p)
		if err != nil {
			return "", fmt.Errorf("lookup %s: %w", p, err)
		}
		return found, nil
	}
	if !PathExists(p) {
		return "", fmt.Errorf("%s: %w", p, os.ErrNotExist)
	}
	fi, err := os.Stat(p)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", p, err)
	}
	if fi.IsDir() {
		return "", fmt.Errorf("%s is a directory", p)
	}
	return p, nil
}
