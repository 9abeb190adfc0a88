// Package workspace restricts which local files tools may hand to the
// browser. A Guard holds a set of root directories; a path is admitted when
// it resolves, symlinks included, to one of the roots or somewhere below.
package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrOutsideWorkspace is returned for paths that escape every root.
var ErrOutsideWorkspace = errors.New("path is outside the allowed directories")

// Guard enforces root directory boundaries on file paths. A Guard without
// roots admits every path.
type Guard struct {
	roots []string // absolute, symlink-evaluated
}

// NewGuard creates a guard over roots. Roots that do not exist yet are
// resolved through their nearest existing parent.
func NewGuard(roots ...string) (*Guard, error) {
	g := &Guard{}
	for _, root := range roots {
		if root == "" {
			return nil, errors.New("root directory cannot be empty")
		}
		expanded, err := expandHome(root)
		if err != nil {
			return nil, err
		}
		absPath, err := filepath.Abs(expanded)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve root directory %s: %w", root, err)
		}
		g.addRoot(resolveSymlinks(absPath))
	}
	return g, nil
}

func (g *Guard) addRoot(root string) {
	for _, existing := range g.roots {
		if existing == root {
			return
		}
	}
	g.roots = append(g.roots, root)
}

// Restricted reports whether the guard has any roots.
func (g *Guard) Restricted() bool {
	return len(g.roots) > 0
}

// Roots returns a copy of the resolved root directories.
func (g *Guard) Roots() []string {
	return append([]string(nil), g.roots...)
}

// Resolve expands ~, makes path absolute and evaluates symlinks. It returns
// ErrOutsideWorkspace when the result lies outside every root.
func (g *Guard) Resolve(path string) (string, error) {
	if path == "" {
		return "", errors.New("path cannot be empty")
	}

	expanded, err := expandHome(path)
	if err != nil {
		return "", err
	}
	absPath, err := filepath.Abs(expanded)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	if !g.Restricted() {
		return absPath, nil
	}

	resolved := resolveSymlinks(absPath)
	if !g.contains(resolved) {
		return "", fmt.Errorf("%s: %w", path, ErrOutsideWorkspace)
	}
	return resolved, nil
}

// Check is Resolve without the resolved path.
func (g *Guard) Check(path string) error {
	_, err := g.Resolve(path)
	return err
}

func (g *Guard) contains(resolved string) bool {
	for _, root := range g.roots {
		if resolved == root || strings.HasPrefix(resolved, root+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to expand ~: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path[1:], "/")), nil
}

// resolveSymlinks evaluates symlinks in path. For a path that does not
// exist, the nearest existing parent is evaluated and the missing
// components are appended.
func resolveSymlinks(path string) string {
	var missing []string
	current := path
	for {
		if resolved, err := filepath.EvalSymlinks(current); err == nil {
			for i := len(missing) - 1; i >= 0; i-- {
				resolved = filepath.Join(resolved, missing[i])
			}
			return resolved
		}

		dir := filepath.Dir(current)
		if dir == current {
			return filepath.Clean(path)
		}
		missing = append(missing, filepath.Base(current))
		current = dir
	}
}
