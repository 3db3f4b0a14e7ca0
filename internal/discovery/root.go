// Package discovery resolves the on-disk layout of a session log
// store: its root directory, the projects and sessions beneath it,
// and which sessions are subagents of another.
package discovery

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrNotFound         = errors.New("discovery: root not found")
	ErrPermissionDenied = errors.New("discovery: permission denied")
	ErrUnreadableRoot   = errors.New("discovery: root unreadable")
)

// DefaultSubdir is the conventional subdirectory of the user's home
// directory holding session logs, mirroring the teacher's layout.
const DefaultSubdir = ".config/snatch/projects"

// ResolveRoot returns the log store root: explicit if non-empty,
// otherwise the platform default under the user's home directory.
// WSL-style "/mnt/<drive>/..." paths are passed through unchanged —
// translation, if any, is the caller's concern.
func ResolveRoot(explicit string) (string, error) {
	root := explicit
	if root == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("discovery: resolve home: %w", err)
		}
		root = filepath.Join(home, filepath.FromSlash(DefaultSubdir))
	}
	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, root)
		}
		if os.IsPermission(err) {
			return "", fmt.Errorf("%w: %s", ErrPermissionDenied, root)
		}
		return "", fmt.Errorf("%w: %s: %v", ErrUnreadableRoot, root, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s is not a directory", ErrNotFound, root)
	}
	return root, nil
}

// isContainedIn reports whether candidate resolves to a path inside
// root, refusing to follow a symlink that would otherwise escape it.
func isContainedIn(root, candidate string) bool {
	rel, err := filepath.Rel(root, candidate)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
