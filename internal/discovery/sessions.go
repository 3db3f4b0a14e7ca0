package discovery

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// FileInfo holds filesystem metadata for one discovered session file.
type FileInfo struct {
	Path  string
	Size  int64
	Mtime int64
}

// Project describes one project directory beneath the log store root.
type Project struct {
	EncodedName string
	Path        string
	DecodedPath string
}

// Session describes one session log file within a project.
type Session struct {
	ID        string
	Project   Project
	File      FileInfo
	IsSubagent bool
	ParentID   string // set when IsSubagent
}

var sessionIDRe = regexp.MustCompile(`^[0-9a-fA-F-]{8,}$`)

// IsValidSessionID reports whether name looks like a session UUID.
func IsValidSessionID(name string) bool {
	return sessionIDRe.MatchString(name)
}

// ListProjects enumerates every project directory directly beneath
// root, skipping entries that are not directories or that would
// resolve outside root via a symlink.
func ListProjects(root string) ([]Project, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("discovery: list projects: %w", err)
	}
	var out []Project
	for _, e := range entries {
		if !e.IsDir() && e.Type()&os.ModeSymlink == 0 {
			continue
		}
		full := filepath.Join(root, e.Name())
		if !isContainedIn(root, full) {
			continue
		}
		info, err := os.Stat(full)
		if err != nil || !info.IsDir() {
			continue
		}
		out = append(out, Project{
			EncodedName: e.Name(),
			Path:        full,
			DecodedPath: DecodeProjectID(e.Name()),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EncodedName < out[j].EncodedName })
	return out, nil
}

// ListSessions enumerates every *.jsonl session file directly inside
// project.Path, classifying subagent files named "agent-<id>.jsonl".
func ListSessions(project Project) ([]Session, error) {
	entries, err := os.ReadDir(project.Path)
	if err != nil {
		return nil, fmt.Errorf("discovery: list sessions: %w", err)
	}
	var out []Session
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".jsonl") {
			continue
		}
		base := strings.TrimSuffix(e.Name(), ".jsonl")
		info, err := e.Info()
		if err != nil {
			continue
		}
		full := filepath.Join(project.Path, e.Name())
		sess := Session{
			Project: project,
			File: FileInfo{
				Path:  full,
				Size:  info.Size(),
				Mtime: info.ModTime().Unix(),
			},
		}
		if strings.HasPrefix(base, "agent-") {
			sess.IsSubagent = true
			sess.ID = base
		} else {
			sess.ID = base
		}
		out = append(out, sess)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].File.Mtime < out[j].File.Mtime })
	return out, nil
}
