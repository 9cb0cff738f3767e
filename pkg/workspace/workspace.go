// Package workspace manages the on-disk layout of the gateway: the config
// file, the memory log directory, and saved session documents.
package workspace

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

const (
	memoryDirName  = "memory"
	sessionDirName = "sessions"
)

type Workspace struct {
	root string
}

// New creates a workspace rooted at dir. Call Init before use.
func New(dir string) *Workspace {
	return &Workspace{root: dir}
}

// Init creates the workspace directory tree.
func (w *Workspace) Init() error {
	for _, dir := range []string{w.root, w.MemoryDir(), w.SessionDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return goerr.Wrap(err, "failed to create workspace directory", goerr.V("dir", dir))
		}
	}
	return nil
}

// Root returns the workspace root directory.
func (w *Workspace) Root() string {
	return w.root
}

// MemoryDir returns the directory holding the per-user memory logs.
func (w *Workspace) MemoryDir() string {
	return filepath.Join(w.root, memoryDirName)
}

// SessionDir returns the directory holding saved session documents.
func (w *Workspace) SessionDir() string {
	return filepath.Join(w.root, sessionDirName)
}

// SessionPath returns the file path for one saved session.
func (w *Workspace) SessionPath(userID, sessionID string) string {
	return filepath.Join(w.SessionDir(), userID+"-"+sessionID+".md")
}

// ListSessions returns the file names of saved sessions, sorted.
func (w *Workspace) ListSessions() ([]string, error) {
	files, err := os.ReadDir(w.SessionDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, goerr.Wrap(err, "failed to read session directory", goerr.V("dir", w.SessionDir()))
	}

	var names []string
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".md") {
			continue
		}
		names = append(names, f.Name())
	}
	sort.Strings(names)
	return names, nil
}
