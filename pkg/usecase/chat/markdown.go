package chat

import (
	"fmt"
	"os"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

const sessionTimeFormat = "2006-01-02 15:04:05"

// Markdown renders the session transcript as a human-readable document.
func (s *Session) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Session %s\n\n", s.sessionID)
	fmt.Fprintf(&b, "**User**: %s\n", s.userID)
	fmt.Fprintf(&b, "**Started**: %s\n", s.startedAt.Format(sessionTimeFormat))
	fmt.Fprintf(&b, "**Messages**: %d\n\n", len(s.messages))

	for _, m := range s.messages {
		fmt.Fprintf(&b, "## %s (%s)\n\n", m.Role, m.At.Format(sessionTimeFormat))
		b.WriteString(m.Content + "\n\n")
	}

	return b.String()
}

// Save writes the session transcript into the workspace session directory.
func (s *Session) Save() error {
	if s.workspace == nil {
		return goerr.New("session has no workspace")
	}

	path := s.workspace.SessionPath(s.userID, s.sessionID)
	if err := os.WriteFile(path, []byte(s.Markdown()), 0644); err != nil {
		return goerr.Wrap(err, "failed to save session", goerr.V("path", path))
	}
	return nil
}

// Close saves the session transcript if a workspace is attached.
func (s *Session) Close() error {
	if s.workspace == nil {
		return nil
	}
	return s.Save()
}
