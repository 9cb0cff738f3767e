package repository

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/m-mizutani/alacbot/pkg/model"
	"github.com/m-mizutani/alacbot/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// jsonlRepo implements Repository with newline-delimited JSON files, one
// per (userID, category) pair, under a single directory. It assumes a
// single writing process; concurrent multi-process access to the same
// directory is not supported.
type jsonlRepo struct {
	dir string

	// serializes appends so records never interleave under concurrent
	// writers within the process
	mu sync.Mutex
}

// NewJSONL creates a JSONL-backed repository rooted at dir, creating the
// directory if needed.
func NewJSONL(dir string) (Repository, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, goerr.Wrap(err, "failed to create memory directory", goerr.V("dir", dir))
	}
	return &jsonlRepo{dir: dir}, nil
}

func (r *jsonlRepo) path(userID string, category model.Category) string {
	return filepath.Join(r.dir, userID+"-"+string(category)+".jsonl")
}

func (r *jsonlRepo) Append(ctx context.Context, entry *model.MemoryEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return goerr.Wrap(err, "failed to marshal memory entry", goerr.V("id", entry.ID))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	path := r.path(entry.UserID, entry.Category)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return goerr.Wrap(err, "failed to open memory log", goerr.V("path", path))
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return goerr.Wrap(err, "failed to append memory entry", goerr.V("path", path))
	}

	return nil
}

func (r *jsonlRepo) Load(ctx context.Context, userID string, category model.Category) ([]*model.MemoryEntry, error) {
	path := r.path(userID, category)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, goerr.Wrap(err, "failed to read memory log", goerr.V("path", path))
	}

	var entries []*model.MemoryEntry
	for i, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}

		var entry model.MemoryEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			// A broken record should not lose the rest of the stream
			logging.From(ctx).Warn("skipping malformed memory record",
				"path", path,
				"line", i+1,
				"error", err,
			)
			continue
		}
		entries = append(entries, &entry)
	}

	return entries, nil
}

func (r *jsonlRepo) Delete(ctx context.Context, userID string, category model.Category) error {
	path := r.path(userID, category)
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return goerr.Wrap(err, "failed to delete memory log", goerr.V("path", path))
	}
	return nil
}
