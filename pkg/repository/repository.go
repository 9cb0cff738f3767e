package repository

import (
	"context"

	"github.com/m-mizutani/alacbot/pkg/model"
)

// Repository defines the interface for the durable memory log. One logical
// append-only stream exists per (userID, category) pair.
type Repository interface {
	// Append durably records one entry at the end of its stream
	Append(ctx context.Context, entry *model.MemoryEntry) error

	// Load reads a full stream in insertion order. A missing or empty
	// stream yields zero entries and no error.
	Load(ctx context.Context, userID string, category model.Category) ([]*model.MemoryEntry, error)

	// Delete removes a stream wholesale. Deleting a missing stream is not
	// an error.
	Delete(ctx context.Context, userID string, category model.Category) error
}
