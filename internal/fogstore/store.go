// Package fogstore abstracts the persistent fog-of-war document store: one
// blob per scene holding the explored texture and a timestamp.
package fogstore

import (
	"context"
	"fmt"
)

// ErrStoreFailure wraps transport or backend faults; callers retry on the
// next debounced save.
var ErrStoreFailure = fmt.Errorf("fog store failure")

// Blob is the persistent fog document for one scene. Explored is a base64
// encoded single-channel image (WebP or PNG).
type Blob struct {
	Explored  string `json:"explored"`
	Timestamp int64  `json:"timestamp"`
}

// Store reads and writes per-scene fog blobs and delivers server-originated
// reset notifications.
type Store interface {
	// Get returns the stored blob, or nil when the scene has no fog yet.
	Get(ctx context.Context, sceneID string) (*Blob, error)
	// Put replaces the stored blob.
	Put(ctx context.Context, sceneID string, blob *Blob) error
	// OnReset registers a handler invoked when the scene's fog is reset by
	// the server. Handlers run on the notifier's goroutine.
	OnReset(sceneID string, fn func())
}
