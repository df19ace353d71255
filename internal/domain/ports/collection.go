package ports

import "context"

// CollectionManager handles the lifecycle of the similarity index collection.
// It is kept apart from CardIndex so the index can be used without the
// permission to create or drop collections.
type CollectionManager interface {
	// EnsureCollection creates the collection if it doesn't exist.
	EnsureCollection(ctx context.Context, vectorSize uint64) error

	// DeleteCollection removes the collection and all indexed cards.
	DeleteCollection(ctx context.Context) error
}
