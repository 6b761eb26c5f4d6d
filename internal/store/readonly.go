package store

import (
	"context"

	"github.com/amishk599/jobalert/internal/model"
)

// ReadOnlyStore is used in dry-run mode. Reads go to the wrapped store and
// writes are dropped, so every run sees the same SeenSets.
type ReadOnlyStore struct {
	inner model.StateStore
}

func NewReadOnlyStore(inner model.StateStore) *ReadOnlyStore { return &ReadOnlyStore{inner: inner} }

func (s *ReadOnlyStore) List(ctx context.Context, path string) ([]string, error) {
	return s.inner.List(ctx, path)
}

func (s *ReadOnlyStore) Read(ctx context.Context, key string) ([]string, bool, error) {
	return s.inner.Read(ctx, key)
}

func (s *ReadOnlyStore) Write(context.Context, string, []string) error { return nil }
