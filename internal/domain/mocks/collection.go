package mocks

import "context"

// CollectionManager is a mock of the card index collection lifecycle.
type CollectionManager struct {
	// EnsureErrs are returned by successive EnsureCollection calls; once
	// exhausted, EnsureErr is returned.
	EnsureErrs []error
	EnsureErr  error
	DeleteErr  error

	// Call tracking
	EnsureCollectionCallCount int
	DeleteCollectionCallCount int
	VectorSizes               []uint64
}

// EnsureCollection records the requested vector size and returns the next configured error.
func (m *CollectionManager) EnsureCollection(ctx context.Context, vectorSize uint64) error {
	m.EnsureCollectionCallCount++
	m.VectorSizes = append(m.VectorSizes, vectorSize)
	if len(m.EnsureErrs) > 0 {
		err := m.EnsureErrs[0]
		m.EnsureErrs = m.EnsureErrs[1:]
		return err
	}
	return m.EnsureErr
}

// DeleteCollection drops every indexed card; it returns the configured error.
func (m *CollectionManager) DeleteCollection(ctx context.Context) error {
	m.DeleteCollectionCallCount++
	return m.DeleteErr
}
