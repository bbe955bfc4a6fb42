package collections

import (
	"contractkit/storage"
)

type unit struct{}

// Set is a persistent set built on a Mapping to unit values.
type Set[V comparable] struct {
	Inner Mapping[V, unit] `json:"map"`
}

func NewSet[V comparable](ns Namespace) Set[V] {
	return Set[V]{Inner: NewMapping[V, unit](ns)}
}

// Insert adds value. Inserting a present value is a no-op write.
func (s Set[V]) Insert(store storage.KeyedStore, value V) error {
	return s.Inner.Insert(store, value, unit{})
}

func (s Set[V]) Contains(store storage.KeyedStore, value V) (bool, error) {
	return s.Inner.Contains(store, value)
}

// Remove reports whether value was present.
func (s Set[V]) Remove(store storage.KeyedStore, value V) (bool, error) {
	_, found, err := s.Inner.take(store, value)
	return found, err
}
