package collections

import (
	"contractkit/storage"
)

// Mapping is a persistent map. Only the namespace lives in the contract
// snapshot; entries are written to the store immediately.
type Mapping[K comparable, V any] struct {
	Namespace Namespace `json:"state_id"`
}

func NewMapping[K comparable, V any](ns Namespace) Mapping[K, V] {
	return Mapping[K, V]{Namespace: ns}
}

func (m Mapping[K, V]) Insert(store storage.KeyedStore, key K, value V) error {
	k, err := KeyOf(m.Namespace, key)
	if err != nil {
		return err
	}
	raw, err := encodeValue(value)
	if err != nil {
		return err
	}
	return store.Write(k, raw)
}

// Lookup returns the stored value and whether it was present.
func (m Mapping[K, V]) Lookup(store storage.KeyedStore, key K) (V, bool, error) {
	var zero V
	k, err := KeyOf(m.Namespace, key)
	if err != nil {
		return zero, false, err
	}
	raw, found, err := store.Read(k)
	if err != nil || !found {
		return zero, false, err
	}
	v, err := decodeValue[V](raw)
	if err != nil {
		return zero, false, err
	}
	return v, true, nil
}

// Get returns the stored value, or the zero value when the key is absent.
// Use Contains or Lookup when absence matters.
func (m Mapping[K, V]) Get(store storage.KeyedStore, key K) (V, error) {
	v, _, err := m.Lookup(store, key)
	return v, err
}

func (m Mapping[K, V]) Contains(store storage.KeyedStore, key K) (bool, error) {
	k, err := KeyOf(m.Namespace, key)
	if err != nil {
		return false, err
	}
	_, found, err := store.Read(k)
	return found, err
}

// Remove deletes key and returns its prior value, or the zero value when the
// key was absent.
func (m Mapping[K, V]) Remove(store storage.KeyedStore, key K) (V, error) {
	v, _, err := m.take(store, key)
	return v, err
}

func (m Mapping[K, V]) take(store storage.KeyedStore, key K) (V, bool, error) {
	var zero V
	k, err := KeyOf(m.Namespace, key)
	if err != nil {
		return zero, false, err
	}
	raw, found, err := store.Delete(k)
	if err != nil || !found {
		return zero, false, err
	}
	v, err := decodeValue[V](raw)
	if err != nil {
		return zero, true, err
	}
	return v, true, nil
}
