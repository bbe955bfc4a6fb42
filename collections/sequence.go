package collections

import (
	"contractkit/storage"
)

// Sequence is a persistent vector. Its length is carried in the contract
// snapshot and is trusted over the store: indices at or beyond Len are never
// read.
type Sequence[T any] struct {
	Namespace Namespace `json:"state_id"`
	Len       uint64    `json:"len"`
}

func NewSequence[T any](ns Namespace) Sequence[T] {
	return Sequence[T]{Namespace: ns}
}

func (s *Sequence[T]) Size() uint64 { return s.Len }

func (s *Sequence[T]) indexKey(i int64) ([]byte, error) {
	return KeyOf(s.Namespace, i)
}

// Push writes item at index Len and then grows the sequence.
func (s *Sequence[T]) Push(store storage.KeyedStore, item T) error {
	k, err := s.indexKey(int64(s.Len))
	if err != nil {
		return err
	}
	raw, err := encodeValue(item)
	if err != nil {
		return err
	}
	if err := store.Write(k, raw); err != nil {
		return err
	}
	s.Len++
	return nil
}

// Pop removes the last item. On an empty sequence it deletes index -1, which
// never exists, and returns the zero value without changing Len.
func (s *Sequence[T]) Pop(store storage.KeyedStore) (T, error) {
	var zero T
	k, err := s.indexKey(int64(s.Len) - 1)
	if err != nil {
		return zero, err
	}
	raw, found, err := store.Delete(k)
	if err != nil || !found {
		return zero, err
	}
	s.Len--
	return decodeValue[T](raw)
}

// Get returns the item at i, or the zero value when i is out of range or the
// slot is missing.
func (s *Sequence[T]) Get(store storage.KeyedStore, i uint64) (T, error) {
	var zero T
	if i >= s.Len {
		return zero, nil
	}
	k, err := s.indexKey(int64(i))
	if err != nil {
		return zero, err
	}
	raw, found, err := store.Read(k)
	if err != nil || !found {
		return zero, err
	}
	return decodeValue[T](raw)
}

// Set overwrites the item at i. Writes with i >= Len are silently ignored.
func (s *Sequence[T]) Set(store storage.KeyedStore, i uint64, item T) error {
	if i >= s.Len {
		return nil
	}
	k, err := s.indexKey(int64(i))
	if err != nil {
		return err
	}
	raw, err := encodeValue(item)
	if err != nil {
		return err
	}
	return store.Write(k, raw)
}

// Values reads [0, Len) in order.
func (s *Sequence[T]) Values(store storage.KeyedStore) ([]T, error) {
	out := make([]T, 0, s.Len)
	for i := uint64(0); i < s.Len; i++ {
		v, err := s.Get(store, i)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
