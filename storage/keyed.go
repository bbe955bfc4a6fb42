package storage

import (
	"errors"
	"fmt"
)

var (
	// ErrPrefixReadUnsupported is returned by every ReadByPrefix call. Bulk
	// reads are not part of the collection contract.
	ErrPrefixReadUnsupported = errors.New("storage: prefix read not supported")
	// ErrReadOnly is returned when a write reaches a store opened for queries.
	ErrReadOnly = errors.New("storage: store is read-only")
)

// KeyedStore is the store a contract sees: byte-keyed reads, writes and
// deletes that report whether the key existed.
type KeyedStore interface {
	// Read returns the stored value and whether the key was present.
	Read(key []byte) ([]byte, bool, error)
	Write(key []byte, value []byte) error
	// Delete removes key and returns the prior value when it existed.
	Delete(key []byte) ([]byte, bool, error)
	// ReadByPrefix is a placeholder. Callers must not rely on it.
	ReadByPrefix(prefix []byte) ([]byte, bool, error)
}

// prefixedStore maps a KeyedStore onto a slice of a Database key space.
type prefixedStore struct {
	db     Database
	prefix []byte
}

// Prefixed isolates a KeyedStore under prefix so that several contracts can
// share one Database without collisions.
func Prefixed(db Database, prefix string) KeyedStore {
	return &prefixedStore{db: db, prefix: []byte(prefix)}
}

func (s *prefixedStore) physical(key []byte) []byte {
	out := make([]byte, 0, len(s.prefix)+len(key))
	out = append(out, s.prefix...)
	return append(out, key...)
}

func (s *prefixedStore) Read(key []byte) ([]byte, bool, error) {
	value, err := s.db.Get(s.physical(key))
	if errors.Is(err, ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("storage: read %q: %w", key, err)
	}
	return value, true, nil
}

func (s *prefixedStore) Write(key []byte, value []byte) error {
	if err := s.db.Put(s.physical(key), value); err != nil {
		return fmt.Errorf("storage: write %q: %w", key, err)
	}
	return nil
}

func (s *prefixedStore) Delete(key []byte) ([]byte, bool, error) {
	prior, found, err := s.Read(key)
	if err != nil || !found {
		return nil, false, err
	}
	if err := s.db.Delete(s.physical(key)); err != nil {
		return nil, false, fmt.Errorf("storage: delete %q: %w", key, err)
	}
	return prior, true, nil
}

func (s *prefixedStore) ReadByPrefix([]byte) ([]byte, bool, error) {
	return nil, false, ErrPrefixReadUnsupported
}

type readOnlyStore struct {
	inner KeyedStore
}

// ReadOnly wraps ks so that reads pass through and every mutation fails with
// ErrReadOnly.
func ReadOnly(ks KeyedStore) KeyedStore {
	if ro, ok := ks.(*readOnlyStore); ok {
		return ro
	}
	return &readOnlyStore{inner: ks}
}

func (s *readOnlyStore) Read(key []byte) ([]byte, bool, error) { return s.inner.Read(key) }

func (s *readOnlyStore) Write([]byte, []byte) error { return ErrReadOnly }

func (s *readOnlyStore) Delete([]byte) ([]byte, bool, error) { return nil, false, ErrReadOnly }

func (s *readOnlyStore) ReadByPrefix(prefix []byte) ([]byte, bool, error) {
	return s.inner.ReadByPrefix(prefix)
}

// IsReadOnly reports whether ks rejects writes.
func IsReadOnly(ks KeyedStore) bool {
	_, ok := ks.(*readOnlyStore)
	return ok
}

// Open creates the backend named by kind. Path is ignored for "memory".
func Open(kind, path string) (Database, error) {
	switch kind {
	case "", "memory":
		return NewMemDB(), nil
	case "leveldb":
		return NewLevelDB(path)
	case "bolt":
		return NewBoltDB(path, nil)
	case "sqlite":
		return NewSQLiteDB(path)
	default:
		return nil, fmt.Errorf("storage: unknown backend %q", kind)
	}
}
