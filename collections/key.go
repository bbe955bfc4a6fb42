// Package collections maps typed keys and indices onto a flat KeyedStore.
//
// Every collection owns a Namespace and derives physical keys as
// "<namespace>_<element>". String elements are used verbatim; everything else
// is JSON-encoded. Two collections of one contract must never share a
// namespace: nothing here detects the collision.
package collections

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Namespace selects one logical collection within a contract's key space.
type Namespace uint8

func (n Namespace) String() string { return strconv.FormatUint(uint64(n), 10) }

// Key derives the physical key for elem.
func (n Namespace) Key(elem string) []byte {
	return []byte(n.String() + "_" + elem)
}

// KeyOf derives the physical key for an arbitrary element key.
func KeyOf[K any](ns Namespace, key K) ([]byte, error) {
	if s, ok := any(key).(string); ok {
		return ns.Key(s), nil
	}
	encoded, err := json.Marshal(key)
	if err != nil {
		return nil, fmt.Errorf("collections: encode key: %w", err)
	}
	return ns.Key(string(encoded)), nil
}

func encodeValue[V any](v V) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("collections: encode value: %w", err)
	}
	return raw, nil
}

func decodeValue[V any](raw []byte) (V, error) {
	var v V
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, fmt.Errorf("collections: decode value: %w", err)
	}
	return v, nil
}
