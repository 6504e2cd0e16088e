package chip

import (
	"fmt"
	"slices"
	"sort"
)

const (
	// KeyAddress is the reserved key holding the server bind address.
	KeyAddress = "address"
	// KeyIndex is the reserved key listing every key present in the store.
	KeyIndex = "keys"
)

// Store holds chip parameters supplied by remote clients.
// It is not safe for concurrent use; callers serialize access.
type Store struct {
	// values maps user keys to their JSON-compatible values.
	values map[string]any
	// address is the value served under KeyAddress.
	address string
	// index lists user keys in insertion order.
	index []string
}

// NewStore creates a store seeded with the reserved keys.
func NewStore(address Address) *Store {
	return &Store{
		values:  make(map[string]any),
		address: address.String(),
	}
}

// IsReserved reports whether key is one of the reserved sentinel keys.
func IsReserved(key string) bool {
	return key == KeyAddress || key == KeyIndex
}

// Keys returns the index: reserved keys first, then user keys in insertion order.
func (s *Store) Keys() []string {
	keys := make([]string, 0, len(s.index)+2)
	keys = append(keys, KeyAddress, KeyIndex)

	return append(keys, s.index...)
}

// Len returns the number of user keys.
func (s *Store) Len() int {
	return len(s.index)
}

// Get returns the value stored under key.
// KeyAddress yields the bind address as a "host:port" string.
func (s *Store) Get(key string) (any, error) {
	switch key {
	case KeyAddress:
		return s.address, nil
	case KeyIndex:
		keys := s.Keys()
		list := make([]any, len(keys))

		for i, k := range keys {
			list[i] = k
		}

		return list, nil
	}

	value, ok := s.values[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s, use POST", ErrKeyNotFound, key)
	}

	return value, nil
}

// Put overwrites existing keys. Either every key is updated or none is.
func (s *Store) Put(info map[string]any) error {
	for _, key := range sortedKeys(info) {
		if IsReserved(key) {
			return fmt.Errorf("%w: %s", ErrReservedKey, key)
		}

		if _, ok := s.values[key]; !ok {
			return fmt.Errorf("%w: %s, use POST", ErrKeyNotFound, key)
		}
	}

	for key, value := range info {
		s.values[key] = value
	}

	return nil
}

// Post inserts new keys and appends them to the index in sorted order.
// Either every key is inserted or none is.
func (s *Store) Post(info map[string]any) error {
	keys := sortedKeys(info)

	for _, key := range keys {
		if _, ok := s.values[key]; ok || IsReserved(key) {
			return fmt.Errorf("%w: %s, use PUT", ErrDuplicateKey, key)
		}
	}

	for _, key := range keys {
		s.values[key] = info[key]
	}

	s.index = append(s.index, keys...)

	return nil
}

// Delete removes key and its index entry.
func (s *Store) Delete(key string) error {
	if IsReserved(key) {
		return fmt.Errorf("%w: %s", ErrReservedKey, key)
	}

	if _, ok := s.values[key]; !ok {
		return fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	}

	delete(s.values, key)

	s.index = slices.DeleteFunc(s.index, func(k string) bool { return k == key })

	return nil
}

// sortedKeys returns the keys of info in lexical order so error reports and
// index appends are deterministic.
func sortedKeys(info map[string]any) []string {
	keys := make([]string, 0, len(info))
	for key := range info {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}
