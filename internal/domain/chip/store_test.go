package chip

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// newTestStore returns a store bound to a fixed address.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	address, err := ParseAddress("*:5556")
	require.NoError(t, err)

	return NewStore(address)
}

// TestStore_Seed verifies the reserved keys of a fresh store.
func TestStore_Seed(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)

	keys, err := s.Get(KeyIndex)
	require.NoError(t, err)
	require.Equal(t, []any{"address", "keys"}, keys)

	address, err := s.Get(KeyAddress)
	require.NoError(t, err)
	require.Equal(t, "*:5556", address)
	require.Zero(t, s.Len())
}

// TestStore_PostGetPutDelete walks a key through its whole lifecycle.
func TestStore_PostGetPutDelete(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)

	require.NoError(t, s.Post(map[string]any{"value": 0.0}))

	value, err := s.Get("value")
	require.NoError(t, err)
	require.Equal(t, 0.0, value)
	require.Contains(t, s.Keys(), "value")

	require.ErrorIs(t, s.Post(map[string]any{"value": 0.0}), ErrDuplicateKey)

	require.NoError(t, s.Put(map[string]any{"value": 2.0}))

	value, err = s.Get("value")
	require.NoError(t, err)
	require.Equal(t, 2.0, value)

	require.ErrorIs(t, s.Put(map[string]any{"param": 2.0}), ErrKeyNotFound)

	require.NoError(t, s.Delete("value"))

	_, err = s.Get("value")
	require.ErrorIs(t, err, ErrKeyNotFound)
	require.NotContains(t, s.Keys(), "value")
	require.ErrorIs(t, s.Delete("value"), ErrKeyNotFound)
}

// TestStore_AllOrNothing verifies that a partially invalid PUT or POST changes nothing.
func TestStore_AllOrNothing(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	require.NoError(t, s.Post(map[string]any{"gain": 1.0}))

	err := s.Put(map[string]any{"gain": 5.0, "missing": 1.0})
	require.ErrorIs(t, err, ErrKeyNotFound)

	gain, err := s.Get("gain")
	require.NoError(t, err)
	require.Equal(t, 1.0, gain)

	err = s.Post(map[string]any{"bias": 3.0, "gain": 9.0})
	require.ErrorIs(t, err, ErrDuplicateKey)

	_, err = s.Get("bias")
	require.ErrorIs(t, err, ErrKeyNotFound)
	require.Equal(t, []string{"address", "keys", "gain"}, s.Keys())
}

// TestStore_ReservedKeys verifies the sentinel keys cannot be modified.
func TestStore_ReservedKeys(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)

	require.ErrorIs(t, s.Put(map[string]any{KeyAddress: "elsewhere:1"}), ErrReservedKey)
	require.ErrorIs(t, s.Put(map[string]any{KeyIndex: []any{}}), ErrReservedKey)
	require.ErrorIs(t, s.Post(map[string]any{KeyIndex: []any{}}), ErrDuplicateKey)
	require.ErrorIs(t, s.Delete(KeyAddress), ErrReservedKey)
	require.ErrorIs(t, s.Delete(KeyIndex), ErrReservedKey)
	require.Equal(t, []string{"address", "keys"}, s.Keys())
}

// TestStore_PostAppendsSorted verifies multi-key POSTs extend the index deterministically.
func TestStore_PostAppendsSorted(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	require.NoError(t, s.Post(map[string]any{"zeta": 1.0}))
	require.NoError(t, s.Post(map[string]any{"gamma": 1.0, "alpha": 2.0}))

	require.Equal(t, []string{"address", "keys", "zeta", "alpha", "gamma"}, s.Keys())
}
