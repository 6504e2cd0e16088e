package chip

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestParseAddress checks combined and pre-split address forms.
func TestParseAddress(t *testing.T) {
	t.Parallel()

	a, err := ParseAddress("127.0.1.1:3485")
	require.NoError(t, err)
	require.Equal(t, Address{Host: "127.0.1.1", Port: 3485}, a)
	require.Equal(t, "127.0.1.1:3485", a.String())
	require.Equal(t, "127.0.1.1:3485", a.ListenAddress())

	b, err := NewAddress("127.0.1.1", "3485")
	require.NoError(t, err)
	require.Equal(t, a, b)

	wildcard, err := ParseAddress("*:5556")
	require.NoError(t, err)
	require.Equal(t, ":5556", wildcard.ListenAddress())
	require.Equal(t, "*:5556", wildcard.String())

	for _, bad := range []string{"", "localhost", "host:port", "host:70000", "host:-1"} {
		_, err = ParseAddress(bad)
		require.ErrorIs(t, err, ErrInvalidAddress, bad)
	}
}

// TestResponses checks the success and failure constructors.
func TestResponses(t *testing.T) {
	t.Parallel()

	ok := Succeeded(CommandGet, 2.0)
	require.True(t, ok.Success)
	require.Equal(t, "Successfully executed : GET", ok.Message)

	failed := Failed(ErrKeyNotFound)
	require.False(t, failed.Success)
	require.Equal(t, map[string]any{}, failed.Result)
	require.Equal(t, "key not found", failed.Message)
}
