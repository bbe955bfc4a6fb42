package applets

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	for _, name := range Names() {
		c, ok := Lookup(name)
		require.True(t, ok, name)
		require.NoError(t, c.Validate(), name)
	}
	_, ok := Lookup("missing")
	require.False(t, ok)
	require.Contains(t, Names(), "xpod_first")
}
