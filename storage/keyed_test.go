package storage

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPrefixedStoreIsolation(t *testing.T) {
	db := NewMemDB()
	alpha := Prefixed(db, "c/alpha/")
	beta := Prefixed(db, "c/beta/")

	require.NoError(t, alpha.Write([]byte("0_x"), []byte("1")))

	_, found, err := beta.Read([]byte("0_x"))
	require.NoError(t, err)
	require.False(t, found)

	value, found, err := alpha.Read([]byte("0_x"))
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, []byte("1"), value)

	raw, err := db.Get([]byte("c/alpha/0_x"))
	require.NoError(t, err)
	require.Equal(t, []byte("1"), raw)
}

func TestPrefixedDeleteReportsPrior(t *testing.T) {
	ks := Prefixed(NewMemDB(), "p/")

	prior, found, err := ks.Delete([]byte("k"))
	require.NoError(t, err)
	require.False(t, found)
	require.Nil(t, prior)

	require.NoError(t, ks.Write([]byte("k"), []byte("v")))
	prior, found, err = ks.Delete([]byte("k"))
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, []byte("v"), prior)

	_, found, err = ks.Read([]byte("k"))
	require.NoError(t, err)
	require.False(t, found)
}

func TestReadByPrefixUnsupported(t *testing.T) {
	ks := Prefixed(NewMemDB(), "")
	_, found, err := ks.ReadByPrefix([]byte("0_"))
	require.ErrorIs(t, err, ErrPrefixReadUnsupported)
	require.False(t, found)
}

func TestReadOnlyStore(t *testing.T) {
	inner := Prefixed(NewMemDB(), "")
	require.NoError(t, inner.Write([]byte("k"), []byte("v")))

	ro := ReadOnly(inner)
	require.True(t, IsReadOnly(ro))
	require.Same(t, ro, ReadOnly(ro))

	value, found, err := ro.Read([]byte("k"))
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, []byte("v"), value)

	require.ErrorIs(t, ro.Write([]byte("k"), []byte("w")), ErrReadOnly)
	_, _, err = ro.Delete([]byte("k"))
	require.ErrorIs(t, err, ErrReadOnly)

	value, _, err = inner.Read([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("v"), value)
}
