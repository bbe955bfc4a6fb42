package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]Database {
	t.Helper()
	dir := t.TempDir()

	level, err := NewLevelDB(filepath.Join(dir, "level"))
	require.NoError(t, err)
	bolt, err := NewBoltDB(filepath.Join(dir, "kv.bolt"), nil)
	require.NoError(t, err)
	sqlite, err := NewSQLiteDB(filepath.Join(dir, "kv.sqlite"))
	require.NoError(t, err)

	dbs := map[string]Database{
		"memory":  NewMemDB(),
		"leveldb": level,
		"bolt":    bolt,
		"sqlite":  sqlite,
	}
	t.Cleanup(func() {
		for _, db := range dbs {
			db.Close()
		}
	})
	return dbs
}

func TestDatabaseBackends(t *testing.T) {
	for name, db := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := db.Get([]byte("missing"))
			require.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, db.Put([]byte("a/1"), []byte("one")))
			require.NoError(t, db.Put([]byte("a/2"), []byte("two")))
			require.NoError(t, db.Put([]byte("b/1"), []byte("other")))

			got, err := db.Get([]byte("a/1"))
			require.NoError(t, err)
			require.Equal(t, []byte("one"), got)

			has, err := db.Has([]byte("a/2"))
			require.NoError(t, err)
			require.True(t, has)

			keys, err := db.(Iterable).KeysWithPrefix([]byte("a/"))
			require.NoError(t, err)
			require.Equal(t, [][]byte{[]byte("a/1"), []byte("a/2")}, keys)

			require.NoError(t, db.Delete([]byte("a/1")))
			require.NoError(t, db.Delete([]byte("never-written")))
			has, err = db.Has([]byte("a/1"))
			require.NoError(t, err)
			require.False(t, has)
		})
	}
}

func TestLevelDBReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "level")
	db, err := NewLevelDB(path)
	require.NoError(t, err)
	require.NoError(t, db.Put([]byte("k"), []byte("v")))
	db.Close()

	db, err = NewLevelDB(path)
	require.NoError(t, err)
	defer db.Close()
	got, err := db.Get([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("v"), got)
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := Open("redis", "")
	require.Error(t, err)

	db, err := Open("memory", "")
	require.NoError(t, err)
	require.IsType(t, &MemDB{}, db)
}
