package cache

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test-cache.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func Test_Key_deterministic(t *testing.T) {
	k1 := Key([]byte("func main() -> i32 { return 0; }"), []byte("i32"))
	k2 := Key([]byte("func main() -> i32 { return 0; }"), []byte("i32"))
	assert.Equal(t, k1, k2)
}

func Test_Key_differsOnConfig(t *testing.T) {
	src := []byte("func main() -> i32 { return 0; }")
	k1 := Key(src, []byte("i32"))
	k2 := Key(src, []byte("i64"))
	assert.NotEqual(t, k1, k2)
}

func Test_Store_missReturnsErrNotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Get(context.Background(), "nonexistent-key")
	assert.ErrorIs(t, err, ErrNotFound)
}

func Test_Store_putThenGet(t *testing.T) {
	s := openTestStore(t)
	key := Key([]byte("source"), []byte("i32"))

	err := s.Put(context.Background(), key, Record{
		ModuleText: "define i32 @main() {\nret i32 0\n}",
		Version:    "0.1.0",
	})
	require.NoError(t, err)

	rec, err := s.Get(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, "define i32 @main() {\nret i32 0\n}", rec.ModuleText)
	assert.Equal(t, "0.1.0", rec.Version)
	assert.NotEqual(t, "", rec.ID.String())
}

func Test_Store_putOverwritesExistingKey(t *testing.T) {
	s := openTestStore(t)
	key := Key([]byte("source"), []byte("i32"))

	require.NoError(t, s.Put(context.Background(), key, Record{ModuleText: "first"}))
	require.NoError(t, s.Put(context.Background(), key, Record{ModuleText: "second"}))

	rec, err := s.Get(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, "second", rec.ModuleText)
}
