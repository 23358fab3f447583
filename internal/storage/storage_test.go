package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pos_sales/internal/config"
)

type record struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func newStores(t *testing.T) map[string]Store {
	t.Helper()
	ctx := context.Background()

	fileStore, err := NewFileStore(filepath.Join(t.TempDir(), "nested", "snapshots.json"))
	require.NoError(t, err)

	sqlStore, err := NewSQLStore(ctx, "sqlite", "file:"+filepath.Join(t.TempDir(), "kv.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqlStore.Close() })

	mr := miniredis.RunT(t)
	redisStore, err := NewRedisStore(ctx, "redis://"+mr.Addr(), "pos")
	require.NoError(t, err)
	t.Cleanup(func() { redisStore.Close() })

	return map[string]Store{
		"memory": NewMemoryStore(),
		"file":   fileStore,
		"sqlite": sqlStore,
		"redis":  redisStore,
	}
}

func TestStores_LoadSaveDelete(t *testing.T) {
	ctx := context.Background()

	for name, store := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			var got []record
			found, err := store.Load(ctx, KeyProducts, &got)
			require.NoError(t, err)
			assert.False(t, found, "absent key should report not found")
			assert.Nil(t, got)

			want := []record{{ID: "1", Name: "Yarn"}, {ID: "2", Name: "Hook"}}
			require.NoError(t, store.Save(ctx, KeyProducts, want))

			found, err = store.Load(ctx, KeyProducts, &got)
			require.NoError(t, err)
			assert.True(t, found)
			assert.Equal(t, want, got)

			// last writer wins, whole snapshot replaced
			require.NoError(t, store.Save(ctx, KeyProducts, []record{{ID: "3", Name: "Needle"}}))
			got = nil
			_, err = store.Load(ctx, KeyProducts, &got)
			require.NoError(t, err)
			assert.Equal(t, []record{{ID: "3", Name: "Needle"}}, got)

			require.NoError(t, store.Delete(ctx, KeyProducts))
			found, err = store.Load(ctx, KeyProducts, &got)
			require.NoError(t, err)
			assert.False(t, found)
		})
	}
}

func TestStores_EmptyKey(t *testing.T) {
	ctx := context.Background()

	for name, store := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			err := store.Save(ctx, "", []record{})
			assert.ErrorIs(t, err, ErrEmptyKey)

			var got []record
			_, err = store.Load(ctx, "", &got)
			assert.ErrorIs(t, err, ErrEmptyKey)
		})
	}
}

func TestStores_KeysAreIndependent(t *testing.T) {
	ctx := context.Background()

	for name, store := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Save(ctx, KeySales, []record{{ID: "s1"}}))
			require.NoError(t, store.Save(ctx, KeyPendingSales, []record{{ID: "p1"}, {ID: "p2"}}))

			var sales, pending []record
			_, err := store.Load(ctx, KeySales, &sales)
			require.NoError(t, err)
			_, err = store.Load(ctx, KeyPendingSales, &pending)
			require.NoError(t, err)

			assert.Len(t, sales, 1)
			assert.Len(t, pending, 2)
		})
	}
}

func TestMemoryStore_CorruptSnapshot(t *testing.T) {
	store := NewMemoryStore()
	store.Put(KeySales, []byte(`{"not":"an array"`))

	var got []record
	_, err := store.Load(context.Background(), KeySales, &got)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshots.json")
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o600))

	store, err := NewFileStore(path)
	require.NoError(t, err)

	var got []record
	_, err = store.Load(context.Background(), KeySales, &got)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestFileStore_PersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "snapshots.json")

	first, err := NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, first.Save(ctx, KeyUsers, []record{{ID: "u1", Name: "Ana"}}))

	second, err := NewFileStore(path)
	require.NoError(t, err)

	var got []record
	found, err := second.Load(ctx, KeyUsers, &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []record{{ID: "u1", Name: "Ana"}}, got)
}

func TestCollection_LoadEmptyAndSave(t *testing.T) {
	ctx := context.Background()
	coll := NewCollection[record](NewMemoryStore(), KeyTempUsers)

	items, err := coll.Load(ctx)
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)

	require.NoError(t, coll.Save(ctx, nil))
	items, err = coll.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)

	require.NoError(t, coll.Save(ctx, []record{{ID: "t1"}}))
	items, err = coll.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []record{{ID: "t1"}}, items)
	assert.Equal(t, KeyTempUsers, coll.Key())
}

func TestRedisStore_KeyPrefix(t *testing.T) {
	assert.Equal(t, "pos:sales", (&RedisStore{prefix: "pos"}).redisKey(KeySales))
	assert.Equal(t, "sales", (&RedisStore{}).redisKey(KeySales))

	ctx := context.Background()
	mr := miniredis.RunT(t)
	store := NewRedisStoreFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "pos")
	t.Cleanup(func() { store.Close() })

	require.NoError(t, store.Save(ctx, KeySales, []record{{ID: "s1"}}))
	raw, err := mr.Get("pos:sales")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"s1","name":""}]`, raw)
	assert.False(t, mr.Exists("sales"))
}

func TestRedisStore_CorruptSnapshot(t *testing.T) {
	mr := miniredis.RunT(t)
	require.NoError(t, mr.Set("pos:sales", "{broken"))

	store := NewRedisStoreFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "pos")
	t.Cleanup(func() { store.Close() })

	var got []record
	_, err := store.Load(context.Background(), KeySales, &got)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestRedisStore_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisStore(context.Background(), "redis://"+addr, "")
	assert.Error(t, err)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	store, err := Open(ctx, config.StorageConfig{Driver: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)

	store, err = Open(ctx, config.StorageConfig{Driver: "file", Path: filepath.Join(t.TempDir(), "s.json")})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, store)

	_, err = Open(ctx, config.StorageConfig{Driver: "etcd"})
	assert.Error(t, err)
}
