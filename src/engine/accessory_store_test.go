package engine

import (
	"context"
	"errors"
	"testing"

	"shopfront/src/models"
	"shopfront/src/settings"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type storeOpener func(t *testing.T, dir string) AccessoryStore

func openBundleStore(t *testing.T, dir string) AccessoryStore {
	store, err := NewBundleStore(dir, zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)
	return store
}

func openSQLiteStore(t *testing.T, dir string) AccessoryStore {
	store, err := NewSQLiteStore(dir, zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)
	return store
}

func TestBundleStorageEngine(t *testing.T) {
	runAccessoryStoreTests(t, openBundleStore)
}

func TestSQLiteStorageEngine(t *testing.T) {
	runAccessoryStoreTests(t, openSQLiteStore)
}

func runAccessoryStoreTests(t *testing.T, open storeOpener) {
	ctx := context.Background()
	coque := models.AccessoryInput{Name: "Coque iPhone 14", Color: "Noir", InStock: models.Bool(true)}
	chargeur := models.AccessoryInput{Name: "Chargeur Samsung", Color: "Blanc", InStock: models.Bool(false)}
	ecouteurs := models.AccessoryInput{Name: "Écouteurs Bluetooth", Color: "Bleu"}

	t.Run("empty store", func(t *testing.T) {
		store := open(t, t.TempDir())
		defer store.Close()

		all, err := store.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)

		n, err := store.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, n)
	})

	t.Run("create assigns ascending ids", func(t *testing.T) {
		store := open(t, t.TempDir())
		defer store.Close()

		for i, in := range []models.AccessoryInput{coque, chargeur, ecouteurs} {
			acc, err := store.Create(ctx, in)
			require.NoError(t, err)
			assert.Equal(t, i+1, acc.ID)
			assert.Equal(t, in.Name, acc.Name)
		}

		all, err := store.List(ctx)
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, "Chargeur Samsung", all[1].Name)
		assert.Nil(t, all[2].InStock)
		require.NotNil(t, all[0].InStock)
		assert.True(t, *all[0].InStock)
	})

	t.Run("get and not found", func(t *testing.T) {
		store := open(t, t.TempDir())
		defer store.Close()

		_, err := store.Create(ctx, coque)
		require.NoError(t, err)

		acc, err := store.Get(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, coque.ToAccessory(1), *acc)

		_, err = store.Get(ctx, 99)
		assert.True(t, errors.Is(err, ErrAccessoryNotFound))
	})

	t.Run("update replaces fields and keeps position", func(t *testing.T) {
		store := open(t, t.TempDir())
		defer store.Close()

		for _, in := range []models.AccessoryInput{coque, chargeur, ecouteurs} {
			_, err := store.Create(ctx, in)
			require.NoError(t, err)
		}

		updated, err := store.Update(ctx, 2, models.AccessoryInput{Name: "Chargeur USB-C", Color: "Noir"})
		require.NoError(t, err)
		assert.Equal(t, 2, updated.ID)
		assert.Nil(t, updated.InStock)

		all, err := store.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2, 3}, ids(all))
		assert.Equal(t, "Chargeur USB-C", all[1].Name)
		assert.Nil(t, all[1].InStock)

		_, err = store.Update(ctx, 42, coque)
		assert.True(t, errors.Is(err, ErrAccessoryNotFound))
	})

	t.Run("delete and id reuse follows max plus one", func(t *testing.T) {
		store := open(t, t.TempDir())
		defer store.Close()

		for _, in := range []models.AccessoryInput{coque, chargeur, ecouteurs} {
			_, err := store.Create(ctx, in)
			require.NoError(t, err)
		}

		require.NoError(t, store.Delete(ctx, 1))
		assert.True(t, errors.Is(store.Delete(ctx, 1), ErrAccessoryNotFound))

		acc, err := store.Create(ctx, coque)
		require.NoError(t, err)
		assert.Equal(t, 4, acc.ID)

		all, err := store.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []int{2, 3, 4}, ids(all))
	})

	t.Run("data survives reopen", func(t *testing.T) {
		dir := t.TempDir()
		store := open(t, dir)
		_, err := store.Create(ctx, coque)
		require.NoError(t, err)
		_, err = store.Create(ctx, ecouteurs)
		require.NoError(t, err)
		require.NoError(t, store.Close())

		reopened := open(t, dir)
		defer reopened.Close()
		all, err := reopened.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []models.Accessory{coque.ToAccessory(1), ecouteurs.ToAccessory(2)}, all)
	})

	t.Run("second store on the same directory is refused", func(t *testing.T) {
		dir := t.TempDir()
		store := open(t, dir)

		_, err := NewBundleStore(dir, zaptest.NewLogger(t).Sugar())
		assert.True(t, errors.Is(err, ErrDataDirLocked))
		_, err = NewSQLiteStore(dir, zaptest.NewLogger(t).Sugar())
		assert.True(t, errors.Is(err, ErrDataDirLocked))

		require.NoError(t, store.Close())
		again := open(t, dir)
		require.NoError(t, again.Close())
	})

	t.Run("returned values are copies", func(t *testing.T) {
		store := open(t, t.TempDir())
		defer store.Close()

		_, err := store.Create(ctx, coque)
		require.NoError(t, err)

		acc, err := store.Get(ctx, 1)
		require.NoError(t, err)
		*acc.InStock = false
		acc.Name = "changed"

		again, err := store.Get(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, coque.ToAccessory(1), *again)
	})
}

func TestBundleStoreHonoursCancelledContext(t *testing.T) {
	store := openBundleStore(t, t.TempDir())
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Create(ctx, models.AccessoryInput{Name: "a", Color: "b"})
	assert.True(t, errors.Is(err, context.Canceled))

	n, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestBundleStoreClosed(t *testing.T) {
	store := openBundleStore(t, t.TempDir())
	require.NoError(t, store.Close())
	require.NoError(t, store.Close())

	_, err := store.List(context.Background())
	assert.Equal(t, ErrStoreClosed, err)
}

func TestNewAccessoryStoreSelectsEngine(t *testing.T) {
	logger := zaptest.NewLogger(t).Sugar()

	args := settings.Defaults()
	args.DataDir = t.TempDir()
	args.CacheTTLSeconds = 0
	store, err := NewAccessoryStore(args, logger)
	require.NoError(t, err)
	assert.IsType(t, &BundleStorageEngine{}, store)
	require.NoError(t, store.Close())

	args.StorageEngine = settings.StorageEngineSQLite
	args.CacheTTLSeconds = 30
	store, err = NewAccessoryStore(args, logger)
	require.NoError(t, err)
	cached, ok := store.(*CachedAccessoryStore)
	require.True(t, ok)
	assert.IsType(t, &SQLiteStorageEngine{}, cached.core)
	require.NoError(t, store.Close())

	args.StorageEngine = "csv"
	_, err = NewAccessoryStore(args, logger)
	assert.Error(t, err)
}

func ids(accessories []models.Accessory) []int {
	out := make([]int, len(accessories))
	for i, a := range accessories {
		out[i] = a.ID
	}
	return out
}
