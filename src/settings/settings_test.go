package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFileOverlaysOnlyGivenKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "shopfront.yaml")
	content := `
port: 9090
storage_engine: sqlite
cache_ttl_seconds: 0
users:
  - username: admin
    password: admin123
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	args := Defaults()
	require.NoError(t, LoadConfigFile(path, args))

	assert.Equal(t, 9090, args.Port)
	assert.Equal(t, StorageEngineSQLite, args.StorageEngine)
	assert.Equal(t, 0, args.CacheTTLSeconds)
	assert.Equal(t, "127.0.0.1", args.Host)
	assert.True(t, args.SeedData)
	assert.Equal(t, path, args.ConfigFile)
	require.Len(t, args.Users, 1)
	assert.Equal(t, UserCredential{Username: "admin", Password: "admin123"}, args.Users[0])
}

func TestLoadConfigFileErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		err := LoadConfigFile(filepath.Join(t.TempDir(), "nope.yaml"), Defaults())
		assert.Error(t, err)
	})

	t.Run("malformed file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("port: [1, 2"), 0644))
		assert.Error(t, LoadConfigFile(path, Defaults()))
	})
}

func TestValidateArguments(t *testing.T) {
	valid := func(t *testing.T) *Arguments {
		args := Defaults()
		args.DataDir = filepath.Join(t.TempDir(), "data")
		return args
	}

	t.Run("defaults are valid and create the data directory", func(t *testing.T) {
		args := valid(t)
		require.NoError(t, ValidateArguments(args))
		info, err := os.Stat(args.DataDir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("port out of range", func(t *testing.T) {
		args := valid(t)
		args.Port = 70000
		assert.ErrorContains(t, ValidateArguments(args), "invalid port number")
	})

	t.Run("unknown storage engine", func(t *testing.T) {
		args := valid(t)
		args.StorageEngine = "csv"
		assert.ErrorContains(t, ValidateArguments(args), "invalid storage engine")
	})

	t.Run("data dir is a file", func(t *testing.T) {
		args := valid(t)
		path := filepath.Join(t.TempDir(), "file")
		require.NoError(t, os.WriteFile(path, nil, 0644))
		args.DataDir = path
		assert.ErrorContains(t, ValidateArguments(args), "not a directory")
	})

	t.Run("user store without key", func(t *testing.T) {
		args := valid(t)
		args.UserStoreFile = filepath.Join(t.TempDir(), "users.dat")
		assert.ErrorContains(t, ValidateArguments(args), "encryption key")
	})

	t.Run("incomplete user", func(t *testing.T) {
		args := valid(t)
		args.Users = []UserCredential{{Username: "admin"}}
		assert.ErrorContains(t, ValidateArguments(args), "user entry 0")
	})
}
