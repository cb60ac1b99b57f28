package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/briangreenhill/occapi/cache"
)

// clearEnv unsets every variable Load reads so the host environment cannot leak in
func clearEnv(t *testing.T) {
	for _, key := range []string{
		"OCCAPI_ADDR", "OCCAPI_STORE", "OCCAPI_CACHE_DIR", "OCCAPI_DATABASE_URL",
		"OCCAPI_FETCH_TIMEOUT", "OCCAPI_PROVIDERS", "OCCAPI_LOG_LEVEL",
		"OCCAPI_REDIS_ADDR", "OCCAPI_REDIS_PASSWORD", "OCCAPI_REDIS_DB", "OCCAPI_REDIS_PREFIX",
	} {
		t.Setenv(key, "")
		_ = os.Unsetenv(key)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, StoreFile, cfg.Store)
	assert.Equal(t, 10*time.Second, cfg.FetchTimeout)
	assert.Equal(t, "providers.json", cfg.ProvidersFile)
	assert.Equal(t, "occapi:", cfg.Redis.Prefix)
	assert.False(t, cfg.HasDatabase())
	assert.False(t, cfg.HasRedis())
	assert.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	clearEnv(t)
	t.Setenv("OCCAPI_ADDR", ":9090")
	t.Setenv("OCCAPI_STORE", "redis")
	t.Setenv("OCCAPI_REDIS_ADDR", "localhost:6379")
	t.Setenv("OCCAPI_REDIS_DB", "2")
	t.Setenv("OCCAPI_DATABASE_URL", "postgres://localhost/occapi")
	t.Setenv("OCCAPI_FETCH_TIMEOUT", "3s")
	t.Setenv("OCCAPI_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, StoreRedis, cfg.Store)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, 3*time.Second, cfg.FetchTimeout)
	assert.True(t, cfg.HasDatabase())
	assert.True(t, cfg.HasRedis())
	require.NoError(t, cfg.Validate())

	lvl, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, zerolog.DebugLevel, lvl)
}

func TestLoadInvalidDuration(t *testing.T) {
	clearEnv(t)
	t.Setenv("OCCAPI_FETCH_TIMEOUT", "soon")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory", Config{Store: StoreMemory, FetchTimeout: time.Second}, false},
		{"redis without address", Config{Store: StoreRedis, FetchTimeout: time.Second}, true},
		{"unknown store", Config{Store: "s3", FetchTimeout: time.Second}, true},
		{"zero timeout", Config{Store: StoreFile}, true},
		{"bad level", Config{Store: StoreFile, FetchTimeout: time.Second, LogLevel: "loud"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()

	cfg := &Config{Store: StoreMemory}
	store, err := cfg.OpenStore(ctx)
	require.NoError(t, err)
	assert.IsType(t, &cache.MemoryStore{}, store)

	dir := t.TempDir()
	cfg = &Config{Store: StoreFile, CacheDir: dir}
	store, err = cfg.OpenStore(ctx)
	require.NoError(t, err)
	assert.IsType(t, &cache.FileStore{}, store)
	assert.DirExists(t, filepath.Join(dir, Namespace))

	mr := miniredis.RunT(t)
	cfg = &Config{Store: StoreRedis, Redis: RedisConfig{Addr: mr.Addr(), Prefix: "test:"}}
	store, err = cfg.OpenStore(ctx)
	require.NoError(t, err)
	rs, ok := store.(*cache.RedisStore)
	require.True(t, ok)
	t.Cleanup(func() { _ = rs.Close() })

	require.NoError(t, store.Write(ctx, "uoa.index", &cache.Entry{Body: []byte(`{}`)}))
	assert.True(t, mr.Exists("test:"+Namespace+":uoa.index"))

	cfg = &Config{Store: "s3"}
	_, err = cfg.OpenStore(ctx)
	assert.Error(t, err)
}

func TestOpenStoreErrorReturnsNilStore(t *testing.T) {
	ctx := context.Background()

	cfg := &Config{Store: StoreRedis, Redis: RedisConfig{Addr: "127.0.0.1:1"}}
	store, err := cfg.OpenStore(ctx)
	assert.Error(t, err)
	assert.True(t, store == nil)

	file := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(file, nil, 0o600))
	cfg = &Config{Store: StoreFile, CacheDir: file}
	store, err = cfg.OpenStore(ctx)
	assert.Error(t, err)
	assert.True(t, store == nil)
}
