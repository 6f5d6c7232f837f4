package database

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"yatrinivas/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseKV runs the behaviour every backend must share.
func exerciseKV(t *testing.T, kv KV) {
	t.Helper()
	ctx := context.Background()

	_, err := kv.Get(ctx, KeyLodges)
	assert.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, kv.Set(ctx, KeyLodges, []byte(`[{"id":"lodge_1"}]`)))
	got, err := kv.Get(ctx, KeyLodges)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"lodge_1"}]`, string(got))

	require.NoError(t, kv.Set(ctx, KeyLodges, []byte(`[]`)))
	got, err = kv.Get(ctx, KeyLodges)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(got))

	require.NoError(t, kv.Set(ctx, KeyUser, []byte(`null`)))
	got, err = kv.Get(ctx, KeyUser)
	require.NoError(t, err)
	assert.Equal(t, "null", string(got))

	assert.NoError(t, kv.Ping(ctx))
}

func TestMemoryKV(t *testing.T) {
	exerciseKV(t, NewMemoryKV())
}

func TestMemoryKV_CopiesValues(t *testing.T) {
	kv := NewMemoryKV()
	ctx := context.Background()
	buf := []byte("[]")
	require.NoError(t, kv.Set(ctx, KeyBookings, buf))
	buf[0] = 'x'

	got, err := kv.Get(ctx, KeyBookings)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(got))
}

func TestSQLiteKV(t *testing.T) {
	logger := zerolog.New(io.Discard)
	db, err := NewDB(filepath.Join(t.TempDir(), "store", "test.db"), &logger)
	require.NoError(t, err)
	defer db.Close()

	exerciseKV(t, db)
}

func TestRedisKV(t *testing.T) {
	m := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	kv := NewRedisKVFromClient(client, "test:")
	defer kv.Close()

	exerciseKV(t, kv)
	assert.True(t, m.Exists("test:"+KeyLodges))
}

func TestPostgresKV(t *testing.T) {
	dsn := os.Getenv("NIVAS_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("NIVAS_TEST_POSTGRES_DSN not set")
	}
	kv, err := NewPostgresKV(context.Background(), dsn)
	require.NoError(t, err)
	defer kv.Close()

	_, _ = kv.pool.Exec(context.Background(), `DELETE FROM documents`)
	exerciseKV(t, kv)
}

func TestOpen(t *testing.T) {
	logger := zerolog.New(io.Discard)
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		cfg := &config.Config{}
		cfg.Store.Driver = config.DriverMemory
		store, err := Open(ctx, cfg, &logger)
		require.NoError(t, err)
		assert.IsType(t, &MemoryKV{}, store.KV)
		assert.Nil(t, store.SQLite)
	})

	t.Run("redis with sqlite fallback", func(t *testing.T) {
		m := miniredis.RunT(t)
		cfg := &config.Config{}
		cfg.Store.Driver = config.DriverRedis
		cfg.Store.Fallback = config.DriverSQLite
		cfg.Store.Path = filepath.Join(t.TempDir(), "fallback.db")
		cfg.Redis.Address = m.Addr()

		store, err := Open(ctx, cfg, &logger)
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &FailoverKV{}, store.KV)
		require.NotNil(t, store.SQLite)
		exerciseKV(t, store)
	})

	t.Run("unknown driver", func(t *testing.T) {
		cfg := &config.Config{}
		cfg.Store.Driver = "mongo"
		_, err := Open(ctx, cfg, &logger)
		assert.Error(t, err)
	})
}

func TestBackupService(t *testing.T) {
	var logs bytes.Buffer
	logger := zerolog.New(&logs)
	dir := t.TempDir()
	live := filepath.Join(dir, "live.db")
	db, err := NewDB(live, &logger)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.Set(context.Background(), KeyLodges, []byte(`[]`)))

	cfg := config.BackupConfig{Enabled: true, Path: filepath.Join(dir, "backups"), RetentionDays: 7}
	svc := NewBackupService(db, cfg, time.Hour, &logger)

	path, err := svc.PerformBackup(context.Background())
	require.NoError(t, err)
	assert.FileExists(t, path)
	assert.Equal(t, live, db.Path())
	assert.Contains(t, logs.String(), `"source":"`+live+`"`)

	snapshot, err := NewDB(path, &logger)
	require.NoError(t, err)
	got, err := snapshot.Get(context.Background(), KeyLodges)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(got))
	require.NoError(t, snapshot.Close())

	old := filepath.Join(cfg.Path, "backup_20000101_000000.db")
	require.NoError(t, os.WriteFile(old, []byte("x"), 0o644))
	past := time.Now().AddDate(0, 0, -30)
	require.NoError(t, os.Chtimes(old, past, past))

	assert.Equal(t, 1, svc.CleanupOldBackups())
	assert.NoFileExists(t, old)
	assert.FileExists(t, path)
}
