package rediskv

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kurumisoft/panel-agent/internal/config"
	"github.com/kurumisoft/panel-agent/internal/storage"
)

func setupTestStore(t *testing.T) *Store {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	t.Cleanup(func() { mr.Close() })

	cfg := config.RedisConnection{
		AddressRedis: mr.Addr(),
		Password:     "",
		DB:           0,
		User:         "",
	}

	s, err := New(context.Background(), cfg)
	require.NoError(t, err)
	return s
}

func TestSaveAndLoad(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, storage.SessionKey, []byte(`{"token":"abc"}`)))

	got, found, err := s.Load(ctx, storage.SessionKey)
	require.NoError(t, err)
	require.True(t, found)
	assert.JSONEq(t, `{"token":"abc"}`, string(got))
}

func TestLoad_MissingKey(t *testing.T) {
	s := setupTestStore(t)

	_, found, err := s.Load(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestDelete(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, storage.SettingsKey, []byte(`{}`)))
	require.NoError(t, s.Delete(ctx, storage.SettingsKey))

	_, found, err := s.Load(ctx, storage.SettingsKey)
	require.NoError(t, err)
	assert.False(t, found)
}
