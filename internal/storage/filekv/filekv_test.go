package filekv

import (
	"context"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kurumisoft/panel-agent/internal/storage"
)

func TestSaveAndLoad(t *testing.T) {
	s, err := New(t.TempDir(), "")
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, s.Save(ctx, storage.SettingsKey, []byte(`{"theme":"dark"}`)))

	got, found, err := s.Load(ctx, storage.SettingsKey)
	require.NoError(t, err)
	require.True(t, found)
	assert.JSONEq(t, `{"theme":"dark"}`, string(got))
}

func TestLoad_MissingKey(t *testing.T) {
	s, err := New(t.TempDir(), "")
	require.NoError(t, err)

	_, found, err := s.Load(context.Background(), "no-such-key")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestDelete_Idempotent(t *testing.T) {
	s, err := New(t.TempDir(), "")
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, s.Save(ctx, storage.SessionKey, []byte(`{}`)))
	require.NoError(t, s.Delete(ctx, storage.SessionKey))
	require.NoError(t, s.Delete(ctx, storage.SessionKey))

	_, found, err := s.Load(ctx, storage.SessionKey)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSealedRoundTrip(t *testing.T) {
	key := hex.EncodeToString(make([]byte, 32))
	dir := t.TempDir()
	s, err := New(dir, key)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, s.Save(ctx, storage.SessionKey, []byte(`{"token":"abc123"}`)))

	raw, err := os.ReadFile(filepath.Join(dir, storage.SessionKey+".json"))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "abc123")

	got, found, err := s.Load(ctx, storage.SessionKey)
	require.NoError(t, err)
	require.True(t, found)
	assert.JSONEq(t, `{"token":"abc123"}`, string(got))
}

func TestNew_BadSealKey(t *testing.T) {
	_, err := New(t.TempDir(), "zz")
	assert.Error(t, err)

	_, err = New(t.TempDir(), "abcd")
	assert.Error(t, err)
}
