package settings

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kurumisoft/panel-agent/internal/storage"
	"github.com/kurumisoft/panel-agent/internal/storage/filekv"
)

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func newTestStore(t *testing.T) (*Store, storage.KV) {
	t.Helper()
	kv, err := filekv.New(t.TempDir(), "")
	require.NoError(t, err)
	return New(context.Background(), kv, newNoopLogger()), kv
}

func TestDefaults(t *testing.T) {
	s, _ := newTestStore(t)

	assert.Equal(t, LanguageRU, s.Language())
	assert.Equal(t, ThemeLight, s.Theme())
}

func TestSetAndRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, kv := newTestStore(t)

	require.NoError(t, s.SetLanguage(ctx, LanguageEN))
	require.NoError(t, s.SetTheme(ctx, ThemeSystem))
	require.NoError(t, s.SetTheme(ctx, ThemeDark))

	assert.Equal(t, LanguageEN, s.Language())
	assert.Equal(t, ThemeDark, s.Theme(), "current value equals the last value set")

	reloaded := New(ctx, kv, newNoopLogger())
	assert.Equal(t, LanguageEN, reloaded.Language())
	assert.Equal(t, ThemeDark, reloaded.Theme())
}

func TestSet_RejectsUnknownValues(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	assert.ErrorIs(t, s.SetLanguage(ctx, "de"), ErrUnknownValue)
	assert.ErrorIs(t, s.SetTheme(ctx, "sepia"), ErrUnknownValue)
	assert.Equal(t, LanguageRU, s.Language())
	assert.Equal(t, ThemeLight, s.Theme())
}

func TestHydration_MalformedFallsBackToDefaults(t *testing.T) {
	ctx := context.Background()
	kv, err := filekv.New(t.TempDir(), "")
	require.NoError(t, err)
	require.NoError(t, kv.Save(ctx, storage.SettingsKey, []byte("{broken")))

	s := New(ctx, kv, newNoopLogger())
	assert.Equal(t, LanguageRU, s.Language())
	assert.Equal(t, ThemeLight, s.Theme())
}

func TestHydration_UnknownPersistedValueIgnored(t *testing.T) {
	ctx := context.Background()
	kv, err := filekv.New(t.TempDir(), "")
	require.NoError(t, err)
	require.NoError(t, kv.Save(ctx, storage.SettingsKey, []byte(`{"language":"en","theme":"sepia"}`)))

	s := New(ctx, kv, newNoopLogger())
	assert.Equal(t, LanguageEN, s.Language())
	assert.Equal(t, ThemeLight, s.Theme())
}

func TestSubscribe(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	calls := 0
	unsub := s.Subscribe(func() { calls++ })

	require.NoError(t, s.SetTheme(ctx, ThemeDark))
	assert.Equal(t, 1, calls)

	unsub()
	require.NoError(t, s.SetTheme(ctx, ThemeLight))
	assert.Equal(t, 1, calls)
}
