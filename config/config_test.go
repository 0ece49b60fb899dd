package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithoutEnvFile(t *testing.T) {
	cfg, err := load(filepath.Join(t.TempDir(), ".env"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, "America/Sao_Paulo", cfg.App.Timezone)
	assert.Equal(t, StoreBackendPostgres, cfg.Store.Backend)
	assert.Equal(t, 50, cfg.Metrics.WeeklyGoal)
	assert.Equal(t, 15*time.Minute, cfg.JWT.AccessExpiry)
	assert.Equal(t, 7*24*time.Hour, cfg.JWT.RefreshExpiry)
	assert.Equal(t, 30*time.Second, cfg.Supabase.Timeout)
	assert.False(t, cfg.DB.AutoMigrate)
}

func TestLoadReadsEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "APP_PORT=9090\nSTORE_BACKEND=Supabase\nSUPABASE_URL=https://x.supabase.co\nSUPABASE_API_KEY=key\nMETRICS_WEEKLY_GOAL=30\nJWT_ACCESS_EXPIRY=bogus\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := load(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.App.Port)
	assert.Equal(t, StoreBackendSupabase, cfg.Store.Backend)
	assert.Equal(t, "https://x.supabase.co", cfg.Supabase.URL)
	assert.Equal(t, 30, cfg.Metrics.WeeklyGoal)
	assert.Equal(t, 15*time.Minute, cfg.JWT.AccessExpiry)
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("STORE_BACKEND=mongo\n"), 0o600))

	_, err := load(path)
	assert.Error(t, err)
}

func TestLocationFallsBackToUTC(t *testing.T) {
	assert.Equal(t, time.UTC, AppConfig{Timezone: "Not/AZone"}.Location())
	assert.Equal(t, time.UTC, AppConfig{}.Location())
}
