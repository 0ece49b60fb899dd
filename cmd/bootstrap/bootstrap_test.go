package bootstrap

import (
	"io"
	"testing"

	"dental-referral-tracker/config"
	"dental-referral-tracker/internal/gateway"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGatewaySelectsBackend(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)

	cfg := &config.Config{
		Store:    config.StoreConfig{Backend: config.StoreBackendSupabase},
		Supabase: config.SupabaseConfig{URL: "https://example.supabase.co", APIKey: "key"},
	}
	gw, err := newGateway(cfg, nil, log)
	require.NoError(t, err)
	assert.IsType(t, &gateway.SupabaseGateway{}, gw)

	cfg.Supabase.APIKey = ""
	_, err = newGateway(cfg, nil, log)
	assert.Error(t, err)

	cfg.Store.Backend = config.StoreBackendPostgres
	gw, err = newGateway(cfg, nil, log)
	require.NoError(t, err)
	assert.IsType(t, &gateway.PostgresGateway{}, gw)
}
