package configs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_LayersAndEnv(t *testing.T) {
	t.Setenv("STOREFRONT_REDIS__ADDR", "redis:6380")
	t.Setenv("STOREFRONT_CART__ACCOUNT_BACKEND", "rest")

	cfg, err := Load(".", "dev")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.App.HTTPAddr)
	assert.Equal(t, "debug", cfg.App.LogLevel)
	assert.Equal(t, "redis:6380", cfg.Redis.Addr)
	assert.Equal(t, AccountCartREST, cfg.Cart.AccountBackend)
	assert.Equal(t, 24*time.Hour, cfg.Session.TTL)
	assert.Equal(t, 10.0, cfg.Shipping.MinimumFee)
	assert.Equal(t, 5.0, cfg.Shipping.FallbackRate)
	assert.True(t, cfg.Outbox.Enabled)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
}

func TestLoad_MissingEnvFileIsFine(t *testing.T) {
	cfg, err := Load(".", "nope")
	require.NoError(t, err)
	assert.False(t, cfg.Outbox.Enabled)
}

func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "base.yaml"), []byte(`
app:
  http_addr: ":1"
upstream:
  base_url: http://x
redis:
  addr: r:1
security:
  jwt_secret: s
cart:
  account_backend: firestore
`), 0o644))

	_, err := Load(dir, "dev")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cart.account_backend")
}
