package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/linemk/nirvana-shop/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
env: "dev"
http_server:
  address: "localhost:8080"
  timeout: "4s"
  idle_timeout: "60s"
database:
  host: "db"
  port: 5432
  name: "shop"
  sslmode: "require"
  user: "storefront_app"
  admin_user: "storefront_admin"
identity:
  provider_url: "https://api.identity.example"
  lookup_timeout: "2s"
  role_cache_ttl: "10m"
redis:
  address: "localhost:6379"
migrations:
  path: "./migrations"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpFile, err := os.CreateTemp("", "config_test_*.yaml")
	require.NoError(t, err)
	t.Cleanup(func() { os.Remove(tmpFile.Name()) })

	_, err = tmpFile.WriteString(content)
	require.NoError(t, err)
	require.NoError(t, tmpFile.Close())
	return tmpFile.Name()
}

func TestMustLoadByPath_Success(t *testing.T) {
	t.Setenv("DB_PASSWORD", "app pass")
	t.Setenv("DB_ADMIN_PASSWORD", "admin@pass")
	t.Setenv("SESSION_SECRET", "sessionsecret")
	t.Setenv("IDENTITY_PROVIDER_SECRET", "sk_test")
	t.Setenv("REDIS_PASSWORD", "")

	cfg := config.MustLoadByPath(writeConfig(t, sampleConfig))

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, "localhost:8080", cfg.HTTPServer.Address)
	assert.Equal(t, 4*time.Second, cfg.HTTPServer.Timeout)
	assert.Equal(t, 60*time.Second, cfg.HTTPServer.IdleTimeout)
	assert.Equal(t, 5*time.Second, cfg.HTTPServer.ShutdownTimeout)
	assert.Equal(t, "db", cfg.Database.Host)
	assert.Equal(t, "storefront_app", cfg.Database.User)
	assert.Equal(t, "storefront_admin", cfg.Database.AdminUser)
	assert.Equal(t, 10, cfg.Database.MaxOpenConns)
	assert.Equal(t, "sessionsecret", cfg.Identity.SessionSecret)
	assert.Equal(t, "https://api.identity.example", cfg.Identity.ProviderURL)
	assert.Equal(t, "sk_test", cfg.Identity.ProviderSecret)
	assert.Equal(t, 2*time.Second, cfg.Identity.LookupTimeout)
	assert.Equal(t, 10*time.Minute, cfg.Identity.RoleCacheTTL)
	assert.Equal(t, "localhost:6379", cfg.Redis.Address)
	assert.Equal(t, "./migrations", cfg.Migrations.Path)
	assert.Equal(t, "schema_migrations", cfg.Migrations.Table)

	// пароли экранируются
	assert.Equal(t, "postgres://storefront_app:app%20pass@db:5432/shop?sslmode=require", cfg.Database.DSN())
	assert.Equal(t, "postgres://storefront_admin:admin%40pass@db:5432/shop?sslmode=require", cfg.Database.AdminDSN())
	assert.Equal(t,
		"postgres://storefront_admin:admin%40pass@db:5432/shop?sslmode=require&x-migrations-table=schema_migrations",
		cfg.Database.MigrateDSN(cfg.Migrations.Table))
}

func TestMustLoadByPath_EnvOverrides(t *testing.T) {
	t.Setenv("DB_PASSWORD", "p")
	t.Setenv("DB_ADMIN_PASSWORD", "p")
	t.Setenv("SESSION_SECRET", "s")
	t.Setenv("APP_ENV", "prod")
	t.Setenv("DB_HOST", "postgres.internal")

	cfg := config.MustLoadByPath(writeConfig(t, sampleConfig))

	assert.Equal(t, "prod", cfg.Env)
	assert.Equal(t, "postgres.internal", cfg.Database.Host)
}

func TestMustLoadByPath_FileNotFound(t *testing.T) {
	// Ожидаем панику, если файла не существует
	assert.Panics(t, func() {
		config.MustLoadByPath("non_existent_config.yaml")
	})
}
