package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_ValoresPorDefecto(t *testing.T) {
	t.Setenv("APP_ENV", "development")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "concesionaria-api", cfg.App.Name)
	assert.Equal(t, 5*time.Second, cfg.DB.Timeout)
	assert.Equal(t, 5*time.Minute, cfg.Backup.Interval)
	assert.Equal(t, 10, cfg.Backup.Keep)
	assert.Contains(t, cfg.Security.TrustedNetworks, "127.0.0.1")
	assert.Equal(t, []string{"127.0.0.1", "::1"}, cfg.HTTP.TrustedProxies)
	assert.False(t, cfg.Backup.UseS3())
}

func TestLoad_EnvSobrescribe(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("DB_TIMEOUT_SECONDS", "2")
	t.Setenv("TRUSTED_NETWORKS", "10.0.0.0/8, 192.168.1.10")
	t.Setenv("BACKUP_S3_BUCKET", "respaldos")
	t.Setenv("FANOUT_WORKERS", "abc")
	t.Setenv("HTTP_TRUSTED_PROXIES", "10.0.0.2,10.1.0.0/16")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 2*time.Second, cfg.DB.Timeout)
	assert.Equal(t, []string{"10.0.0.0/8", "192.168.1.10"}, cfg.Security.TrustedNetworks)
	assert.True(t, cfg.Backup.UseS3())
	assert.Equal(t, []string{"10.0.0.2", "10.1.0.0/16"}, cfg.HTTP.TrustedProxies)
	assert.Equal(t, 4, cfg.Fanout.Workers, "un entero inválido cae al valor por defecto")
}

func TestLoad_ProduccionExigeSecreto(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
}

func TestDSN_EscapaPassword(t *testing.T) {
	c := DBConfig{Host: "db", Port: 5432, User: "app", Password: "p@ss/word", DBName: "concesionaria", SSLMode: "disable"}
	assert.Equal(t, "postgres://app:p%40ss%2Fword@db:5432/concesionaria?sslmode=disable", c.DSN())

	c.DatabaseURL = "postgres://otro"
	assert.Equal(t, "postgres://otro", c.ConnectionString())
}
