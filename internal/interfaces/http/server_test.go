package http_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apphttp "github.com/jhoicas/concesionaria-api/internal/interfaces/http"
	"github.com/jhoicas/concesionaria-api/pkg/config"
)

// clientIP devuelve la IP que ve la aplicación para una petición con X-Forwarded-For falsificado.
func clientIP(t *testing.T, h config.HTTPConfig) string {
	t.Helper()
	app := fiber.New(apphttp.ServerConfig("test", h))
	app.Get("/ip", func(c *fiber.Ctx) error { return c.SendString(c.IP()) })

	req := httptest.NewRequest(http.MethodGet, "/ip", nil)
	req.Header.Set("X-Forwarded-For", "127.0.0.1")
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return string(body)
}

func TestServerConfig_ProxyNoConfiableIgnoraCabecera(t *testing.T) {
	ip := clientIP(t, config.HTTPConfig{ProxyHeader: "X-Forwarded-For", TrustedProxies: []string{"10.0.0.2"}})
	assert.Equal(t, "0.0.0.0", ip)
}

func TestServerConfig_ProxyConfiableRespetaCabecera(t *testing.T) {
	ip := clientIP(t, config.HTTPConfig{ProxyHeader: "X-Forwarded-For", TrustedProxies: []string{"0.0.0.0/8"}})
	assert.Equal(t, "127.0.0.1", ip)
}

func TestServerConfig_SinProxyHeader(t *testing.T) {
	cfg := apphttp.ServerConfig("test", config.HTTPConfig{TrustedProxies: []string{"10.0.0.2"}})
	assert.Empty(t, cfg.ProxyHeader)
	assert.False(t, cfg.EnableTrustedProxyCheck)

	assert.Equal(t, "0.0.0.0", clientIP(t, config.HTTPConfig{}))
}

func TestServerConfig_ProxyHeaderSinListaNoConfiaEnNadie(t *testing.T) {
	cfg := apphttp.ServerConfig("test", config.HTTPConfig{ProxyHeader: "X-Forwarded-For"})
	assert.True(t, cfg.EnableTrustedProxyCheck)

	assert.Equal(t, "0.0.0.0", clientIP(t, config.HTTPConfig{ProxyHeader: "X-Forwarded-For"}))
}
