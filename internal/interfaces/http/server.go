package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/concesionaria-api/pkg/config"
)

// ServerConfig configuración de Fiber. Con ProxyHeader definido, la cabecera solo se
// respeta si el peer es uno de TrustedProxies; cualquier otro cliente ve su IP real.
func ServerConfig(appName string, h config.HTTPConfig) fiber.Config {
	cfg := fiber.Config{
		AppName:      appName,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	}
	if h.ProxyHeader != "" {
		cfg.ProxyHeader = h.ProxyHeader
		cfg.EnableTrustedProxyCheck = true
		cfg.TrustedProxies = h.TrustedProxies
	}
	return cfg
}
