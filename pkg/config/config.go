package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config agrupa la configuración de la aplicación (lectura vía Viper desde env y opcionalmente archivo).
type Config struct {
	App       AppConfig
	DB        DBConfig
	JWT       JWTConfig
	HTTP      HTTPConfig
	Redis     RedisConfig
	Fanout    FanoutConfig
	Security  SecurityConfig
	Premium   PremiumConfig
	Backup    BackupConfig
	RateLimit RateLimitConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env      string // development, staging, production
	Name     string
	LogLevel string
}

// DBConfig configuración de PostgreSQL.
// Si DatabaseURL no está vacío, se usa como connection string completo.
type DBConfig struct {
	DatabaseURL    string
	Host           string
	Port           int
	User           string
	Password       string
	DBName         string
	SSLMode        string
	MaxConns       int
	Timeout        time.Duration // límite por operación contra el store
	MigrateOnStart bool
}

// ConnectionString devuelve el DSN a usar: DATABASE_URL si está definido, si no el construido con DSN().
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DSN()
}

// DSN devuelve el connection string para PostgreSQL con URL encoding para caracteres especiales.
func (c DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: fmt.Sprintf("sslmode=%s", c.SSLMode),
	}
	return u.String()
}

// JWTConfig configuración de JWT.
type JWTConfig struct {
	Secret     string
	Expiration int // minutos
	Issuer     string
}

// HTTPConfig configuración del servidor HTTP.
type HTTPConfig struct {
	Host        string
	Port        int
	ProxyHeader string // ej. X-Forwarded-For detrás de un balanceador
	// TrustedProxies únicos peers cuyo ProxyHeader se respeta (IPs o CIDR).
	TrustedProxies []string
	SwaggerFile    string
}

// Addr devuelve la dirección de escucha (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// RedisConfig cola de auditoría en Redis. Sin URL se usa el pool en proceso.
type RedisConfig struct {
	URL         string
	Queue       string
	MaxAttempts int
}

// FanoutConfig workers del canal de auditoría/alertas.
type FanoutConfig struct {
	Workers int
	Buffer  int
}

// SecurityConfig redes de confianza (origen local) para la política de alertas.
type SecurityConfig struct {
	TrustedNetworks []string
}

// PremiumConfig cuenta premium creada al arrancar si no existe.
type PremiumConfig struct {
	Email    string
	Name     string
	Password string
}

// BackupConfig respaldo periódico del snapshot JSON.
type BackupConfig struct {
	Enabled    bool
	Interval   time.Duration
	Dir        string
	Keep       int
	S3Bucket   string
	S3Region   string
	S3Endpoint string
	S3Prefix   string
	S3Access   string
	S3Secret   string
}

// UseS3 indica si el destino de respaldo es un bucket S3.
func (c BackupConfig) UseS3() bool {
	return c.S3Bucket != ""
}

// RateLimitConfig token bucket por IP para /api/auth.
type RateLimitConfig struct {
	Burst     int
	PerSecond int
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde archivo).
// Las env vars tienen prioridad. Nombres esperados: APP_ENV, DB_HOST, JWT_SECRET, REDIS_URL, etc.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig()

	v.SetConfigName("config")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		App: AppConfig{
			Env:      getString(v, "APP_ENV", "development"),
			Name:     getString(v, "APP_NAME", "concesionaria-api"),
			LogLevel: getString(v, "LOG_LEVEL", "info"),
		},
		DB: DBConfig{
			DatabaseURL:    getString(v, "DATABASE_URL", ""),
			Host:           getString(v, "DB_HOST", "localhost"),
			Port:           getInt(v, "DB_PORT", 5432),
			User:           getString(v, "DB_USER", "postgres"),
			Password:       getString(v, "DB_PASSWORD", ""),
			DBName:         getString(v, "DB_NAME", "concesionaria"),
			SSLMode:        getString(v, "DB_SSLMODE", "disable"),
			MaxConns:       getInt(v, "DB_MAX_CONNS", 25),
			Timeout:        time.Duration(getInt(v, "DB_TIMEOUT_SECONDS", 5)) * time.Second,
			MigrateOnStart: getBool(v, "DB_MIGRATE_ON_START", true),
		},
		JWT: JWTConfig{
			Secret:     getString(v, "JWT_SECRET", ""),
			Expiration: getInt(v, "JWT_EXPIRATION_MINUTES", 480),
			Issuer:     getString(v, "JWT_ISSUER", "concesionaria-api"),
		},
		HTTP: HTTPConfig{
			Host:           getString(v, "HTTP_HOST", "0.0.0.0"),
			Port:           getInt(v, "HTTP_PORT", 8080),
			ProxyHeader:    getString(v, "HTTP_PROXY_HEADER", ""),
			TrustedProxies: getList(v, "HTTP_TRUSTED_PROXIES", []string{"127.0.0.1", "::1"}),
			SwaggerFile:    getString(v, "HTTP_SWAGGER_FILE", "./docs/swagger.json"),
		},
		Redis: RedisConfig{
			URL:         getString(v, "REDIS_URL", ""),
			Queue:       getString(v, "REDIS_QUEUE", "jobs:auditoria"),
			MaxAttempts: getInt(v, "REDIS_MAX_ATTEMPTS", 3),
		},
		Fanout: FanoutConfig{
			Workers: getInt(v, "FANOUT_WORKERS", 4),
			Buffer:  getInt(v, "FANOUT_BUFFER", 1024),
		},
		Security: SecurityConfig{
			TrustedNetworks: getList(v, "TRUSTED_NETWORKS", []string{"127.0.0.1", "::1", "localhost"}),
		},
		Premium: PremiumConfig{
			Email:    getString(v, "PREMIUM_EMAIL", "admin@concesionaria.com"),
			Name:     getString(v, "PREMIUM_NAME", "Administrador Premium"),
			Password: getString(v, "PREMIUM_PASSWORD", ""),
		},
		Backup: BackupConfig{
			Enabled:    getBool(v, "BACKUP_ENABLED", true),
			Interval:   time.Duration(getInt(v, "BACKUP_INTERVAL_MINUTES", 5)) * time.Minute,
			Dir:        getString(v, "BACKUP_DIR", "./respaldos"),
			Keep:       getInt(v, "BACKUP_KEEP", 10),
			S3Bucket:   getString(v, "BACKUP_S3_BUCKET", ""),
			S3Region:   getString(v, "BACKUP_S3_REGION", "us-east-1"),
			S3Endpoint: getString(v, "BACKUP_S3_ENDPOINT", ""),
			S3Prefix:   getString(v, "BACKUP_S3_PREFIX", "respaldos/"),
			S3Access:   getString(v, "BACKUP_S3_ACCESS_KEY", ""),
			S3Secret:   getString(v, "BACKUP_S3_SECRET_KEY", ""),
		},
		RateLimit: RateLimitConfig{
			Burst:     getInt(v, "RATE_LIMIT_BURST", 10),
			PerSecond: getInt(v, "RATE_LIMIT_PER_SECOND", 5),
		},
	}

	if cfg.App.Env == "production" && cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("config: JWT_SECRET es obligatorio en producción")
	}
	return cfg, nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case int:
			return v.GetInt(key)
		case string:
			n, err := strconv.Atoi(strings.TrimSpace(v.GetString(key)))
			if err != nil {
				return def
			}
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}

func getBool(v *viper.Viper, key string, def bool) bool {
	if v.IsSet(key) {
		return v.GetBool(key)
	}
	return def
}

// getList acepta valores separados por coma (TRUSTED_NETWORKS=127.0.0.1,10.0.0.0/8).
func getList(v *viper.Viper, key string, def []string) []string {
	if !v.IsSet(key) {
		return def
	}
	var out []string
	for _, part := range strings.Split(v.GetString(key), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
