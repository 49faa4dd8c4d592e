package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config agrupa la configuración de la aplicación (lectura vía Viper desde env y opcionalmente archivo).
type Config struct {
	App     AppConfig
	HTTP    HTTPConfig
	API     APIConfig
	Cache   CacheConfig
	View    ViewConfig
	Metrics MetricsConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env      string // development, staging, production
	Name     string
	LogLevel string
	Timezone string // zona para mostrar fechas de movimientos
}

// HTTPConfig configuración del servidor HTTP de la UI.
type HTTPConfig struct {
	Host string
	Port int
}

// Addr devuelve la dirección de escucha (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// APIConfig backend REST consumido.
type APIConfig struct {
	BaseURL string // incluye el prefijo /api
	Timeout time.Duration
}

// Políticas de reintento de la caché.
const (
	RetryPolicyAlways    = "always"
	RetryPolicyTransport = "transport"
)

// CacheConfig ventana de frescura y reintentos de la caché de consultas.
type CacheConfig struct {
	StaleTime   time.Duration
	RetryPolicy string // always | transport
	RetryDelay  time.Duration
}

// ViewConfig render de la lista/detalle.
type ViewConfig struct {
	RenderWait time.Duration // espera máxima por un fetch antes de mostrar "Loading..."
	TimeLayout string
}

// MetricsConfig exposición de /metrics.
type MetricsConfig struct {
	Enabled bool
}

// Location resuelve la zona horaria configurada; si no existe usa la local.
func (c AppConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde archivo).
// Las env vars tienen prioridad. Nombres esperados: APP_ENV, API_BASE_URL, CACHE_STALE_SECONDS, etc.
func Load() (*Config, error) {
	v := viper.New()

	// Opcional: archivo de configuración (.env o config.env)
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	return FromViper(v)
}

// FromViper construye la configuración desde una instancia ya poblada (útil en tests).
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Env:      getString(v, "APP_ENV", "development"),
			Name:     getString(v, "APP_NAME", "inventario-web"),
			LogLevel: getString(v, "LOG_LEVEL", "info"),
			Timezone: getString(v, "APP_TIMEZONE", ""),
		},
		HTTP: HTTPConfig{
			Host: getString(v, "HTTP_HOST", "0.0.0.0"),
			Port: getInt(v, "HTTP_PORT", 5173),
		},
		API: APIConfig{
			BaseURL: strings.TrimRight(getString(v, "API_BASE_URL", "http://localhost:4000/api"), "/"),
			Timeout: time.Duration(getInt(v, "API_TIMEOUT_SECONDS", 10)) * time.Second,
		},
		Cache: CacheConfig{
			StaleTime:   time.Duration(getInt(v, "CACHE_STALE_SECONDS", 5)) * time.Second,
			RetryPolicy: strings.ToLower(getString(v, "CACHE_RETRY_POLICY", RetryPolicyAlways)),
			RetryDelay:  time.Duration(getInt(v, "CACHE_RETRY_DELAY_MS", 1000)) * time.Millisecond,
		},
		View: ViewConfig{
			RenderWait: time.Duration(getInt(v, "VIEW_RENDER_WAIT_MS", 2000)) * time.Millisecond,
			TimeLayout: getString(v, "VIEW_TIME_LAYOUT", "2006-01-02 15:04:05"),
		},
		Metrics: MetricsConfig{
			Enabled: getBool(v, "METRICS_ENABLED", true),
		},
	}

	if cfg.API.BaseURL == "" {
		return nil, fmt.Errorf("config: API_BASE_URL vacío")
	}
	if cfg.API.Timeout <= 0 {
		return nil, fmt.Errorf("config: API_TIMEOUT_SECONDS debe ser positivo")
	}
	switch cfg.Cache.RetryPolicy {
	case RetryPolicyAlways, RetryPolicyTransport:
	default:
		return nil, fmt.Errorf("config: CACHE_RETRY_POLICY inválido %q", cfg.Cache.RetryPolicy)
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
