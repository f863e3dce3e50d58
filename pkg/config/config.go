package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Currency     CurrencyConfig
	Stripe       StripeConfig
	Checkout     CheckoutConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"TRIPWORKS_APP_ENV" required:"true"`
	Port         string `envconfig:"TRIPWORKS_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"TRIPWORKS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"TRIPWORKS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"TRIPWORKS_DB_DSN"`
	Driver string `envconfig:"TRIPWORKS_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"TRIPWORKS_DB_HOST"`
	Port     int    `envconfig:"TRIPWORKS_DB_PORT" default:"5432"`
	User     string `envconfig:"TRIPWORKS_DB_USER"`
	Password string `envconfig:"TRIPWORKS_DB_PASSWORD"`
	Name     string `envconfig:"TRIPWORKS_DB_NAME"`
	SSLMode  string `envconfig:"TRIPWORKS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"TRIPWORKS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"TRIPWORKS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"TRIPWORKS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"TRIPWORKS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// ensureDSN assembles a postgres DSN from discrete fields when one is not
// provided directly.
func (d *DBConfig) ensureDSN() error {
	if d.DSN != "" {
		return nil
	}
	if d.Host == "" || d.User == "" || d.Name == "" {
		return fmt.Errorf("either TRIPWORKS_DB_DSN or host/user/name fields are required")
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.Name,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	d.DSN = u.String()
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"TRIPWORKS_REDIS_URL" required:"true"`
	Address      string        `envconfig:"TRIPWORKS_REDIS_ADDR"`
	Password     string        `envconfig:"TRIPWORKS_REDIS_PASSWORD"`
	DB           int           `envconfig:"TRIPWORKS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"TRIPWORKS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TRIPWORKS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TRIPWORKS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TRIPWORKS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"TRIPWORKS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"TRIPWORKS_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"TRIPWORKS_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"TRIPWORKS_JWT_EXPIRATION_MINUTES" default:"60"`
}

type CurrencyConfig struct {
	RatesURL     string        `envconfig:"TRIPWORKS_CURRENCY_RATES_URL" required:"true"`
	BaseCurrency string        `envconfig:"TRIPWORKS_CURRENCY_BASE" default:"USD"`
	CacheTTL     time.Duration `envconfig:"TRIPWORKS_CURRENCY_CACHE_TTL" default:"15m"`
	HTTPTimeout  time.Duration `envconfig:"TRIPWORKS_CURRENCY_HTTP_TIMEOUT" default:"10s"`
}

type StripeConfig struct {
	APIKey        string `envconfig:"TRIPWORKS_STRIPE_API_KEY" required:"true"`
	Env           string `envconfig:"TRIPWORKS_STRIPE_ENV" default:"test"`
	ReturnBaseURL string `envconfig:"TRIPWORKS_STRIPE_RETURN_BASE_URL" required:"true"`
}

// Environment reports the configured stripe environment string.
func (s StripeConfig) Environment() string {
	return s.Env
}

type CheckoutConfig struct {
	SessionTTL      time.Duration `envconfig:"TRIPWORKS_CHECKOUT_SESSION_TTL" default:"2h"`
	FinalizeTTL     time.Duration `envconfig:"TRIPWORKS_CHECKOUT_FINALIZE_TTL" default:"168h"`
	ResumeTokenSkew time.Duration `envconfig:"TRIPWORKS_CHECKOUT_RESUME_TOKEN_SKEW" default:"24h"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"TRIPWORKS_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"TRIPWORKS_AUTO_MIGRATE" default:"false"`
}
