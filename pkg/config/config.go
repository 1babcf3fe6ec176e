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

	EnvDBDSN  = "PRINTHAUS_DB_DSN"
	EnvDBHost = "PRINTHAUS_DB_HOST"
	EnvDBUser = "PRINTHAUS_DB_USER"
	EnvDBName = "PRINTHAUS_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Stripe       StripeConfig
	Loyalty      LoyaltyConfig
	Orders       OrdersConfig
	Webhooks     WebhooksConfig
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
	Env          string `envconfig:"PRINTHAUS_APP_ENV" required:"true"`
	Port         string `envconfig:"PRINTHAUS_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"PRINTHAUS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PRINTHAUS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"PRINTHAUS_DB_DSN"`
	Driver string `envconfig:"PRINTHAUS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"PRINTHAUS_DB_HOST"`
	LegacyPort     int    `envconfig:"PRINTHAUS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PRINTHAUS_DB_USER"`
	LegacyPassword string `envconfig:"PRINTHAUS_DB_PASSWORD"`
	LegacyName     string `envconfig:"PRINTHAUS_DB_NAME"`
	LegacySSLMode  string `envconfig:"PRINTHAUS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PRINTHAUS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PRINTHAUS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PRINTHAUS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PRINTHAUS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PRINTHAUS_REDIS_URL" required:"true"`
	Address      string        `envconfig:"PRINTHAUS_REDIS_ADDR"`
	Password     string        `envconfig:"PRINTHAUS_REDIS_PASSWORD"`
	DB           int           `envconfig:"PRINTHAUS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PRINTHAUS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PRINTHAUS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PRINTHAUS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PRINTHAUS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PRINTHAUS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type StripeConfig struct {
	APIKey string `envconfig:"PRINTHAUS_STRIPE_API_KEY"`
	Secret string `envconfig:"PRINTHAUS_STRIPE_SECRET"`
	Env    string `envconfig:"PRINTHAUS_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type LoyaltyConfig struct {
	// Points awarded per whole currency unit paid.
	AwardRate int `envconfig:"PRINTHAUS_LOYALTY_AWARD_RATE" default:"1"`
	// Cents of discount per redeemed point.
	RedeemValueCents int `envconfig:"PRINTHAUS_LOYALTY_REDEEM_VALUE_CENTS" default:"1"`
}

type OrdersConfig struct {
	Currency string `envconfig:"PRINTHAUS_ORDERS_CURRENCY" default:"usd"`
}

type WebhooksConfig struct {
	IdempotencyTTL time.Duration `envconfig:"PRINTHAUS_WEBHOOK_IDEMPOTENCY_TTL" default:"720h"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"PRINTHAUS_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"PRINTHAUS_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
