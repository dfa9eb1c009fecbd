package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvPrefix scopes every environment variable the service reads.
	EnvPrefix = "MERCHSTORE"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "MERCHSTORE_DB_DSN"
	EnvDBHost = "MERCHSTORE_DB_HOST"
	EnvDBUser = "MERCHSTORE_DB_USER"
	EnvDBName = "MERCHSTORE_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Checkout     CheckoutConfig
	Password     PasswordConfig
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
	Env          string `envconfig:"MERCHSTORE_APP_ENV" required:"true"`
	Port         string `envconfig:"MERCHSTORE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"MERCHSTORE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MERCHSTORE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"MERCHSTORE_DB_DSN"`
	Driver string `envconfig:"MERCHSTORE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"MERCHSTORE_DB_HOST"`
	LegacyPort     int    `envconfig:"MERCHSTORE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"MERCHSTORE_DB_USER"`
	LegacyPassword string `envconfig:"MERCHSTORE_DB_PASSWORD"`
	LegacyName     string `envconfig:"MERCHSTORE_DB_NAME"`
	LegacySSLMode  string `envconfig:"MERCHSTORE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"MERCHSTORE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MERCHSTORE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MERCHSTORE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MERCHSTORE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"MERCHSTORE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"MERCHSTORE_REDIS_ADDR"`
	Password     string        `envconfig:"MERCHSTORE_REDIS_PASSWORD"`
	DB           int           `envconfig:"MERCHSTORE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MERCHSTORE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MERCHSTORE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MERCHSTORE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MERCHSTORE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MERCHSTORE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// CheckoutConfig tunes cart/checkout session behavior. Tax is a flat rate
// applied to the subtotal; shipping is free.
type CheckoutConfig struct {
	TaxRatePercent  float64       `envconfig:"MERCHSTORE_CHECKOUT_TAX_RATE_PERCENT" default:"8"`
	DefaultCountry  string        `envconfig:"MERCHSTORE_CHECKOUT_DEFAULT_COUNTRY" default:"United States"`
	SessionTTL      time.Duration `envconfig:"MERCHSTORE_CHECKOUT_SESSION_TTL" default:"24h"`
	MaxUnlimitedQty int           `envconfig:"MERCHSTORE_CHECKOUT_MAX_UNLIMITED_QTY" default:"999"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"MERCHSTORE_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"MERCHSTORE_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"MERCHSTORE_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"MERCHSTORE_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"MERCHSTORE_ARGON_KEY_LEN" default:"32"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"MERCHSTORE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"MERCHSTORE_AUTO_MIGRATE" default:"false"`
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
