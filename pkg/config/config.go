package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Catalog      CatalogConfig
	Pricing      PricingConfig
	Dedup        DedupConfig
	Janitor      JanitorConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	if err := cfg.Dedup.validate(); err != nil {
		return nil, err
	}
	if cfg.Janitor.Interval <= 0 || cfg.Janitor.CartTTL <= 0 {
		return nil, fmt.Errorf("janitor interval and cart ttl must be positive")
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"DOMEO_APP_ENV" required:"true"`
	Port         string `envconfig:"DOMEO_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"DOMEO_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"DOMEO_LOG_WARN_STACK" default:"false"`

	CORSOrigins []string `envconfig:"DOMEO_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"DOMEO_DB_DSN"`
	Driver string `envconfig:"DOMEO_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"DOMEO_DB_HOST"`
	LegacyPort     int    `envconfig:"DOMEO_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"DOMEO_DB_USER"`
	LegacyPassword string `envconfig:"DOMEO_DB_PASSWORD"`
	LegacyName     string `envconfig:"DOMEO_DB_NAME"`
	LegacySSLMode  string `envconfig:"DOMEO_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"DOMEO_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"DOMEO_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"DOMEO_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"DOMEO_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	SlowQuery       time.Duration `envconfig:"DOMEO_DB_SLOW_QUERY" default:"200ms"`
}

type RedisConfig struct {
	Enabled      bool          `envconfig:"DOMEO_REDIS_ENABLED" default:"true"`
	URL          string        `envconfig:"DOMEO_REDIS_URL"`
	Address      string        `envconfig:"DOMEO_REDIS_ADDR"`
	Password     string        `envconfig:"DOMEO_REDIS_PASSWORD"`
	DB           int           `envconfig:"DOMEO_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"DOMEO_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"DOMEO_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"DOMEO_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"DOMEO_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"DOMEO_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// CatalogConfig points at the remote catalog that prices door configurations.
type CatalogConfig struct {
	BaseURL     string        `envconfig:"DOMEO_CATALOG_BASE_URL" required:"true"`
	APIKey      string        `envconfig:"DOMEO_CATALOG_API_KEY"`
	HTTPTimeout time.Duration `envconfig:"DOMEO_CATALOG_HTTP_TIMEOUT" default:"15s"`
}

type PricingConfig struct {
	CacheTTL            time.Duration `envconfig:"DOMEO_PRICING_CACHE_TTL" default:"5m"`
	Timeout             time.Duration `envconfig:"DOMEO_PRICING_TIMEOUT" default:"10s"`
	ValidateCombination bool          `envconfig:"DOMEO_PRICING_VALIDATE_COMBINATION" default:"true"`
	UseCache            bool          `envconfig:"DOMEO_PRICING_USE_CACHE" default:"true"`
}

type DedupConfig struct {
	Epsilon        string `envconfig:"DOMEO_DEDUP_EPSILON" default:"0.01"`
	CandidateLimit int    `envconfig:"DOMEO_DEDUP_CANDIDATE_LIMIT" default:"20"`
}

// EpsilonDecimal parses the configured total tolerance.
func (d DedupConfig) EpsilonDecimal() decimal.Decimal {
	eps, err := decimal.NewFromString(strings.TrimSpace(d.Epsilon))
	if err != nil || eps.IsNegative() {
		return decimal.RequireFromString(DefaultDedupEpsilon)
	}
	return eps
}

func (d DedupConfig) validate() error {
	if _, err := decimal.NewFromString(strings.TrimSpace(d.Epsilon)); err != nil {
		return fmt.Errorf("invalid %s: %w", EnvDedupEpsilon, err)
	}
	if d.CandidateLimit <= 0 {
		return fmt.Errorf("%s must be positive", EnvDedupCandidateLimit)
	}
	return nil
}

// JanitorConfig drives the in-process maintenance jobs.
type JanitorConfig struct {
	Enabled  bool          `envconfig:"DOMEO_JANITOR_ENABLED" default:"true"`
	Interval time.Duration `envconfig:"DOMEO_JANITOR_INTERVAL" default:"1m"`
	CartTTL  time.Duration `envconfig:"DOMEO_JANITOR_CART_TTL" default:"12h"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool   `envconfig:"DOMEO_USE_SQLITE" default:"false"`
	SQLitePath  string `envconfig:"DOMEO_SQLITE_PATH" default:"domeo.db"`
	AutoMigrate bool   `envconfig:"DOMEO_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if db.DSN != "" || useSQLite {
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
