package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Razorpay     RazorpayConfig
	Sendgrid     SendgridConfig
	Storefront   StorefrontConfig
	RateLimit    RateLimitConfig
	Idempotency  IdempotencyConfig
	Cron         CronConfig
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
	cfg.Storefront.AllowedOrigins = normalizeOrigins(cfg.Storefront.AllowedOrigins)
	cfg.Storefront.AdminOrigins = normalizeOrigins(cfg.Storefront.AdminOrigins)
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SHOPCONSOLE_APP_ENV" required:"true"`
	Port         string `envconfig:"SHOPCONSOLE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SHOPCONSOLE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SHOPCONSOLE_LOG_WARN_STACK" default:"false"`

	// PublicURL is used in customer emails to link back to the storefront.
	PublicURL       string        `envconfig:"SHOPCONSOLE_PUBLIC_URL"`
	ShutdownTimeout time.Duration `envconfig:"SHOPCONSOLE_SHUTDOWN_TIMEOUT" default:"15s"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"SHOPCONSOLE_DB_DSN"`

	LegacyHost     string `envconfig:"SHOPCONSOLE_DB_HOST"`
	LegacyPort     int    `envconfig:"SHOPCONSOLE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SHOPCONSOLE_DB_USER"`
	LegacyPassword string `envconfig:"SHOPCONSOLE_DB_PASSWORD"`
	LegacyName     string `envconfig:"SHOPCONSOLE_DB_NAME"`
	LegacySSLMode  string `envconfig:"SHOPCONSOLE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SHOPCONSOLE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SHOPCONSOLE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SHOPCONSOLE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SHOPCONSOLE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SHOPCONSOLE_REDIS_URL" required:"true"`
	Password     string        `envconfig:"SHOPCONSOLE_REDIS_PASSWORD"`
	DB           int           `envconfig:"SHOPCONSOLE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SHOPCONSOLE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SHOPCONSOLE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SHOPCONSOLE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SHOPCONSOLE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SHOPCONSOLE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"SHOPCONSOLE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"SHOPCONSOLE_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"SHOPCONSOLE_JWT_EXPIRATION_MINUTES" default:"60"`
}

// RazorpayConfig holds gateway credentials. WebhookSecret is checked per request so a
// missing value surfaces as a configuration error instead of failing boot.
type RazorpayConfig struct {
	KeyID         string        `envconfig:"SHOPCONSOLE_RAZORPAY_KEY_ID"`
	KeySecret     string        `envconfig:"SHOPCONSOLE_RAZORPAY_KEY_SECRET"`
	WebhookSecret string        `envconfig:"SHOPCONSOLE_RAZORPAY_WEBHOOK_SECRET"`
	Currency      string        `envconfig:"SHOPCONSOLE_RAZORPAY_CURRENCY" default:"INR"`
	Timeout       time.Duration `envconfig:"SHOPCONSOLE_RAZORPAY_TIMEOUT" default:"10s"`
	MaxRetries    int           `envconfig:"SHOPCONSOLE_RAZORPAY_MAX_RETRIES" default:"3"`
	RetryBase     time.Duration `envconfig:"SHOPCONSOLE_RAZORPAY_RETRY_BASE" default:"200ms"`
}

// Enabled reports whether API credentials are present.
func (r RazorpayConfig) Enabled() bool {
	return strings.TrimSpace(r.KeyID) != "" && strings.TrimSpace(r.KeySecret) != ""
}

type SendgridConfig struct {
	APIKey    string `envconfig:"SHOPCONSOLE_SENDGRID_API_KEY"`
	FromEmail string `envconfig:"SHOPCONSOLE_SENDGRID_FROM_EMAIL" default:"orders@shopconsole.local"`
	FromName  string `envconfig:"SHOPCONSOLE_SENDGRID_FROM_NAME" default:"Shop Console"`
}

type StorefrontConfig struct {
	AllowedOrigins []string `envconfig:"SHOPCONSOLE_STOREFRONT_ORIGINS"`
	AdminOrigins   []string `envconfig:"SHOPCONSOLE_ADMIN_ORIGINS"`
}

type RateLimitConfig struct {
	Window  time.Duration `envconfig:"SHOPCONSOLE_RATE_LIMIT_WINDOW" default:"1m"`
	IPLimit int           `envconfig:"SHOPCONSOLE_RATE_LIMIT_IP_LIMIT" default:"60"`
}

type IdempotencyConfig struct {
	RequestTTL      time.Duration `envconfig:"SHOPCONSOLE_IDEMPOTENCY_TTL" default:"24h"`
	WebhookEventTTL time.Duration `envconfig:"SHOPCONSOLE_WEBHOOK_EVENT_TTL" default:"72h"`
}

type CronConfig struct {
	Interval         time.Duration `envconfig:"SHOPCONSOLE_CRON_INTERVAL" default:"5m"`
	LockTTL          time.Duration `envconfig:"SHOPCONSOLE_CRON_LOCK_TTL" default:"2m"`
	StaleCheckoutTTL time.Duration `envconfig:"SHOPCONSOLE_STALE_CHECKOUT_TTL" default:"24h"`
	BatchSize        int           `envconfig:"SHOPCONSOLE_CRON_BATCH_SIZE" default:"200"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"SHOPCONSOLE_AUTO_MIGRATE" default:"false"`
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

func normalizeOrigins(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, origin := range origins {
		origin = strings.TrimRight(strings.TrimSpace(origin), "/")
		if origin != "" {
			out = append(out, origin)
		}
	}
	return out
}
