package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/milosbg/mbg-admin-backend/pkg/env"
)

type Config struct {
	App        AppConfig
	DB         DBConfig
	Redis      RedisConfig
	JWT        JWTConfig
	Admin      AdminConfig
	Storefront StorefrontConfig
	PayPal     PayPalConfig
	Stripe     StripeConfig
	Clerk      ClerkConfig
	GCP        GCPConfig
	PubSub     PubSubConfig
	Outbox     OutboxConfig
	Events     EventsConfig
	Jobs       JobsConfig
	Features   FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	cfg.Storefront.resolveServiceToken()
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"MBG_APP_ENV" required:"true"`
	Port         string `envconfig:"MBG_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"MBG_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MBG_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"MBG_DB_DSN"`
	Driver string `envconfig:"MBG_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"MBG_DB_HOST"`
	LegacyPort     int    `envconfig:"MBG_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"MBG_DB_USER"`
	LegacyPassword string `envconfig:"MBG_DB_PASSWORD"`
	LegacyName     string `envconfig:"MBG_DB_NAME"`
	LegacySSLMode  string `envconfig:"MBG_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"MBG_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MBG_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MBG_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MBG_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"MBG_REDIS_URL" required:"true"`
	Address      string        `envconfig:"MBG_REDIS_ADDR"`
	Password     string        `envconfig:"MBG_REDIS_PASSWORD"`
	DB           int           `envconfig:"MBG_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MBG_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MBG_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MBG_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MBG_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MBG_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig verifies staff session tokens minted by the identity gateway.
type JWTConfig struct {
	Secret            string `envconfig:"MBG_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"MBG_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"MBG_JWT_EXPIRATION_MINUTES" default:"60"`
}

// AdminConfig is the staff authorization policy.
type AdminConfig struct {
	Emails string `envconfig:"ADMIN_EMAILS"`
	Roles  string `envconfig:"ADMIN_ROLES"`
}

func (a AdminConfig) EmailList() []string {
	return env.List(a.Emails)
}

func (a AdminConfig) RoleList() []string {
	return env.List(a.Roles)
}

type StorefrontConfig struct {
	// ServiceToken is resolved from the first non-empty of the known token variables.
	ServiceToken string `ignored:"true"`
	StoreURL     string `envconfig:"ECOMMERCE_STORE_URL"`
	BrandName    string `envconfig:"MBG_BRAND_NAME" default:"Milos BG"`
}

func (s *StorefrontConfig) resolveServiceToken() {
	s.ServiceToken = env.First(serviceTokenVars...)
}

type PayPalConfig struct {
	ClientID  string        `envconfig:"PAYPAL_CLIENT_ID"`
	Secret    string        `envconfig:"PAYPAL_CLIENT_SECRET"`
	Env       string        `envconfig:"PAYPAL_ENV" default:"sandbox"`
	WebhookID string        `envconfig:"PAYPAL_WEBHOOK_ID"`
	Timeout   time.Duration `envconfig:"MBG_PAYPAL_TIMEOUT" default:"20s"`
}

// BaseURL returns the REST endpoint for the configured PayPal environment.
func (p PayPalConfig) BaseURL() string {
	if strings.EqualFold(strings.TrimSpace(p.Env), "live") {
		return PayPalLiveURL
	}
	return PayPalSandboxURL
}

type StripeConfig struct {
	APIKey  string        `envconfig:"STRIPE_SECRET_KEY"`
	Secret  string        `envconfig:"STRIPE_WEBHOOK_SECRET"`
	Env     string        `envconfig:"MBG_STRIPE_ENV" default:"test"`
	Timeout time.Duration `envconfig:"MBG_STRIPE_TIMEOUT" default:"20s"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type ClerkConfig struct {
	SecretKey string        `envconfig:"CLERK_SECRET_KEY"`
	BaseURL   string        `envconfig:"MBG_CLERK_API_URL" default:"https://api.clerk.com/v1"`
	Timeout   time.Duration `envconfig:"MBG_CLERK_TIMEOUT" default:"15s"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"MBG_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	OrdersTopic string `envconfig:"MBG_PUBSUB_ORDERS_TOPIC" default:"mbg-order-events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"MBG_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"MBG_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"MBG_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type EventsConfig struct {
	RedisChannel string        `envconfig:"MBG_EVENTS_REDIS_CHANNEL" default:"mbg:product-events"`
	Heartbeat    time.Duration `envconfig:"MBG_EVENTS_HEARTBEAT" default:"25s"`
	BufferSize   int           `envconfig:"MBG_EVENTS_BUFFER" default:"16"`
}

// JobsConfig drives the maintenance worker.
type JobsConfig struct {
	Interval            time.Duration `envconfig:"MBG_JOBS_INTERVAL" default:"24h"`
	OutboxRetentionDays int           `envconfig:"MBG_OUTBOX_RETENTION_DAYS" default:"30"`
	EnrichCustomers     bool          `envconfig:"MBG_JOBS_ENRICH_CUSTOMERS" default:"true"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"MBG_AUTO_MIGRATE" default:"false"`
	RedisRelay  bool `envconfig:"MBG_EVENTS_REDIS_RELAY" default:"true"`
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
