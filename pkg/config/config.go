package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "orderchat"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "ORDERCHAT_DB_DSN"
	EnvDBHost = "ORDERCHAT_DB_HOST"
	EnvDBUser = "ORDERCHAT_DB_USER"
	EnvDBName = "ORDERCHAT_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Webhook      WebhookConfig
	Worker       WorkerConfig
	WMS          WMSConfig
	SMS          SMSConfig
	Line         LineConfig
	Flow         FlowConfig
	Alerts       AlertsConfig
	Shipping     ShippingCacheConfig
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
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"ORDERCHAT_APP_ENV" required:"true"`
	Port         string `envconfig:"ORDERCHAT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"ORDERCHAT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ORDERCHAT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"ORDERCHAT_DB_DSN"`
	Driver string `envconfig:"ORDERCHAT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"ORDERCHAT_DB_HOST"`
	LegacyPort     int    `envconfig:"ORDERCHAT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"ORDERCHAT_DB_USER"`
	LegacyPassword string `envconfig:"ORDERCHAT_DB_PASSWORD"`
	LegacyName     string `envconfig:"ORDERCHAT_DB_NAME"`
	LegacySSLMode  string `envconfig:"ORDERCHAT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"ORDERCHAT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ORDERCHAT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ORDERCHAT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ORDERCHAT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"ORDERCHAT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"ORDERCHAT_REDIS_ADDR"`
	Password     string        `envconfig:"ORDERCHAT_REDIS_PASSWORD"`
	DB           int           `envconfig:"ORDERCHAT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ORDERCHAT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ORDERCHAT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ORDERCHAT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ORDERCHAT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ORDERCHAT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"ORDERCHAT_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"ORDERCHAT_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"ORDERCHAT_JWT_EXPIRATION_MINUTES" default:"60"`
}

// WebhookConfig covers the chat-platform intake surface.
type WebhookConfig struct {
	VerifyToken string        `envconfig:"ORDERCHAT_WEBHOOK_VERIFY_TOKEN" required:"true"`
	AppSecret   string        `envconfig:"ORDERCHAT_WEBHOOK_APP_SECRET" required:"true"`
	WorkerURL   string        `envconfig:"ORDERCHAT_WEBHOOK_WORKER_URL" required:"true"`
	ForwardTTL  time.Duration `envconfig:"ORDERCHAT_WEBHOOK_FORWARD_TIMEOUT" default:"10s"`
	DedupTTL    time.Duration `envconfig:"ORDERCHAT_WEBHOOK_DEDUP_TTL" default:"24h"`
}

type WorkerConfig struct {
	Port string `envconfig:"ORDERCHAT_WORKER_PORT" default:"8081"`
}

type WMSConfig struct {
	BaseURL    string        `envconfig:"ORDERCHAT_WMS_BASE_URL" required:"true"`
	APIKey     string        `envconfig:"ORDERCHAT_WMS_API_KEY"`
	Timeout    time.Duration `envconfig:"ORDERCHAT_WMS_TIMEOUT" default:"10s"`
	MaxRetries int           `envconfig:"ORDERCHAT_WMS_MAX_RETRIES" default:"3"`
	RetryDelay time.Duration `envconfig:"ORDERCHAT_WMS_RETRY_DELAY" default:"1s"`
}

type SMSConfig struct {
	BaseURL string `envconfig:"ORDERCHAT_SMS_BASE_URL"`
	APIKey  string `envconfig:"ORDERCHAT_SMS_API_KEY"`
	Sender  string `envconfig:"ORDERCHAT_SMS_SENDER" default:"ORDERCHAT"`
}

type LineConfig struct {
	PushURL      string `envconfig:"ORDERCHAT_LINE_PUSH_URL" default:"https://api.line.me/v2/bot/message/push"`
	ChannelToken string `envconfig:"ORDERCHAT_LINE_CHANNEL_TOKEN"`
}

// FlowConfig bounds the out-of-process extraction collaborator.
type FlowConfig struct {
	BaseURL string        `envconfig:"ORDERCHAT_FLOW_BASE_URL"`
	APIKey  string        `envconfig:"ORDERCHAT_FLOW_API_KEY"`
	Timeout time.Duration `envconfig:"ORDERCHAT_FLOW_TIMEOUT" default:"30s"`
}

// AlertsConfig lists the operators paged when turn handling fails.
type AlertsConfig struct {
	SMSRecipients  []string `envconfig:"ORDERCHAT_ALERT_SMS_RECIPIENTS"`
	LineRecipients []string `envconfig:"ORDERCHAT_ALERT_LINE_RECIPIENTS"`
}

type ShippingCacheConfig struct {
	SettingsTTL time.Duration `envconfig:"ORDERCHAT_SHIPPING_SETTINGS_CACHE_TTL" default:"5m"`
	ProductTTL  time.Duration `envconfig:"ORDERCHAT_SHIPPING_PRODUCT_CACHE_TTL" default:"1h"`
}

type CronConfig struct {
	TickInterval  time.Duration `envconfig:"ORDERCHAT_CRON_TICK_INTERVAL" default:"1m"`
	LockTTL       time.Duration `envconfig:"ORDERCHAT_CRON_LOCK_TTL" default:"5m"`
	CartClearHour int           `envconfig:"ORDERCHAT_CRON_CART_CLEAR_HOUR" default:"0"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"ORDERCHAT_AUTO_MIGRATE" default:"false"`
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
