package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// -----------------------------------------------------------------------------
// Environment variable configuration guidelines:
// - required: Values that differ between environments (port, DB connection, etc.), security settings
// - default: Values common across all environments (timezone, timeout, etc.), standard settings
// -----------------------------------------------------------------------------

type Config struct {
	Server  ServerConfig
	DB      DBConfig
	Redis   RedisConfig
	CORS    CORSConfig
	Log     LogConfig
	JWT     JWTConfig
	Payment PaymentConfig
	Booking BookingConfig
}

type ServerConfig struct {
	Port string `envconfig:"PORT" required:"true"`
}

type DBConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" required:"true"`
	Password string `envconfig:"DB_PASSWORD" required:"true"`
	DBName   string `envconfig:"DB_NAME" required:"true"`
	SSLMode  string `envconfig:"DB_SSL_MODE" default:"disable"`
	TimeZone string `envconfig:"DB_TIMEZONE" default:"Asia/Tokyo"`
}

type RedisConfig struct {
	Addr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	Password string `envconfig:"REDIS_PASSWORD" default:""`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

type CORSConfig struct {
	AllowOrigins     []string      `envconfig:"CORS_ALLOW_ORIGINS" default:"http://localhost:3000,http://localhost:8080"`
	AllowMethods     []string      `envconfig:"CORS_ALLOW_METHODS" default:"GET,POST,PUT,PATCH,DELETE,OPTIONS"`
	AllowHeaders     []string      `envconfig:"CORS_ALLOW_HEADERS" default:"Origin,Content-Type,Accept,Authorization,Idempotency-Key"`
	ExposeHeaders    []string      `envconfig:"CORS_EXPOSE_HEADERS" default:"Content-Length"`
	AllowCredentials bool          `envconfig:"CORS_ALLOW_CREDENTIALS" default:"true"`
	MaxAge           time.Duration `envconfig:"CORS_MAX_AGE" default:"12h"`
}

type LogConfig struct {
	Level          string `envconfig:"LOG_LEVEL" default:"info"`
	TimeZone       string `envconfig:"LOG_TIMEZONE" default:"Asia/Tokyo"`
	TimeFormat     string `envconfig:"LOG_TIME_FORMAT" default:"2006-01-02 15:04:05.000"`
	TimeZoneOffset int    `envconfig:"LOG_TIMEZONE_OFFSET" default:"32400"` // 9*60*60
}

type JWTConfig struct {
	Secret string `envconfig:"JWT_SECRET" required:"true"`
}

// PaymentConfig covers the external gateway and its webhook feed.
type PaymentConfig struct {
	GatewayBaseURL string        `envconfig:"PAYMENT_GATEWAY_BASE_URL" required:"true"`
	GatewayAPIKey  string        `envconfig:"PAYMENT_GATEWAY_API_KEY" required:"true"`
	GatewayTimeout time.Duration `envconfig:"PAYMENT_GATEWAY_TIMEOUT" default:"10s"`
	WebhookSecret  string        `envconfig:"PAYMENT_WEBHOOK_SECRET" required:"true"`
	// Dedupe entries must outlive the provider's webhook retry window.
	EventDedupeTTL time.Duration `envconfig:"PAYMENT_EVENT_DEDUPE_TTL" default:"48h"`
}

// BookingConfig holds lifecycle and refund policy knobs.
type BookingConfig struct {
	// AWAITING_PAYMENT bookings older than this are swept to FAILED.
	AuthorizationTimeout time.Duration `envconfig:"BOOKING_AUTHORIZATION_TIMEOUT" default:"30m"`
	SweepInterval        time.Duration `envconfig:"BOOKING_SWEEP_INTERVAL" default:"5m"`
	// Full refund when cancelled earlier than RefundCutoff before start.
	RefundCutoff time.Duration `envconfig:"BOOKING_REFUND_CUTOFF" default:"24h"`
	// Percentage refunded inside the cutoff but before the window starts.
	LateRefundPercent int           `envconfig:"BOOKING_LATE_REFUND_PERCENT" default:"50"`
	IdempotencyTTL    time.Duration `envconfig:"BOOKING_IDEMPOTENCY_TTL" default:"24h"`
}

func (c *DBConfig) BuildDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&timezone=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode, c.TimeZone,
	)
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("failed to process env config: %w", err)
	}
	return cfg, nil
}

func NewTestConfig() Config {
	return Config{
		Server: ServerConfig{
			Port: "8889", // Test port
		},
		DB: DBConfig{
			Host:     "localhost",
			Port:     "15433", // Test DB port
			User:     "test",
			Password: "test",
			DBName:   "test_db",
			SSLMode:  "disable",
			TimeZone: "Asia/Tokyo",
		},
		Log: LogConfig{
			Level:          "error", // Error level only for tests
			TimeZone:       "Asia/Tokyo",
			TimeFormat:     "2006-01-02 15:04:05.000",
			TimeZoneOffset: 32400,
		},
		JWT: JWTConfig{
			Secret: "test-secret",
		},
		Payment: PaymentConfig{
			GatewayBaseURL: "http://localhost:18080",
			GatewayAPIKey:  "test-key",
			GatewayTimeout: 2 * time.Second,
			WebhookSecret:  "test-webhook-secret",
			EventDedupeTTL: time.Hour,
		},
		Booking: BookingConfig{
			AuthorizationTimeout: 30 * time.Minute,
			SweepInterval:        time.Minute,
			RefundCutoff:         24 * time.Hour,
			LateRefundPercent:    50,
			IdempotencyTTL:       time.Hour,
		},
	}
}
