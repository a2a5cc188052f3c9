package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	GRPC     GRPCConfig     `yaml:"grpc"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Auth     AuthConfig     `yaml:"auth"`
	SMTP     SMTPConfig     `yaml:"smtp"`
	Booking  BookingConfig  `yaml:"booking"`
	Realtime RealtimeConfig `yaml:"realtime"`
	Logging  LoggingConfig  `yaml:"logging"`
	Worker   WorkerConfig   `yaml:"worker"`
}

type HTTPConfig struct {
	Address        string   `yaml:"address"`
	SwaggerDir     string   `yaml:"swagger_dir"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	MaxBodyBytes   int64    `yaml:"max_body_bytes"`
	// AuthRateLimit is the number of auth requests allowed per second per client IP.
	AuthRateLimit float64 `yaml:"auth_rate_limit"`
	AuthRateBurst int     `yaml:"auth_rate_burst"`
}

type GRPCConfig struct {
	Address string `yaml:"address"`
}

type DatabaseConfig struct {
	Host          string `yaml:"host"`
	Port          int    `yaml:"port"`
	User          string `yaml:"user"`
	Password      string `yaml:"password"`
	Name          string `yaml:"name"`
	SSLMode       string `yaml:"ssl_mode"`
	MigrationsDir string `yaml:"migrations_dir"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers"`
	BookingEventsTopic string   `yaml:"booking_events_topic"`
	GroupID            string   `yaml:"group_id"`
}

type AuthConfig struct {
	JWTSecret      string        `yaml:"jwt_secret"`
	TokenTTL       time.Duration `yaml:"token_ttl"`
	ResetCodeTTL   time.Duration `yaml:"reset_code_ttl"`
	PasswordCost   int           `yaml:"password_cost"`
	ClientResetURL string        `yaml:"client_reset_url"`
}

type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

type BookingConfig struct {
	ToursCacheTTLSeconds     int `yaml:"tours_cache_ttl_seconds"`
	DashboardCacheTTLSeconds int `yaml:"dashboard_cache_ttl_seconds"`
}

func (b BookingConfig) ToursCacheTTL() time.Duration {
	return time.Duration(b.ToursCacheTTLSeconds) * time.Second
}

func (b BookingConfig) DashboardCacheTTL() time.Duration {
	return time.Duration(b.DashboardCacheTTLSeconds) * time.Second
}

type RealtimeConfig struct {
	// Broker selects cross-instance fan-out: "local", "redis" or "nats".
	Broker       string `yaml:"broker"`
	Channel      string `yaml:"channel"`
	NATSURL      string `yaml:"nats_url"`
	SendBuffer   int    `yaml:"send_buffer"`
	AllowOrigins bool   `yaml:"allow_all_origins"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

type WorkerConfig struct {
	NotificationSweepCron string `yaml:"notification_sweep_cron"`
	NotificationRetention int    `yaml:"notification_retention_days"`
	EmailConcurrency      int    `yaml:"email_concurrency"`
}

// LoadConfig reads the YAML file at path. A .env file next to the binary is
// loaded first when present, and ${VAR} references in the YAML are expanded
// from the environment.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	if len(c.HTTP.AllowedOrigins) == 0 {
		c.HTTP.AllowedOrigins = []string{"*"}
	}
	if c.HTTP.MaxBodyBytes == 0 {
		c.HTTP.MaxBodyBytes = 1 << 20
	}
	if c.HTTP.AuthRateLimit == 0 {
		c.HTTP.AuthRateLimit = 5
	}
	if c.HTTP.AuthRateBurst == 0 {
		c.HTTP.AuthRateBurst = 10
	}
	if c.GRPC.Address == "" {
		c.GRPC.Address = ":9090"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Database.MigrationsDir == "" {
		c.Database.MigrationsDir = "migrations"
	}
	if c.Kafka.BookingEventsTopic == "" {
		c.Kafka.BookingEventsTopic = "booking-events"
	}
	if c.Kafka.GroupID == "" {
		c.Kafka.GroupID = "tourbooking-worker"
	}
	if c.Auth.TokenTTL == 0 {
		c.Auth.TokenTTL = 24 * time.Hour
	}
	if c.Auth.ResetCodeTTL == 0 {
		c.Auth.ResetCodeTTL = 15 * time.Minute
	}
	if c.Auth.PasswordCost == 0 {
		c.Auth.PasswordCost = 12
	}
	if c.SMTP.Port == 0 {
		c.SMTP.Port = 587
	}
	if c.Booking.ToursCacheTTLSeconds == 0 {
		c.Booking.ToursCacheTTLSeconds = 60
	}
	if c.Booking.DashboardCacheTTLSeconds == 0 {
		c.Booking.DashboardCacheTTLSeconds = 30
	}
	if c.Realtime.Broker == "" {
		c.Realtime.Broker = "local"
	}
	if c.Realtime.Channel == "" {
		c.Realtime.Channel = "tourbooking.notifications"
	}
	if c.Realtime.SendBuffer == 0 {
		c.Realtime.SendBuffer = 16
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Worker.NotificationSweepCron == "" {
		c.Worker.NotificationSweepCron = "0 3 * * *"
	}
	if c.Worker.NotificationRetention == 0 {
		c.Worker.NotificationRetention = 90
	}
	if c.Worker.EmailConcurrency == 0 {
		c.Worker.EmailConcurrency = 5
	}
}

func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required")
	}
	if c.Database.Name == "" {
		return errors.New("database.name is required")
	}
	switch c.Realtime.Broker {
	case "local", "redis":
	case "nats":
		if c.Realtime.NATSURL == "" {
			return errors.New("realtime.nats_url is required for the nats broker")
		}
	default:
		return fmt.Errorf("unknown realtime broker %q", c.Realtime.Broker)
	}
	return nil
}
