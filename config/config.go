package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	JWT        JWTConfig        `mapstructure:"jwt"`
	Complaint  ComplaintConfig  `mapstructure:"complaint"`
	Media      MediaConfig      `mapstructure:"media"`
	Cloudinary CloudinaryConfig `mapstructure:"cloudinary"`
	Redis      RedisConfig      `mapstructure:"redis"`
	SMTP       SMTPConfig       `mapstructure:"smtp"`
	RateLimit  RateLimitConfig  `mapstructure:"ratelimit"`
	Logger     LoggerConfig     `mapstructure:"logger"`
}

type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	GinMode        string   `mapstructure:"gin_mode"`
	BaseURL        string   `mapstructure:"base_url"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	TimeZone       string   `mapstructure:"time_zone"`
	MaxBodyBytes   int64    `mapstructure:"max_body_bytes"`
}

type DatabaseConfig struct {
	// Driver is "postgres" or "sqlite".
	Driver   string `mapstructure:"driver"`
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"ssl_mode"`
	LogLevel string `mapstructure:"log_level"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	ExpiryHours int    `mapstructure:"expiry_hours"`
	CookieName  string `mapstructure:"cookie_name"`
	Issuer      string `mapstructure:"issuer"`
}

type ComplaintConfig struct {
	// IDFormat selects the identifier generator: "date" or "uuid".
	IDFormat      string `mapstructure:"id_format"`
	IDPrefix      string `mapstructure:"id_prefix"`
	IDMaxAttempts int    `mapstructure:"id_max_attempts"`
	RecentLimit   int    `mapstructure:"recent_limit"`
	QRSize        int    `mapstructure:"qr_size"`
	// QRBackfillInterval is how often complaints without a QR code are retried.
	QRBackfillInterval time.Duration `mapstructure:"qr_backfill_interval"`
	ResetTokenTTL      time.Duration `mapstructure:"reset_token_ttl"`
}

type MediaConfig struct {
	// Backend is "local" or "cloudinary".
	Backend  string `mapstructure:"backend"`
	Root     string `mapstructure:"root"`
	URLPath  string `mapstructure:"url_path"`
	MaxBytes int64  `mapstructure:"max_bytes"`
}

type CloudinaryConfig struct {
	CloudName string `mapstructure:"cloud_name"`
	APIKey    string `mapstructure:"api_key"`
	APISecret string `mapstructure:"api_secret"`
	Folder    string `mapstructure:"folder"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type SMTPConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	User        string `mapstructure:"user"`
	Password    string `mapstructure:"password"`
	FromAddress string `mapstructure:"from_address"`
	FromName    string `mapstructure:"from_name"`
}

type RateLimitConfig struct {
	SubmitPerMinute int `mapstructure:"submit_per_minute"`
	SubmitBurst     int `mapstructure:"submit_burst"`
	LoginPerMinute  int `mapstructure:"login_per_minute"`
	LoginBurst      int `mapstructure:"login_burst"`
}

type LoggerConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

var AppConfig *Config

// Load reads .env (if present) and the AWAZGRAM_* environment into AppConfig.
func Load() (*Config, error) {
	// A missing .env file is fine; the process environment still applies.
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("AWAZGRAM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.Server.AllowedOrigins = splitList(cfg.Server.AllowedOrigins)

	AppConfig = &cfg
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.gin_mode", "debug")
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000", "http://localhost:8080"})
	v.SetDefault("server.time_zone", "Asia/Kolkata")
	v.SetDefault("server.max_body_bytes", 10<<20)

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.url", "")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.name", "awazgram")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.log_level", "warn")

	v.SetDefault("jwt.secret", "your-super-secret-jwt-key-change-this-in-production")
	v.SetDefault("jwt.expiry_hours", 24)
	v.SetDefault("jwt.cookie_name", "awazgram_session")
	v.SetDefault("jwt.issuer", "awazgram-server")

	v.SetDefault("complaint.id_format", "date")
	v.SetDefault("complaint.id_prefix", "AWZ")
	v.SetDefault("complaint.id_max_attempts", 5)
	v.SetDefault("complaint.recent_limit", 5)
	v.SetDefault("complaint.qr_size", 256)
	v.SetDefault("complaint.qr_backfill_interval", time.Minute)
	v.SetDefault("complaint.reset_token_ttl", 72*time.Hour)

	v.SetDefault("media.backend", "local")
	v.SetDefault("media.root", "./media")
	v.SetDefault("media.url_path", "/media")
	v.SetDefault("media.max_bytes", 5<<20)

	v.SetDefault("cloudinary.cloud_name", "")
	v.SetDefault("cloudinary.api_key", "")
	v.SetDefault("cloudinary.api_secret", "")
	v.SetDefault("cloudinary.folder", "awazgram")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("smtp.host", "")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.user", "")
	v.SetDefault("smtp.password", "")
	v.SetDefault("smtp.from_address", "noreply@awazgram.local")
	v.SetDefault("smtp.from_name", "AwazGram")

	v.SetDefault("ratelimit.submit_per_minute", 10)
	v.SetDefault("ratelimit.submit_burst", 20)
	v.SetDefault("ratelimit.login_per_minute", 5)
	v.SetDefault("ratelimit.login_burst", 5)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.output", "stdout")
}

// splitList accepts both a real list and a single comma-separated env value.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Location returns the configured time zone, falling back to UTC.
func (c ServerConfig) Location() *time.Location {
	if c.TimeZone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// DSN builds the Postgres connection string when no URL is provided.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return "host=" + c.Host +
		" port=" + c.Port +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.Name +
		" sslmode=" + c.SSLMode
}
