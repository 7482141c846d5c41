package config

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port            string        `mapstructure:"PORT"`
	Env             string        `mapstructure:"ENV"`
	DatabaseURL     string        `mapstructure:"DATABASE_URL"`
	DBMaxConns      int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns      int32         `mapstructure:"DB_MIN_CONNS"`
	RedisURL        string        `mapstructure:"REDIS_URL"`
	TokenSecret     string        `mapstructure:"TOKEN_SECRET"`
	TokenTTL        time.Duration `mapstructure:"TOKEN_TTL"`
	SessionCacheTTL time.Duration `mapstructure:"SESSION_CACHE_TTL"`
	UploadDir       string        `mapstructure:"UPLOAD_DIR"`
	MaxBodySize     string        `mapstructure:"MAX_BODY_SIZE"`
	RequestTimeout  time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	LoginRateRPS    float64       `mapstructure:"LOGIN_RATE_RPS"`
	LoginRateBurst  int           `mapstructure:"LOGIN_RATE_BURST"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("TOKEN_TTL", "30m")
	v.SetDefault("SESSION_CACHE_TTL", "5m")
	v.SetDefault("UPLOAD_DIR", "./uploads")
	v.SetDefault("MAX_BODY_SIZE", "10M")
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("LOGIN_RATE_RPS", 1)
	v.SetDefault("LOGIN_RATE_BURST", 5)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("REDIS_URL")
	v.BindEnv("TOKEN_SECRET")
	v.BindEnv("TOKEN_TTL")
	v.BindEnv("SESSION_CACHE_TTL")
	v.BindEnv("UPLOAD_DIR")
	v.BindEnv("MAX_BODY_SIZE")
	v.BindEnv("REQUEST_TIMEOUT")
	v.BindEnv("LOGIN_RATE_RPS")
	v.BindEnv("LOGIN_RATE_BURST")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.IsDev() {
		log.Println("WARNING: Server is running in DEVELOPMENT mode (ENV=development).")
		log.Println("WARNING: Token secret length checks are relaxed. Do NOT use in production.")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the configuration is safe to run. TOKEN_SECRET is
// always required because sessions cannot be issued or verified without it;
// in production it must additionally be at least 32 characters so the
// signing key has a usable amount of entropy.
func (c *Config) Validate() error {
	if c.TokenSecret == "" {
		return fmt.Errorf("TOKEN_SECRET is required")
	}
	if c.IsProduction() && len(c.TokenSecret) < 32 {
		return fmt.Errorf("TOKEN_SECRET must be at least 32 characters in production, got %d", len(c.TokenSecret))
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive, got %s", c.TokenTTL)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive, got %s", c.RequestTimeout)
	}
	if c.LoginRateRPS < 0 {
		return fmt.Errorf("LOGIN_RATE_RPS must not be negative, got %g", c.LoginRateRPS)
	}
	return nil
}
