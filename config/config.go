package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig         `mapstructure:"server"`
	Database  DatabaseConfig       `mapstructure:"database"`
	Redis     RedisConfig          `mapstructure:"redis"`
	JWT       JWTConfig            `mapstructure:"jwt"`
	Stripe    StripeConfig         `mapstructure:"stripe"`
	Email     EmailConfig          `mapstructure:"email"`
	OSS       OSSConfig            `mapstructure:"oss"`
	CORS      CORSConfig           `mapstructure:"cors"`
	AuthCache AuthCacheConfig      `mapstructure:"auth_cache"`
	Tracker   TrackerConfig        `mapstructure:"tracker"`
	Session   SessionConfig        `mapstructure:"session"`
	Plans     map[string]PlanLevel `mapstructure:"plans"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

type StripeConfig struct {
	SecretKey        string `mapstructure:"secret_key"`
	WebhookSecret    string `mapstructure:"webhook_secret"`
	SuccessURL       string `mapstructure:"success_url"`
	CancelURL        string `mapstructure:"cancel_url"`
	PortalReturnURL  string `mapstructure:"portal_return_url"`
}

type EmailConfig struct {
	SMTPHost string `mapstructure:"smtp_host"`
	SMTPPort int    `mapstructure:"smtp_port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type OSSConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	AccessKeySecret string `mapstructure:"access_key_secret"`
	BucketName      string `mapstructure:"bucket_name"`
	CDNDomain       string `mapstructure:"cdn_domain"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
}

// AuthCacheConfig bounds the token-validation cache injected into the auth
// middleware.
type AuthCacheConfig struct {
	MaxEntries int `mapstructure:"max_entries"`
	TTLSeconds int `mapstructure:"ttl_seconds"`
}

type TrackerConfig struct {
	InactivitySeconds int `mapstructure:"inactivity_seconds"`
	PointerSampleRate int `mapstructure:"pointer_sample_rate"`
	LoginPollSeconds  int `mapstructure:"login_poll_seconds"`
	SnapshotTTLHours  int `mapstructure:"snapshot_ttl_hours"`
}

type SessionConfig struct {
	StaleAfterHours    int `mapstructure:"stale_after_hours"`
	EventRetentionDays int `mapstructure:"event_retention_days"`
	OTPExpireMinutes   int `mapstructure:"otp_expire_minutes"`
}

type PlanLevel struct {
	UserLimit int     `mapstructure:"user_limit"`
	Price     float64 `mapstructure:"price"`
	PriceID   string  `mapstructure:"price_id"`
}

func Load(configPath string) (*Config, error) {
	// Prefer config.local.yaml (real secrets, not committed) when present.
	dir := filepath.Dir(configPath)
	localConfigPath := filepath.Join(dir, "config.local.yaml")

	if _, err := os.Stat(localConfigPath); err == nil {
		configPath = localConfigPath
	}

	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	// Environment variables override file values.
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
