package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is built once at process start and passed explicitly to every
// component that talks to an external service.
type Config struct {
	HTTP struct {
		Addr            string
		ShutdownTimeout time.Duration
	}
	DB struct {
		Driver string
		DSN    string
	}
	Log struct {
		Level  string
		Format string
	}
	Assets AssetsConfig
	Email  EmailConfig
	Notify NotifyConfig
}

// AssetsConfig configures the object store that holds category images.
type AssetsConfig struct {
	Backend         string // s3 or memory
	Bucket          string
	Region          string
	Endpoint        string // optional, for S3-compatible services
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
	PublicBaseURL   string // optional override for the returned object URL
	Prefix          string
	Timeout         time.Duration
}

// EmailConfig configures the transactional email service.
type EmailConfig struct {
	Backend         string // ses or log
	From            string
	Region          string
	Endpoint        string // optional, for SES-compatible services
	AccessKeyID     string
	SecretAccessKey string
	ClientURL       string
	SiteName        string
	Timeout         time.Duration
}

// NotifyConfig sizes the background notification pipeline.
type NotifyConfig struct {
	Workers     int
	QueueSize   int
	Concurrency int
	JobTimeout  time.Duration
}

// Load reads config from environment (CURATED_ prefix) and optional curated-links.yaml.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CURATED")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetConfigName("curated-links")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // optional config file

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.shutdown_timeout", "15s")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("assets.backend", "s3")
	v.SetDefault("assets.region", "us-east-1")
	v.SetDefault("assets.prefix", "category")
	v.SetDefault("assets.timeout", "30s")
	v.SetDefault("email.backend", "ses")
	v.SetDefault("email.site_name", "Curated Links")
	v.SetDefault("email.timeout", "10s")
	v.SetDefault("notify.workers", 2)
	v.SetDefault("notify.queue_size", 256)
	v.SetDefault("notify.concurrency", 8)
	v.SetDefault("notify.job_timeout", "2m")

	cfg := &Config{}
	cfg.HTTP.Addr = v.GetString("http.addr")
	cfg.DB.Driver = v.GetString("db.driver")
	cfg.DB.DSN = v.GetString("db.dsn")
	cfg.Log.Level = v.GetString("log.level")
	cfg.Log.Format = v.GetString("log.format")

	cfg.Assets = AssetsConfig{
		Backend:         v.GetString("assets.backend"),
		Bucket:          v.GetString("assets.bucket"),
		Region:          v.GetString("assets.region"),
		Endpoint:        v.GetString("assets.endpoint"),
		AccessKeyID:     v.GetString("assets.access_key_id"),
		SecretAccessKey: v.GetString("assets.secret_access_key"),
		UsePathStyle:    v.GetBool("assets.use_path_style"),
		PublicBaseURL:   v.GetString("assets.public_base_url"),
		Prefix:          v.GetString("assets.prefix"),
	}
	cfg.Email = EmailConfig{
		Backend:         v.GetString("email.backend"),
		From:            v.GetString("email.from"),
		Region:          v.GetString("email.region"),
		Endpoint:        v.GetString("email.endpoint"),
		AccessKeyID:     v.GetString("email.access_key_id"),
		SecretAccessKey: v.GetString("email.secret_access_key"),
		ClientURL:       v.GetString("email.client_url"),
		SiteName:        v.GetString("email.site_name"),
	}
	cfg.Notify = NotifyConfig{
		Workers:     v.GetInt("notify.workers"),
		QueueSize:   v.GetInt("notify.queue_size"),
		Concurrency: v.GetInt("notify.concurrency"),
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"http.shutdown_timeout", &cfg.HTTP.ShutdownTimeout},
		{"assets.timeout", &cfg.Assets.Timeout},
		{"email.timeout", &cfg.Email.Timeout},
		{"notify.job_timeout", &cfg.Notify.JobTimeout},
	}
	for _, d := range durations {
		parsed, err := time.ParseDuration(v.GetString(d.key))
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", envName(d.key), err)
		}
		*d.dst = parsed
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) validate() error {
	if cfg.DB.Driver == "" {
		return fmt.Errorf("CURATED_DB_DRIVER is required (sqlite3, mysql, postgres)")
	}
	if cfg.DB.DSN == "" {
		return fmt.Errorf("CURATED_DB_DSN is required")
	}

	switch cfg.Assets.Backend {
	case "s3":
		if cfg.Assets.Bucket == "" {
			return fmt.Errorf("CURATED_ASSETS_BUCKET is required for the s3 backend")
		}
	case "memory":
	default:
		return fmt.Errorf("unsupported CURATED_ASSETS_BACKEND %q: must be s3 or memory", cfg.Assets.Backend)
	}

	switch cfg.Email.Backend {
	case "ses":
		if cfg.Email.From == "" {
			return fmt.Errorf("CURATED_EMAIL_FROM is required for the ses backend")
		}
		if cfg.Email.Region == "" {
			cfg.Email.Region = cfg.Assets.Region
		}
		// Static keys are shared with the asset store unless set explicitly.
		if cfg.Email.AccessKeyID == "" && cfg.Email.SecretAccessKey == "" {
			cfg.Email.AccessKeyID = cfg.Assets.AccessKeyID
			cfg.Email.SecretAccessKey = cfg.Assets.SecretAccessKey
		}
	case "log":
	default:
		return fmt.Errorf("unsupported CURATED_EMAIL_BACKEND %q: must be ses or log", cfg.Email.Backend)
	}

	if cfg.Notify.Workers < 1 {
		return fmt.Errorf("CURATED_NOTIFY_WORKERS must be at least 1")
	}
	if cfg.Notify.QueueSize < 1 {
		return fmt.Errorf("CURATED_NOTIFY_QUEUE_SIZE must be at least 1")
	}
	if cfg.Notify.Concurrency < 1 {
		cfg.Notify.Concurrency = 1
	}
	return nil
}

func envName(key string) string {
	return "CURATED_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}
