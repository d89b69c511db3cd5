// Package config loads CLI settings from an optional config file and FORMRIG_*
// environment variables.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Upload backends.
const (
	BackendDir = "dir"
	BackendS3  = "s3"
)

// Config is the resolved CLI configuration.
type Config struct {
	Log    LogConfig
	Upload UploadConfig
	Signup SignupConfig
}

type LogConfig struct {
	Level string
	File  string
}

type UploadConfig struct {
	Backend string
	Dir     string
	S3      S3Config
}

type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	KeyPrefix       string
}

type SignupConfig struct {
	EmailDomain    string
	MaxAvatarBytes int64
}

// Load reads configuration. path may be empty; environment variables override the
// file, e.g. FORMRIG_UPLOAD_BACKEND or FORMRIG_UPLOAD_S3_BUCKET.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("upload.backend", BackendDir)
	v.SetDefault("upload.dir", "uploads")
	v.SetDefault("upload.s3.bucket", "")
	v.SetDefault("upload.s3.region", "us-east-1")
	v.SetDefault("upload.s3.endpoint", "")
	v.SetDefault("upload.s3.access_key_id", "")
	v.SetDefault("upload.s3.secret_access_key", "")
	v.SetDefault("upload.s3.key_prefix", "avatars/")
	v.SetDefault("signup.email_domain", "rocketseat.com.br")
	v.SetDefault("signup.max_avatar_bytes", 5*1024*1024)

	v.SetEnvPrefix("FORMRIG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Config{
		Log: LogConfig{
			Level: v.GetString("log.level"),
			File:  v.GetString("log.file"),
		},
		Upload: UploadConfig{
			Backend: strings.ToLower(v.GetString("upload.backend")),
			Dir:     v.GetString("upload.dir"),
			S3: S3Config{
				Bucket:          v.GetString("upload.s3.bucket"),
				Region:          v.GetString("upload.s3.region"),
				Endpoint:        v.GetString("upload.s3.endpoint"),
				AccessKeyID:     v.GetString("upload.s3.access_key_id"),
				SecretAccessKey: v.GetString("upload.s3.secret_access_key"),
				KeyPrefix:       v.GetString("upload.s3.key_prefix"),
			},
		},
		Signup: SignupConfig{
			EmailDomain:    v.GetString("signup.email_domain"),
			MaxAvatarBytes: v.GetInt64("signup.max_avatar_bytes"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that depend on each other.
func (c *Config) Validate() error {
	switch c.Upload.Backend {
	case BackendDir:
		if c.Upload.Dir == "" {
			return fmt.Errorf("config: upload.dir is required for the dir backend")
		}
	case BackendS3:
		if c.Upload.S3.Bucket == "" {
			return fmt.Errorf("config: upload.s3.bucket is required for the s3 backend")
		}
	default:
		return fmt.Errorf("config: unknown upload backend %q (use %s or %s)", c.Upload.Backend, BackendDir, BackendS3)
	}

	if c.Signup.MaxAvatarBytes <= 0 {
		return fmt.Errorf("config: signup.max_avatar_bytes must be positive")
	}
	return nil
}
