package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config is the full adapter configuration, sourced from a TOML file
// and overridden by BUCKETFS_* environment variables. It is built once
// and passed to constructors; nothing reads the environment after Load.
type Config struct {
	AccessKeyID     string `toml:"access_key_id"`
	SecretAccessKey string `toml:"secret_access_key"`
	Bucket          string `toml:"bucket"`
	Zone            string `toml:"zone"`
	Endpoint        string `toml:"endpoint"`
	Host            string `toml:"host"`
	Location        string `toml:"location"`
	SecureURL       bool   `toml:"secure_url"`
	Backend         string `toml:"backend"`
}

const (
	envAccessKeyID     = "BUCKETFS_ACCESS_KEY_ID"
	envSecretAccessKey = "BUCKETFS_SECRET_ACCESS_KEY"
	envBucket          = "BUCKETFS_BUCKET_NAME"
	envZone            = "BUCKETFS_BUCKET_ZONE"
	envEndpoint        = "BUCKETFS_ENDPOINT"
	envHost            = "BUCKETFS_HOST"
	envLocation        = "BUCKETFS_LOCATION"
	envSecureURL       = "BUCKETFS_SECURE_URL"
	envBackend         = "BUCKETFS_BACKEND"
)

func DefaultConfig() *Config {
	return &Config{
		Host:      "s3.amazonaws.com",
		SecureURL: true,
		Backend:   "s3",
	}
}

// Load reads the config file at path if it exists, applies environment
// overrides, and validates the result. Missing required settings are a
// startup error, never a deferred one.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("decode config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	apply := func(dst *string, key string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	apply(&c.AccessKeyID, envAccessKeyID)
	apply(&c.SecretAccessKey, envSecretAccessKey)
	apply(&c.Bucket, envBucket)
	apply(&c.Zone, envZone)
	apply(&c.Endpoint, envEndpoint)
	apply(&c.Host, envHost)
	apply(&c.Location, envLocation)
	apply(&c.Backend, envBackend)

	if v, ok := os.LookupEnv(envSecureURL); ok {
		secure, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s must be a boolean: %w", envSecureURL, err)
		}
		c.SecureURL = secure
	}
	return nil
}

func (c *Config) ApplyDefaults() {
	if c.Host == "" {
		c.Host = "s3.amazonaws.com"
	}
	if c.Backend == "" {
		c.Backend = "s3"
	}
}

func (c *Config) Normalize() {
	c.AccessKeyID = strings.TrimSpace(c.AccessKeyID)
	c.SecretAccessKey = strings.TrimSpace(c.SecretAccessKey)
	c.Bucket = strings.TrimSpace(c.Bucket)
	c.Zone = strings.TrimSpace(c.Zone)
	c.Endpoint = strings.TrimSpace(c.Endpoint)
	c.Host = strings.TrimSpace(c.Host)
	c.Location = strings.Trim(strings.TrimSpace(c.Location), "/")
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
}

func (c *Config) Validate() error {
	switch c.Backend {
	case "s3", "minio", "memory":
	default:
		return fmt.Errorf("backend must be s3, minio, or memory, got %q", c.Backend)
	}

	if c.Backend == "memory" {
		if c.Bucket == "" {
			return errors.New("bucket is required")
		}
		return nil
	}

	if c.Bucket == "" {
		return errors.New("bucket is required")
	}
	if c.Zone == "" {
		return errors.New("zone is required")
	}
	if c.Endpoint != "" {
		parsed, err := url.Parse(c.Endpoint)
		if err != nil {
			return fmt.Errorf("endpoint must be a valid http(s) URL: %w", err)
		}
		if parsed.Scheme != "http" && parsed.Scheme != "https" {
			return errors.New("endpoint must use http or https")
		}
	}
	if c.Backend == "minio" {
		if c.Endpoint == "" {
			return errors.New("endpoint is required for the minio backend")
		}
		if c.AccessKeyID == "" || c.SecretAccessKey == "" {
			return errors.New("access_key_id and secret_access_key are required for the minio backend")
		}
	}
	return nil
}
