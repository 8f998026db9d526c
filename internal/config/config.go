// Package config loads service settings from an optional TOML file and
// LIDFORMS_* environment variables. Environment values win over the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	DatabaseURL string // LIDFORMS_DATABASE_URL (required)
	HTTPAddr    string // LIDFORMS_HTTP_ADDR (default ":8080")
	GRPCAddr    string // LIDFORMS_GRPC_ADDR (default ":9090")
	NATSURL     string // LIDFORMS_NATS_URL (optional, empty = no events)

	StoreTimeout time.Duration // LIDFORMS_STORE_TIMEOUT (default 5s), per store call
	MaxBodyBytes int64         // LIDFORMS_MAX_BODY_BYTES (default 1MiB)

	// Access gate
	SessionSecret string // LIDFORMS_SESSION_SECRET (HS256 key; empty = every session is rejected)
	SessionCookie string // LIDFORMS_SESSION_COOKIE (default "sb-access-token")
	LoginURL      string // LIDFORMS_LOGIN_URL (default "/auth/login")

	LogLevel  string // LIDFORMS_LOG_LEVEL (default "info")
	LogFormat string // LIDFORMS_LOG_FORMAT ("json" or "console", default "json")

	// Schema snapshots
	SnapshotInterval   time.Duration // LIDFORMS_SNAPSHOT_INTERVAL (default 0 = disabled)
	SnapshotS3Bucket   string        // LIDFORMS_SNAPSHOT_S3_BUCKET (enables S3 when set)
	SnapshotS3Endpoint string        // LIDFORMS_SNAPSHOT_S3_ENDPOINT (custom endpoint for MinIO)
	SnapshotS3Region   string        // LIDFORMS_SNAPSHOT_S3_REGION (default "us-east-1")
	SnapshotS3Key      string        // LIDFORMS_SNAPSHOT_S3_KEY (default "lidforms/forms.jsonl")
}

// fileConfig is the TOML shape. Durations are strings such as "5s".
type fileConfig struct {
	DatabaseURL  string `toml:"database_url"`
	HTTPAddr     string `toml:"http_addr"`
	GRPCAddr     string `toml:"grpc_addr"`
	NATSURL      string `toml:"nats_url"`
	StoreTimeout string `toml:"store_timeout"`
	MaxBodyBytes int64  `toml:"max_body_bytes"`

	Session struct {
		Secret   string `toml:"secret"`
		Cookie   string `toml:"cookie"`
		LoginURL string `toml:"login_url"`
	} `toml:"session"`

	Log struct {
		Level  string `toml:"level"`
		Format string `toml:"format"`
	} `toml:"log"`

	Snapshot struct {
		Interval string `toml:"interval"`
		Bucket   string `toml:"s3_bucket"`
		Endpoint string `toml:"s3_endpoint"`
		Region   string `toml:"s3_region"`
		Key      string `toml:"s3_key"`
	} `toml:"snapshot"`
}

func defaults() *Config {
	return &Config{
		HTTPAddr:         ":8080",
		GRPCAddr:         ":9090",
		StoreTimeout:     5 * time.Second,
		MaxBodyBytes:     1 << 20,
		SessionCookie:    "sb-access-token",
		LoginURL:         "/auth/login",
		LogLevel:         "info",
		LogFormat:        "json",
		SnapshotS3Region: "us-east-1",
		SnapshotS3Key:    "lidforms/forms.jsonl",
	}
}

// Load builds the configuration. The file named by LIDFORMS_CONFIG, if any,
// is applied over the defaults, then the environment over that.
func Load() (*Config, error) {
	c := defaults()
	if path := os.Getenv("LIDFORMS_CONFIG"); path != "" {
		if err := c.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := c.loadEnv(); err != nil {
		return nil, err
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) loadFile(path string) error {
	var fc fileConfig
	md, err := toml.DecodeFile(path, &fc)
	if err != nil {
		return fmt.Errorf("config file %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("config file %s: unknown keys %s", path, strings.Join(keys, ", "))
	}

	setString(&c.DatabaseURL, fc.DatabaseURL)
	setString(&c.HTTPAddr, fc.HTTPAddr)
	setString(&c.GRPCAddr, fc.GRPCAddr)
	setString(&c.NATSURL, fc.NATSURL)
	if fc.MaxBodyBytes != 0 {
		c.MaxBodyBytes = fc.MaxBodyBytes
	}
	setString(&c.SessionSecret, fc.Session.Secret)
	setString(&c.SessionCookie, fc.Session.Cookie)
	setString(&c.LoginURL, fc.Session.LoginURL)
	setString(&c.LogLevel, fc.Log.Level)
	setString(&c.LogFormat, fc.Log.Format)
	setString(&c.SnapshotS3Bucket, fc.Snapshot.Bucket)
	setString(&c.SnapshotS3Endpoint, fc.Snapshot.Endpoint)
	setString(&c.SnapshotS3Region, fc.Snapshot.Region)
	setString(&c.SnapshotS3Key, fc.Snapshot.Key)

	if err := setDuration(&c.StoreTimeout, "store_timeout", fc.StoreTimeout); err != nil {
		return fmt.Errorf("config file %s: %w", path, err)
	}
	if err := setDuration(&c.SnapshotInterval, "snapshot.interval", fc.Snapshot.Interval); err != nil {
		return fmt.Errorf("config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) loadEnv() error {
	setString(&c.DatabaseURL, os.Getenv("LIDFORMS_DATABASE_URL"))
	setString(&c.HTTPAddr, os.Getenv("LIDFORMS_HTTP_ADDR"))
	setString(&c.GRPCAddr, os.Getenv("LIDFORMS_GRPC_ADDR"))
	setString(&c.NATSURL, os.Getenv("LIDFORMS_NATS_URL"))
	setString(&c.SessionSecret, os.Getenv("LIDFORMS_SESSION_SECRET"))
	setString(&c.SessionCookie, os.Getenv("LIDFORMS_SESSION_COOKIE"))
	setString(&c.LoginURL, os.Getenv("LIDFORMS_LOGIN_URL"))
	setString(&c.LogLevel, os.Getenv("LIDFORMS_LOG_LEVEL"))
	setString(&c.LogFormat, os.Getenv("LIDFORMS_LOG_FORMAT"))
	setString(&c.SnapshotS3Bucket, os.Getenv("LIDFORMS_SNAPSHOT_S3_BUCKET"))
	setString(&c.SnapshotS3Endpoint, os.Getenv("LIDFORMS_SNAPSHOT_S3_ENDPOINT"))
	setString(&c.SnapshotS3Region, os.Getenv("LIDFORMS_SNAPSHOT_S3_REGION"))
	setString(&c.SnapshotS3Key, os.Getenv("LIDFORMS_SNAPSHOT_S3_KEY"))

	if err := setDuration(&c.StoreTimeout, "LIDFORMS_STORE_TIMEOUT", os.Getenv("LIDFORMS_STORE_TIMEOUT")); err != nil {
		return err
	}
	if err := setDuration(&c.SnapshotInterval, "LIDFORMS_SNAPSHOT_INTERVAL", os.Getenv("LIDFORMS_SNAPSHOT_INTERVAL")); err != nil {
		return err
	}
	if v := os.Getenv("LIDFORMS_MAX_BODY_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("LIDFORMS_MAX_BODY_BYTES: %w", err)
		}
		c.MaxBodyBytes = n
	}
	return nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return errors.New("LIDFORMS_DATABASE_URL is required")
	}
	if c.StoreTimeout <= 0 {
		return fmt.Errorf("store timeout must be positive, got %v", c.StoreTimeout)
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("max body bytes must be positive, got %d", c.MaxBodyBytes)
	}
	if c.SnapshotInterval < 0 {
		return fmt.Errorf("snapshot interval must not be negative, got %v", c.SnapshotInterval)
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("log format must be json or console, got %q", c.LogFormat)
	}
	return nil
}

// SnapshotsEnabled reports whether the snapshot scheduler has somewhere to
// write and a period to run on.
func (c *Config) SnapshotsEnabled() bool {
	return c.SnapshotInterval > 0 && c.SnapshotS3Bucket != ""
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, name, v string) error {
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	*dst = d
	return nil
}
