package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Database DatabaseConfig `yaml:"database"`
	AWS      AWSConfig      `yaml:"aws"`
	JWT      JWTConfig      `yaml:"jwt"`
	APNS     APNSConfig     `yaml:"apns"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// StorageConfig selects the durable key-value backend
type StorageConfig struct {
	Driver     string `yaml:"driver"` // sqlite, postgres, s3 or memory
	SQLitePath string `yaml:"sqlite_path"`
	S3Prefix   string `yaml:"s3_prefix"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// AWSConfig holds AWS configuration
type AWSConfig struct {
	Region    string `yaml:"region"`
	S3Bucket  string `yaml:"s3_bucket"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Endpoint  string `yaml:"endpoint"` // custom endpoint for MinIO and other S3-compatible hosts
	PathStyle bool   `yaml:"path_style"`
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret string `yaml:"secret"`
}

// APNSConfig holds push notification configuration for reminders
type APNSConfig struct {
	Enabled    bool   `yaml:"enabled"`
	KeyPath    string `yaml:"key_path"` // .p8 auth key
	KeyID      string `yaml:"key_id"`
	TeamID     string `yaml:"team_id"`
	Topic      string `yaml:"topic"` // app bundle id
	Production bool   `yaml:"production"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads configuration from a YAML file. A missing file is not an error:
// defaults and KOI_* environment variables are enough to run locally.
func Load(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "sqlite"
	}
	if c.Storage.SQLitePath == "" {
		c.Storage.SQLitePath = "data/koi.db"
	}
	if c.Storage.S3Prefix == "" {
		c.Storage.S3Prefix = "collections/"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.AWS.Region == "" {
		c.AWS.Region = "us-east-1"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

func (c *Config) applyEnv() error {
	strs := map[string]*string{
		"KOI_STORAGE_DRIVER":    &c.Storage.Driver,
		"KOI_SQLITE_PATH":       &c.Storage.SQLitePath,
		"KOI_DATABASE_PASSWORD": &c.Database.Password,
		"KOI_AWS_ACCESS_KEY":    &c.AWS.AccessKey,
		"KOI_AWS_SECRET_KEY":    &c.AWS.SecretKey,
		"KOI_S3_BUCKET":         &c.AWS.S3Bucket,
		"KOI_JWT_SECRET":        &c.JWT.Secret,
		"KOI_LOG_LEVEL":         &c.Log.Level,
	}
	for name, dst := range strs {
		if v, ok := os.LookupEnv(name); ok {
			*dst = v
		}
	}
	if v, ok := os.LookupEnv("KOI_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("failed to parse KOI_PORT: %w", err)
		}
		c.Server.Port = port
	}
	return nil
}

// Validate checks the settings required to serve requests
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt secret is required")
	}
	switch c.Storage.Driver {
	case "sqlite", "postgres", "memory":
	case "s3":
		if c.AWS.S3Bucket == "" {
			return fmt.Errorf("s3 bucket is required for the s3 storage driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.APNS.Enabled && (c.APNS.KeyPath == "" || c.APNS.KeyID == "" || c.APNS.TeamID == "" || c.APNS.Topic == "") {
		return fmt.Errorf("apns key_path, key_id, team_id and topic are required when apns is enabled")
	}
	return nil
}

// DSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}
