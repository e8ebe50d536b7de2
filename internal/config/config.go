package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DatabaseConfig holds relational store settings.
// Backend selects the repository implementation ("postgres" or "memory").
// Driver selects the database/sql driver used for postgres ("pgx" or "postgres" for lib/pq).
type DatabaseConfig struct {
	Backend            string `yaml:"backend"`
	Driver             string `yaml:"driver"`
	Host               string `yaml:"host"`
	Port               string `yaml:"port"`
	User               string `yaml:"user"`
	Password           string `yaml:"password"`
	Name               string `yaml:"name"`
	SSLMode            string `yaml:"sslmode"`
	MaxOpenConns       int    `yaml:"max_open_conns"`
	MaxIdleConns       int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeSec int    `yaml:"conn_max_lifetime_sec"`
}

// BlobConfig selects where PDF files are kept.
type BlobConfig struct {
	Backend    string `yaml:"backend"` // filesystem, minio or memory
	Dir        string `yaml:"dir"`
	StagingDir string `yaml:"staging_dir"`
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// RedisConfig configures the metadata cache. An empty Addr disables caching.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	TTLSec   int    `yaml:"ttl_sec"`
}

// UploadConfig bounds batch uploads.
type UploadConfig struct {
	Workers        int     `yaml:"workers"`
	BodyLimitMB    int     `yaml:"body_limit_mb"`
	RateLimitRPS   float64 `yaml:"rate_limit_rps"`
	RateLimitBurst int     `yaml:"rate_limit_burst"`
}

// PreviewConfig controls thumbnail rendering.
type PreviewConfig struct {
	PdftoppmPath   string `yaml:"pdftoppm_path"`
	ThumbnailWidth int    `yaml:"thumbnail_width"`
	TimeoutSec     int    `yaml:"timeout_sec"`
}

// AppConfig is the centralized configuration struct for the application.
// Values come from an optional YAML file (CONFIG_FILE) and environment variables; the environment wins.
type AppConfig struct {
	AppHost  string         `yaml:"app_host"`
	Port     string         `yaml:"port"`
	Timezone string         `yaml:"timezone"`
	Database DatabaseConfig `yaml:"database"`
	Blob     BlobConfig     `yaml:"blob"`
	MinIO    MinIOConfig    `yaml:"minio"`
	Redis    RedisConfig    `yaml:"redis"`
	Upload   UploadConfig   `yaml:"upload"`
	Preview  PreviewConfig  `yaml:"preview"`
}

// Defaults returns the configuration used when neither a file nor the environment sets a value.
func Defaults() AppConfig {
	return AppConfig{
		AppHost:  "localhost:8080",
		Port:     "8080",
		Timezone: "UTC",
		Database: DatabaseConfig{
			Backend:            "postgres",
			Driver:             "pgx",
			Port:               "5432",
			SSLMode:            "disable",
			MaxOpenConns:       10,
			MaxIdleConns:       5,
			ConnMaxLifetimeSec: 300,
		},
		Blob: BlobConfig{
			Backend:    "filesystem",
			Dir:        "./upload",
			StagingDir: os.TempDir(),
		},
		Redis: RedisConfig{TTLSec: 300},
		Upload: UploadConfig{
			Workers:        4,
			BodyLimitMB:    100,
			RateLimitRPS:   5,
			RateLimitBurst: 10,
		},
		Preview: PreviewConfig{
			PdftoppmPath:   "pdftoppm",
			ThumbnailWidth: 300,
			TimeoutSec:     20,
		},
	}
}

// Load reads configuration from CONFIG_FILE (if set) and then from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
func Load() (*AppConfig, error) {
	base := Defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := mergeFile(&base, path); err != nil {
			return nil, err
		}
	}
	return fromEnv(base), nil
}

func mergeFile(cfg *AppConfig, path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func fromEnv(b AppConfig) *AppConfig {
	return &AppConfig{
		AppHost:  getEnv("APP_HOST", b.AppHost),
		Port:     getEnv("PORT", b.Port),
		Timezone: getEnv("TZ", b.Timezone),
		Database: DatabaseConfig{
			Backend:            getEnv("DB_BACKEND", b.Database.Backend),
			Driver:             getEnv("DB_DRIVER", b.Database.Driver),
			Host:               getEnv("DB_HOST", b.Database.Host),
			Port:               getEnv("DB_PORT", b.Database.Port),
			User:               getEnv("DB_USER", b.Database.User),
			Password:           getEnv("DB_PASSWORD", b.Database.Password),
			Name:               getEnv("DB_NAME", b.Database.Name),
			SSLMode:            getEnv("DB_SSLMODE", b.Database.SSLMode),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", b.Database.MaxOpenConns),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", b.Database.MaxIdleConns),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", b.Database.ConnMaxLifetimeSec),
		},
		Blob: BlobConfig{
			Backend:    getEnv("BLOB_BACKEND", b.Blob.Backend),
			Dir:        getEnv("BLOB_DIR", b.Blob.Dir),
			StagingDir: getEnv("BLOB_STAGING_DIR", b.Blob.StagingDir),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", b.MinIO.Endpoint),
			AccessKey: getEnv("MINIO_ACCESS_KEY", b.MinIO.AccessKey),
			SecretKey: getEnv("MINIO_SECRET_KEY", b.MinIO.SecretKey),
			Bucket:    getEnv("MINIO_BUCKET", b.MinIO.Bucket),
			UseSSL:    getEnvBool("MINIO_USE_SSL", b.MinIO.UseSSL),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", b.Redis.Addr),
			Password: getEnv("REDIS_PASSWORD", b.Redis.Password),
			DB:       getEnvInt("REDIS_DB", b.Redis.DB),
			TTLSec:   getEnvInt("REDIS_TTL_SEC", b.Redis.TTLSec),
		},
		Upload: UploadConfig{
			Workers:        getEnvInt("UPLOAD_WORKERS", b.Upload.Workers),
			BodyLimitMB:    getEnvInt("UPLOAD_BODY_LIMIT_MB", b.Upload.BodyLimitMB),
			RateLimitRPS:   getEnvFloat("UPLOAD_RATE_LIMIT_RPS", b.Upload.RateLimitRPS),
			RateLimitBurst: getEnvInt("UPLOAD_RATE_LIMIT_BURST", b.Upload.RateLimitBurst),
		},
		Preview: PreviewConfig{
			PdftoppmPath:   getEnv("PREVIEW_PDFTOPPM_PATH", b.Preview.PdftoppmPath),
			ThumbnailWidth: getEnvInt("PREVIEW_THUMBNAIL_WIDTH", b.Preview.ThumbnailWidth),
			TimeoutSec:     getEnvInt("PREVIEW_TIMEOUT_SEC", b.Preview.TimeoutSec),
		},
	}
}

// Location resolves Timezone, falling back to UTC for unknown names.
func (c *AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return def
}
