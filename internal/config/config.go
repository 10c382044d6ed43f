package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`

	StorageBackend string `yaml:"storage_backend"` // sqlite or redis
	DatabasePath   string `yaml:"database_path"`
	RedisAddress   string `yaml:"redis_address"`
	RedisPassword  string `yaml:"redis_password"`
	RedisDB        int    `yaml:"redis_db"`
	RedisPrefix    string `yaml:"redis_prefix"`

	CaptureDevices    []int `yaml:"capture_devices"` // gocv device indexes, in switch order
	ImageMaxDimension int   `yaml:"image_max_dimension"`
	JPEGQuality       int   `yaml:"jpeg_quality"`

	GeolocationTimeout time.Duration `yaml:"geolocation_timeout"`
	StaticLatitude     *float64      `yaml:"static_latitude"`
	StaticLongitude    *float64      `yaml:"static_longitude"`

	NotificationDuration time.Duration `yaml:"notification_duration"`

	StaticDirectory string `yaml:"static_directory"`
	LogDirectory    string `yaml:"log_directory"`
	LogMaxSizeMB    int    `yaml:"log_max_size_mb"`
}

// Load reads .env, an optional YAML file named by CONFIG_FILE and finally
// environment variables; later sources override earlier ones.
func Load() *Config {
	_ = godotenv.Load() // .env is optional

	cfg := defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.overlayFile(path); err != nil {
			fmt.Fprintf(os.Stderr, "config: ignoring %s: %v\n", path, err)
		}
	}
	cfg.overlayEnv()
	return cfg
}

func defaults() *Config {
	return &Config{
		Port:                 8080,
		Password:             "occurrences",
		StorageBackend:       "sqlite",
		DatabasePath:         filepath.Join(".", "data", "occurrences.db"),
		RedisAddress:         "localhost:6379",
		RedisPrefix:          "occurrences:",
		CaptureDevices:       []int{0},
		ImageMaxDimension:    1280,
		JPEGQuality:          80,
		GeolocationTimeout:   10 * time.Second,
		NotificationDuration: 3 * time.Second,
		StaticDirectory:      filepath.Join(".", "static"),
		LogDirectory:         filepath.Join(".", "logs"),
		LogMaxSizeMB:         10,
	}
}

func (c *Config) overlayFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

func (c *Config) overlayEnv() {
	c.Port = getEnvAsInt("PORT", c.Port)
	c.Password = getEnv("PASSWORD", c.Password)
	c.StorageBackend = strings.ToLower(getEnv("STORAGE_BACKEND", c.StorageBackend))
	c.DatabasePath = getEnv("DB_PATH", c.DatabasePath)
	c.RedisAddress = getEnv("REDIS_ADDR", c.RedisAddress)
	c.RedisPassword = getEnv("REDIS_PASSWORD", c.RedisPassword)
	c.RedisDB = getEnvAsInt("REDIS_DB", c.RedisDB)
	c.RedisPrefix = getEnv("REDIS_PREFIX", c.RedisPrefix)
	c.CaptureDevices = getEnvAsIntList("CAPTURE_DEVICES", c.CaptureDevices)
	c.ImageMaxDimension = getEnvAsInt("IMAGE_MAX_DIMENSION", c.ImageMaxDimension)
	c.JPEGQuality = getEnvAsInt("JPEG_QUALITY", c.JPEGQuality)
	c.GeolocationTimeout = getEnvAsDuration("GEOLOCATION_TIMEOUT", c.GeolocationTimeout)
	c.StaticLatitude = getEnvAsFloatPtr("STATIC_LATITUDE", c.StaticLatitude)
	c.StaticLongitude = getEnvAsFloatPtr("STATIC_LONGITUDE", c.StaticLongitude)
	c.NotificationDuration = getEnvAsDuration("NOTIFICATION_DURATION", c.NotificationDuration)
	c.StaticDirectory = getEnv("STATIC_DIR", c.StaticDirectory)
	c.LogDirectory = getEnv("LOG_DIR", c.LogDirectory)
	c.LogMaxSizeMB = getEnvAsInt("LOG_MAX_SIZE_MB", c.LogMaxSizeMB)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsIntList(key string, defaultValue []int) []int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []int
	for _, part := range strings.Split(value, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return defaultValue
		}
		out = append(out, n)
	}
	return out
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}

func getEnvAsFloatPtr(key string, defaultValue *float64) *float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return &f
		}
	}
	return defaultValue
}
