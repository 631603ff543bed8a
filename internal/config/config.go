package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

const (
	// DefaultStrategy is the similarity strategy used when none is configured.
	DefaultStrategy = "orb"
	// DefaultSerialBaud is the baud rate of the indicator board.
	DefaultSerialBaud = 115200
)

type Config struct {
	UploadDir        string   `toml:"upload_dir"`
	Strategy         string   `toml:"strategy"`
	Threshold        *float64 `toml:"threshold"` // nil means the strategy default
	SerialPort       string   `toml:"serial_port"`
	SerialBaud       int      `toml:"serial_baud"`
	SerialTimeoutMs  int      `toml:"serial_timeout_ms"`
	ModelPath        string   `toml:"model_path"`
	ModelConfigPath  string   `toml:"model_config_path"`
	ModelOutputLayer string   `toml:"model_output_layer"` // empty reads the final layer
	PixelSize        int      `toml:"pixel_size"`
	Port             int      `toml:"port"`
	UDPPort          int      `toml:"udp_port"` // 0 disables UDP frame ingest
	RetainImages     int      `toml:"retain_images"`
	MaxUploadBytes   int64    `toml:"max_upload_bytes"`
	QueueSize        int      `toml:"queue_size"`
	DatabasePath     string   `toml:"database_path"`
	LogDirectory     string   `toml:"log_dir"`
}

// Load reads an optional .env file and builds the configuration from the environment.
func Load() *Config {
	// A missing .env is the common case.
	_ = godotenv.Load()

	return &Config{
		UploadDir:        getEnv("UPLOAD_DIR", filepath.Join(".", "uploads")),
		Strategy:         getEnv("STRATEGY", DefaultStrategy),
		Threshold:        getEnvAsFloatPtr("THRESHOLD"),
		SerialPort:       getEnv("SERIAL_PORT", ""),
		SerialBaud:       getEnvAsInt("SERIAL_BAUD", DefaultSerialBaud),
		SerialTimeoutMs:  getEnvAsInt("SERIAL_TIMEOUT_MS", 1000),
		ModelPath:        getEnv("MODEL_PATH", filepath.Join(".", "models", "mobilenet_v2.onnx")),
		ModelConfigPath:  getEnv("MODEL_CONFIG_PATH", ""),
		ModelOutputLayer: getEnv("MODEL_OUTPUT_LAYER", ""),
		PixelSize:        getEnvAsInt("PIXEL_SIZE", 64),
		Port:             getEnvAsInt("PORT", 3000),
		UDPPort:          getEnvAsInt("UDP_PORT", 0),
		RetainImages:     getEnvAsInt("RETAIN_IMAGES", 5),
		MaxUploadBytes:   getEnvAsInt64("MAX_UPLOAD_BYTES", 10<<20), // 10 MB
		QueueSize:        getEnvAsInt("QUEUE_SIZE", 16),
		DatabasePath:     getEnv("DB_PATH", filepath.Join(".", "data", "changewatch.db")),
		LogDirectory:     getEnv("LOG_DIR", filepath.Join(".", "logs")),
	}
}

// LoadFile overlays values from a TOML file on top of cfg. Keys absent from the
// file keep their current value.
func LoadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse TOML: %w", err)
	}

	return cfg.Validate()
}

// Validate rejects values that would make a run meaningless.
func (c *Config) Validate() error {
	if c.UploadDir == "" {
		return fmt.Errorf("upload directory must not be empty")
	}
	if c.Threshold != nil && *c.Threshold < 0 {
		return fmt.Errorf("threshold must not be negative, got %v", *c.Threshold)
	}
	if c.SerialBaud <= 0 {
		return fmt.Errorf("serial baud must be positive, got %d", c.SerialBaud)
	}
	if c.RetainImages < 2 {
		return fmt.Errorf("retain_images must keep at least 2 images, got %d", c.RetainImages)
	}
	if c.QueueSize <= 0 {
		return fmt.Errorf("queue_size must be positive, got %d", c.QueueSize)
	}
	if c.PixelSize <= 0 {
		return fmt.Errorf("pixel_size must be positive, got %d", c.PixelSize)
	}
	return nil
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

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsFloatPtr returns nil when key is unset or not a number.
func getEnvAsFloatPtr(key string) *float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return &floatValue
		}
	}
	return nil
}
