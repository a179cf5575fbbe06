package common

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Storage  StorageConfig
	Database DatabaseConfig
	OCR      OCRConfig
	Vision   VisionConfig
	Prompts  PromptsConfig
	Pipeline PipelineConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPAddr        string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	MaxUploadBytes  int64
}

// StorageConfig holds the filesystem sinks the writer targets.
type StorageConfig struct {
	UploadDir string // intake for multipart uploads
	TextPath  string // concatenated full-text sink
	ImageDir  string // extracted image artifacts
}

// DatabaseConfig holds the runs-store configuration.
// DSN scheme selects the driver: postgres://... uses pgx, anything else is
// treated as a sqlite path.
type DatabaseConfig struct {
	DSN         string
	DialTimeout time.Duration
}

// OCRConfig holds OCR engine configuration
type OCRConfig struct {
	Tesseract     string // binary name or absolute path; if empty -> "tesseract"
	TesseractLang string // default "eng"
	TessdataDir   string
	WorkDir       string // scratch dir for image buffers handed to tesseract
}

// VisionConfig holds the embedding-model backend configuration.
type VisionConfig struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	LogitScale float64 // similarity multiplier before softmax; CLIP uses 100
}

// PromptsConfig holds the semantic prompt vocabulary source.
type PromptsConfig struct {
	File string // optional JSON file; empty -> built-in defaults
}

// PipelineConfig holds extraction pipeline tuning.
type PipelineConfig struct {
	ImageWorkers int // bounded per-page image analysis pool; 1 = sequential
}

// LoadConfig loads configuration from environment variables.
// A .env file in the working directory is applied first when present.
func LoadConfig() *Config {
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			HTTPAddr:        getEnv("HTTP_ADDR", ":8000"),
			ReadTimeout:     getEnvAsDuration("HTTP_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("HTTP_WRITE_TIMEOUT", 120*time.Second),
			ShutdownTimeout: getEnvAsDuration("HTTP_SHUTDOWN_TIMEOUT", 15*time.Second),
			MaxUploadBytes:  getEnvAsInt64("MAX_UPLOAD_BYTES", 64<<20),
		},
		Storage: StorageConfig{
			UploadDir: getEnv("UPLOAD_DIR", "uploads"),
			TextPath:  getEnv("OUTPUT_TEXT_PATH", "output_with_graphics.txt"),
			ImageDir:  getEnv("IMAGE_OUTPUT_DIR", "extracted_images"),
		},
		Database: DatabaseConfig{
			DSN:         getEnv("DB_DSN", "docsift.db"),
			DialTimeout: getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
		},
		OCR: OCRConfig{
			Tesseract:     getEnv("TESSERACT_BIN", "tesseract"),
			TesseractLang: getEnv("TESSERACT_LANG", "eng"),
			TessdataDir:   getEnv("TESSDATA_PREFIX", ""),
			WorkDir:       getEnv("OCR_WORK_DIR", ""),
		},
		Vision: VisionConfig{
			BaseURL:    getEnv("CLIP_BASE_URL", "http://localhost:8091"),
			APIKey:     getEnv("CLIP_API_KEY", ""),
			Timeout:    getEnvAsDuration("CLIP_TIMEOUT", 30*time.Second),
			LogitScale: getEnvAsFloat64("CLIP_LOGIT_SCALE", 100.0),
		},
		Prompts: PromptsConfig{
			File: getEnv("PROMPTS_FILE", ""),
		},
		Pipeline: PipelineConfig{
			ImageWorkers: getEnvAsInt("PIPELINE_IMAGE_WORKERS", 1),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", ErrInvalidInput)
	}
	if c.Storage.TextPath == "" {
		return NewAppError("CONFIG_ERROR", "OUTPUT_TEXT_PATH is required", ErrInvalidInput)
	}
	if c.Storage.ImageDir == "" {
		return NewAppError("CONFIG_ERROR", "IMAGE_OUTPUT_DIR is required", ErrInvalidInput)
	}
	if c.Pipeline.ImageWorkers < 1 {
		return NewAppError("CONFIG_ERROR", "PIPELINE_IMAGE_WORKERS must be >= 1", ErrInvalidInput)
	}
	return nil
}
