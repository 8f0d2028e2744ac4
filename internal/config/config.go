package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig   `json:"server"`
	Database DatabaseConfig `json:"database"`
	Storage  StorageConfig  `json:"storage"`
	GCS      GCSConfig      `json:"gcs"`
	OCR      OCRConfig      `json:"ocr"`
	LLM      LLMConfig      `json:"llm"`
	Search   SearchConfig   `json:"search"`
	Pipeline PipelineConfig `json:"pipeline"`
}

type ServerConfig struct {
	Port           string   `json:"port"`
	Environment    string   `json:"environment"`
	AllowedOrigins []string `json:"allowed_origins"`
}

type DatabaseConfig struct {
	Enabled  bool   `json:"enabled"`
	Driver   string `json:"driver"` // "postgres" or "mysql"
	Host     string `json:"host"`
	Port     string `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
}

type StorageConfig struct {
	Type      string `json:"type"`       // "local" or "gcs"
	LocalPath string `json:"local_path"` // Flat upload directory (e.g., "./uploads")
}

type GCSConfig struct {
	BucketName      string `json:"bucket_name"`
	ProjectID       string `json:"project_id"`
	CredentialsPath string `json:"credentials_path"`
	Prefix          string `json:"prefix"`
}

type OCRConfig struct {
	Provider        string   `json:"provider"` // "vision" or "tesseract"
	VisionAPIKey    string   `json:"-"`
	CredentialsPath string   `json:"credentials_path"`
	Languages       []string `json:"languages"`
}

type LLMConfig struct {
	Provider        string `json:"provider"` // "gemini", "vertex" or "openai"
	ExtractionModel string `json:"extraction_model"`
	EnrichmentModel string `json:"enrichment_model"`

	GeminiAPIKey string `json:"-"`

	VertexProject string `json:"vertex_project"`
	VertexRegion  string `json:"vertex_region"`

	OpenAIAPIKey     string `json:"-"`
	OpenAIBaseURL    string `json:"openai_base_url"`
	OpenAIAPIVersion string `json:"openai_api_version"` // set for Azure OpenAI deployments
}

type SearchConfig struct {
	BaseURL     string        `json:"base_url"`
	ResultLimit int           `json:"result_limit"`
	UserAgent   string        `json:"user_agent"`
	RatePerSec  float64       `json:"rate_per_sec"`
	Burst       int           `json:"burst"`
	Timeout     time.Duration `json:"timeout"`
}

type PipelineConfig struct {
	Timeout time.Duration `json:"timeout"`
}

func (d *DatabaseConfig) DSN() string {
	if d.Driver == "mysql" {
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			d.User, d.Password, d.Host, d.Port, d.DBName)
	}
	// Cloud SQL Unix socket support
	if len(d.Host) > 0 && d.Host[0] == '/' {
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s sslmode=disable",
			d.Host, d.User, d.Password, d.DBName)
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		d.Host, d.Port, d.User, d.Password, d.DBName)
}

// findProjectRoot finds the project root by looking for go.mod file
func findProjectRoot() string {
	dir, _ := os.Getwd()
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

func Load() (*Config, error) {
	envPaths := []string{}
	if projectRoot := findProjectRoot(); projectRoot != "" {
		envPaths = append(envPaths, filepath.Join(projectRoot, ".env"))
	}
	envPaths = append(envPaths, "../../.env", ".env")

	loaded := false
	for _, envPath := range envPaths {
		if err := godotenv.Load(envPath); err == nil {
			loaded = true
			break
		}
	}
	if !loaded {
		fmt.Printf("Failed to load .env file from any location, using system environment variables\n")
	}

	dbDriver := getEnv("DB_DRIVER", "postgres")
	defaultDBPort := "5432"
	if dbDriver == "mysql" {
		defaultDBPort = "3306"
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnv("SERVER_PORT", "5001"),
			Environment:    getEnv("ENVIRONMENT", "development"),
			AllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			Enabled:  getEnv("DB_ENABLED", "false") == "true",
			Driver:   dbDriver,
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", defaultDBPort),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "id_enrich"),
		},
		Storage: StorageConfig{
			Type:      getEnv("STORAGE_TYPE", "local"),
			LocalPath: getEnv("STORAGE_LOCAL_PATH", "./uploads"),
		},
		GCS: GCSConfig{
			BucketName:      getEnv("GCS_BUCKET_NAME", ""),
			ProjectID:       getEnv("GOOGLE_CLOUD_PROJECT", ""),
			CredentialsPath: getEnv("GCS_CREDENTIALS_PATH", ""),
			Prefix:          getEnv("GCS_PREFIX", "uploads"),
		},
		OCR: OCRConfig{
			Provider:        getEnv("OCR_PROVIDER", "vision"),
			VisionAPIKey:    getEnv("GOOGLE_VISION_API_KEY", ""),
			CredentialsPath: getEnv("GOOGLE_VISION_CREDENTIALS_PATH", ""),
			Languages:       getEnvList("OCR_LANGUAGES", []string{"th", "en"}),
		},
		LLM: LLMConfig{
			Provider:         getEnv("LLM_PROVIDER", "gemini"),
			ExtractionModel:  getEnv("LLM_EXTRACTION_MODEL", "gemini-2.0-flash"),
			EnrichmentModel:  getEnv("LLM_ENRICHMENT_MODEL", "gemini-2.0-flash"),
			GeminiAPIKey:     getEnv("GOOGLE_AI_API_KEY", ""),
			VertexProject:    getEnv("VERTEX_PROJECT", getEnv("GOOGLE_CLOUD_PROJECT", "")),
			VertexRegion:     getEnv("VERTEX_REGION", "asia-southeast1"),
			OpenAIAPIKey:     getEnv("OPENAI_API_KEY", ""),
			OpenAIBaseURL:    getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			OpenAIAPIVersion: getEnv("OPENAI_API_VERSION", ""),
		},
		Search: SearchConfig{
			BaseURL:     getEnv("SEARCH_BASE_URL", "https://www.google.com/search"),
			ResultLimit: getEnvInt("SEARCH_RESULT_LIMIT", 5),
			UserAgent:   getEnv("SEARCH_USER_AGENT", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"),
			RatePerSec:  getEnvFloat("SEARCH_RATE_PER_SEC", 1),
			Burst:       getEnvInt("SEARCH_BURST", 2),
			Timeout:     getEnvDuration("SEARCH_TIMEOUT", 15*time.Second),
		},
		Pipeline: PipelineConfig{
			Timeout: getEnvDuration("PIPELINE_TIMEOUT", 120*time.Second),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks provider selections and numeric limits
func (c *Config) Validate() error {
	switch c.Storage.Type {
	case "local", "gcs":
	default:
		return fmt.Errorf("invalid STORAGE_TYPE %q (expected local or gcs)", c.Storage.Type)
	}
	switch c.OCR.Provider {
	case "vision", "tesseract":
	default:
		return fmt.Errorf("invalid OCR_PROVIDER %q (expected vision or tesseract)", c.OCR.Provider)
	}
	switch c.LLM.Provider {
	case "gemini", "vertex", "openai":
	default:
		return fmt.Errorf("invalid LLM_PROVIDER %q (expected gemini, vertex or openai)", c.LLM.Provider)
	}
	switch c.Database.Driver {
	case "postgres", "mysql":
	default:
		return fmt.Errorf("invalid DB_DRIVER %q (expected postgres or mysql)", c.Database.Driver)
	}
	if c.Search.ResultLimit <= 0 {
		return fmt.Errorf("SEARCH_RESULT_LIMIT must be positive")
	}
	if c.Pipeline.Timeout <= 0 {
		return fmt.Errorf("PIPELINE_TIMEOUT must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return v
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if v, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return v
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if v, err := time.ParseDuration(getEnv(key, "")); err == nil && v > 0 {
		return v
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
