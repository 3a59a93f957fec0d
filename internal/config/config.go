// Package config provides YAML-based configuration with environment
// variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// AppConfig is the root configuration structure.
type AppConfig struct {
	Server     ServerConfig     `yaml:"server"`
	Storage    StorageConfig    `yaml:"storage"`
	Engines    EnginesConfig    `yaml:"engines"`
	OCR        OCRConfig        `yaml:"ocr"`
	Analytics  AnalyticsConfig  `yaml:"analytics"`
	Processing ProcessingConfig `yaml:"processing"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port         int    `yaml:"port"`
	BindAddress  string `yaml:"bind_address"`
	EnableCORS   bool   `yaml:"enable_cors"`
	AllowOrigins string `yaml:"allow_origins"`
	BodyLimit    string `yaml:"body_limit"`
	RateLimit    int    `yaml:"rate_limit_per_minute"`
	RateBurst    int    `yaml:"rate_burst"`
}

// StorageConfig contains file storage settings.
type StorageConfig struct {
	DataDirectory   string `yaml:"data_directory"`
	UploadDirectory string `yaml:"upload_directory"`
	OutputDirectory string `yaml:"output_directory"`
	MaxUploadSize   string `yaml:"max_upload_size"`
	SweepMinutes    int    `yaml:"sweep_interval_minutes"`
}

// EnginesConfig names the external conversion binaries.
type EnginesConfig struct {
	PandocBinary   string `yaml:"pandoc_binary"`
	PandocPDF      string `yaml:"pandoc_pdf_engine"`
	SofficeBinary  string `yaml:"soffice_binary"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// OCRConfig tunes the recognition pipeline.
type OCRConfig struct {
	TesseractBinary string `yaml:"tesseract_binary"`
	Language        string `yaml:"language"`
	MaxConcurrent   int    `yaml:"max_concurrent_pages"`
}

// AnalyticsConfig locates the append-only conversion record.
type AnalyticsConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// ProcessingConfig bounds concurrent conversion work.
type ProcessingConfig struct {
	MaxConcurrentConversions int `yaml:"max_concurrent_conversions"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:         8090,
			BindAddress:  "0.0.0.0",
			EnableCORS:   true,
			AllowOrigins: "*",
			BodyLimit:    "50M",
			RateLimit:    60,
			RateBurst:    10,
		},
		Storage: StorageConfig{
			DataDirectory:   "./data",
			UploadDirectory: "./data/uploads",
			OutputDirectory: "./data/outputs",
			MaxUploadSize:   "50M",
			SweepMinutes:    30,
		},
		Engines: EnginesConfig{
			PandocBinary:   "pandoc",
			PandocPDF:      "",
			SofficeBinary:  "soffice",
			TimeoutSeconds: 120,
		},
		OCR: OCRConfig{
			TesseractBinary: "tesseract",
			Language:        "eng",
			MaxConcurrent:   4,
		},
		Analytics: AnalyticsConfig{
			DatabasePath: "./data/analytics.duckdb",
		},
		Processing: ProcessingConfig{
			MaxConcurrentConversions: 4,
		},
	}
}

// LoadConfig loads configuration from a YAML file. A missing file is created
// with defaults so deployments start from a documented baseline.
func LoadConfig(configPath string) (*AppConfig, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		config := DefaultConfig()
		config.applyEnvironmentOverrides()
		config.resolvePaths(filepath.Dir(configPath))
		if err := config.Save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		return config, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.applyEnvironmentOverrides()
	config.resolvePaths(filepath.Dir(configPath))
	return config, nil
}

// Save writes the configuration as YAML.
func (c *AppConfig) Save(configPath string) error {
	output, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(configPath, output, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func (c *AppConfig) applyEnvironmentOverrides() {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}
	if dataDir := os.Getenv("DATA_DIR"); dataDir != "" {
		c.Storage.DataDirectory = dataDir
		c.Storage.UploadDirectory = filepath.Join(dataDir, "uploads")
		c.Storage.OutputDirectory = filepath.Join(dataDir, "outputs")
		c.Analytics.DatabasePath = filepath.Join(dataDir, "analytics.duckdb")
	}
	if bin := os.Getenv("PANDOC_BINARY"); bin != "" {
		c.Engines.PandocBinary = bin
	}
	if bin := os.Getenv("SOFFICE_BINARY"); bin != "" {
		c.Engines.SofficeBinary = bin
	}
	if bin := os.Getenv("TESSERACT_BINARY"); bin != "" {
		c.OCR.TesseractBinary = bin
	}
}

func (c *AppConfig) resolvePaths(configDir string) {
	resolve := func(p *string) {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(configDir, *p)
		}
	}
	resolve(&c.Storage.DataDirectory)
	resolve(&c.Storage.UploadDirectory)
	resolve(&c.Storage.OutputDirectory)
	resolve(&c.Analytics.DatabasePath)
}

// GetServerAddr returns the server bind address.
func (c *AppConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.BindAddress, c.Server.Port)
}

// EnsureDirectories creates all necessary directories.
func (c *AppConfig) EnsureDirectories() error {
	dirs := []string{
		c.Storage.DataDirectory,
		c.Storage.UploadDirectory,
		c.Storage.OutputDirectory,
		filepath.Dir(c.Analytics.DatabasePath),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}
