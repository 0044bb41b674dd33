// Package config loads the plate server configuration from the environment.
package config

import (
	"fmt"
	"image/color"
	"os"
	"strconv"
	"strings"

	"github.com/ironsheep/plate-tools-mcp/internal/plate"
	"github.com/ironsheep/plate-tools-mcp/internal/vision"
)

// Environment variable names.
const (
	EnvLogLevel        = "PLATE_MCP_LOG_LEVEL"
	EnvOCRLanguage     = "PLATE_MCP_OCR_LANGUAGE"
	EnvOCRWhitelist    = "PLATE_MCP_OCR_WHITELIST"
	EnvReadingOrder    = "PLATE_MCP_READING_ORDER"
	EnvAnnotationColor = "PLATE_MCP_ANNOTATION_COLOR"
	EnvDumpDir         = "PLATE_MCP_DUMP_DIR"
	EnvCacheLimit      = "PLATE_MCP_CACHE_LIMIT"
	EnvClassifier      = "PLATE_MCP_CLASSIFIER"
	EnvTemplateDir     = "PLATE_MCP_TEMPLATE_DIR"
)

// Classifier names.
const (
	ClassifierTesseract = "tesseract"
	ClassifierTemplate  = "template"
)

// Config holds server configuration
type Config struct {
	// Logging
	LogLevel string

	// Character classification
	OCRLanguage  string
	OCRWhitelist string
	ReadingOrder plate.ReadingOrder

	// Classifier is ClassifierTesseract or ClassifierTemplate. The template
	// classifier reads labeled glyphs from TemplateDir.
	Classifier  string
	TemplateDir string

	// Annotation color drawn on result images, as given and parsed
	AnnotationHex   string
	AnnotationColor color.RGBA

	// Directory for intermediate stage images; empty disables dumps
	DumpDir string

	// Maximum number of decoded photos kept in memory; 0 means unbounded
	CacheLimit int
}

// Defaults applied when a variable is unset.
const (
	DefaultLogLevel        = "info"
	DefaultOCRLanguage     = "eng"
	DefaultAnnotationColor = "#00FF00"
	DefaultCacheLimit      = 32
)

// Default returns the configuration used when no environment is set.
func Default() *Config {
	return &Config{
		LogLevel:        DefaultLogLevel,
		OCRLanguage:     DefaultOCRLanguage,
		ReadingOrder:    plate.RightToLeft,
		Classifier:      ClassifierTesseract,
		AnnotationHex:   DefaultAnnotationColor,
		AnnotationColor: plate.DefaultAnnotation,
		CacheLimit:      DefaultCacheLimit,
	}
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		LogLevel:      strings.ToLower(getEnvOrDefault(EnvLogLevel, DefaultLogLevel)),
		OCRLanguage:   getEnvOrDefault(EnvOCRLanguage, DefaultOCRLanguage),
		OCRWhitelist:  os.Getenv(EnvOCRWhitelist),
		Classifier:    strings.ToLower(getEnvOrDefault(EnvClassifier, ClassifierTesseract)),
		TemplateDir:   os.Getenv(EnvTemplateDir),
		AnnotationHex: getEnvOrDefault(EnvAnnotationColor, DefaultAnnotationColor),
		DumpDir:       os.Getenv(EnvDumpDir),
	}

	order, err := plate.ParseReadingOrder(getEnvOrDefault(EnvReadingOrder, string(plate.RightToLeft)))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", EnvReadingOrder, err)
	}
	cfg.ReadingOrder = order

	if cfg.CacheLimit, err = getEnvAsIntOrDefault(EnvCacheLimit, DefaultCacheLimit); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration and fills AnnotationColor.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info":
	default:
		return fmt.Errorf("%s must be debug or info, got %q", EnvLogLevel, c.LogLevel)
	}

	if c.OCRLanguage == "" {
		return fmt.Errorf("%s must not be empty", EnvOCRLanguage)
	}

	switch c.Classifier {
	case ClassifierTesseract:
	case ClassifierTemplate:
		if c.TemplateDir == "" {
			return fmt.Errorf("%s must be set when %s is %s", EnvTemplateDir, EnvClassifier, ClassifierTemplate)
		}
	default:
		return fmt.Errorf("%s must be %s or %s, got %q", EnvClassifier, ClassifierTesseract, ClassifierTemplate, c.Classifier)
	}

	if c.CacheLimit < 0 {
		return fmt.Errorf("%s must be 0 or more, got %d", EnvCacheLimit, c.CacheLimit)
	}

	rgba, err := vision.ParseColor(c.AnnotationHex)
	if err != nil {
		return fmt.Errorf("%s: invalid color %q: %w", EnvAnnotationColor, c.AnnotationHex, err)
	}
	c.AnnotationColor = rgba

	return nil
}

// Debug reports whether debug logging is enabled.
func (c *Config) Debug() bool {
	return c.LogLevel == "debug"
}

// getEnvOrDefault gets environment variable or returns default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsIntOrDefault gets environment variable as int or returns default
func getEnvAsIntOrDefault(key string, defaultValue int) (int, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, valueStr)
	}
	return value, nil
}
