package config

import (
	"image/color"
	"strings"
	"testing"

	"github.com/ironsheep/plate-tools-mcp/internal/plate"
)

// clearEnv blanks every variable Load reads for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		EnvLogLevel, EnvOCRLanguage, EnvOCRWhitelist, EnvReadingOrder,
		EnvAnnotationColor, EnvDumpDir, EnvCacheLimit,
		EnvClassifier, EnvTemplateDir,
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.LogLevel != "info" || cfg.Debug() {
		t.Errorf("LogLevel: got %q", cfg.LogLevel)
	}
	if cfg.OCRLanguage != "eng" {
		t.Errorf("OCRLanguage: got %q, want eng", cfg.OCRLanguage)
	}
	if cfg.ReadingOrder != plate.RightToLeft {
		t.Errorf("ReadingOrder: got %q, want rtl", cfg.ReadingOrder)
	}
	if cfg.AnnotationColor != (color.RGBA{G: 255, A: 255}) {
		t.Errorf("AnnotationColor: got %v, want green", cfg.AnnotationColor)
	}
	if cfg.DumpDir != "" {
		t.Errorf("DumpDir: got %q, want empty", cfg.DumpDir)
	}
	if cfg.CacheLimit != 32 {
		t.Errorf("CacheLimit: got %d, want 32", cfg.CacheLimit)
	}
	if cfg.Classifier != ClassifierTesseract || cfg.TemplateDir != "" {
		t.Errorf("Classifier: got %q / %q, want tesseract", cfg.Classifier, cfg.TemplateDir)
	}
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvLogLevel, "DEBUG")
	t.Setenv(EnvOCRLanguage, "ara")
	t.Setenv(EnvOCRWhitelist, "0123456789")
	t.Setenv(EnvReadingOrder, "ltr")
	t.Setenv(EnvAnnotationColor, "#FF0000")
	t.Setenv(EnvDumpDir, "/tmp/plates")
	t.Setenv(EnvCacheLimit, "0")
	t.Setenv(EnvClassifier, "Template")
	t.Setenv(EnvTemplateDir, "/srv/glyphs")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if !cfg.Debug() {
		t.Error("Debug should be enabled")
	}
	if cfg.OCRLanguage != "ara" || cfg.OCRWhitelist != "0123456789" {
		t.Errorf("OCR settings: got %q / %q", cfg.OCRLanguage, cfg.OCRWhitelist)
	}
	if cfg.ReadingOrder != plate.LeftToRight {
		t.Errorf("ReadingOrder: got %q, want ltr", cfg.ReadingOrder)
	}
	if cfg.AnnotationColor != (color.RGBA{R: 255, A: 255}) {
		t.Errorf("AnnotationColor: got %v, want red", cfg.AnnotationColor)
	}
	if cfg.DumpDir != "/tmp/plates" || cfg.CacheLimit != 0 {
		t.Errorf("DumpDir/CacheLimit: got %q / %d", cfg.DumpDir, cfg.CacheLimit)
	}
	if cfg.Classifier != ClassifierTemplate || cfg.TemplateDir != "/srv/glyphs" {
		t.Errorf("Classifier: got %q / %q", cfg.Classifier, cfg.TemplateDir)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"log level", EnvLogLevel, "verbose"},
		{"reading order", EnvReadingOrder, "up"},
		{"color", EnvAnnotationColor, "green"},
		{"cache limit not a number", EnvCacheLimit, "lots"},
		{"negative cache limit", EnvCacheLimit, "-1"},
		{"classifier", EnvClassifier, "svm"},
		{"template without dir", EnvClassifier, "template"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			if err == nil {
				t.Fatalf("Load should fail for %s=%q", tt.key, tt.value)
			}
			if !strings.Contains(err.Error(), tt.key) {
				t.Errorf("error %q should name %s", err, tt.key)
			}
		})
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.AnnotationColor != plate.DefaultAnnotation {
		t.Errorf("AnnotationColor: got %v, want %v", cfg.AnnotationColor, plate.DefaultAnnotation)
	}

	clearEnv(t)
	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if *loaded != *cfg {
		t.Errorf("Load with empty env: got %+v, want %+v", loaded, cfg)
	}
}
