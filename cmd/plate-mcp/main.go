package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/ironsheep/plate-tools-mcp/internal/config"
	"github.com/ironsheep/plate-tools-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("plate-tools-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Println("plate-tools-mcp - MCP server for license plate localization and segmentation")
			fmt.Println()
			fmt.Println("Usage: plate-tools-mcp [options]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Environment variables (also read from ./.env):")
			fmt.Println("  PLATE_MCP_LOG_LEVEL=debug          Enable debug logging")
			fmt.Println("  PLATE_MCP_OCR_LANGUAGE=eng         Tesseract language for plate_recognize")
			fmt.Println("  PLATE_MCP_OCR_WHITELIST=           Characters the classifier may return")
			fmt.Println("  PLATE_MCP_READING_ORDER=rtl        Character reading order (ltr or rtl)")
			fmt.Println("  PLATE_MCP_CLASSIFIER=tesseract     Character classifier (tesseract or template)")
			fmt.Println("  PLATE_MCP_TEMPLATE_DIR=            Labeled glyph directories for the template classifier")
			fmt.Println("  PLATE_MCP_ANNOTATION_COLOR=#00FF00 Rectangle color on annotated plates")
			fmt.Println("  PLATE_MCP_DUMP_DIR=                Directory for intermediate stage images")
			fmt.Println("  PLATE_MCP_CACHE_LIMIT=32           Decoded photos kept in memory (0 = unbounded)")
			fmt.Println()
			fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
			fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
			return
		}
	}

	// Configure logging to stderr (stdout is for MCP protocol)
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("Failed to read .env: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	server.Version = Version
	if cfg.Debug() {
		log.Printf("Plate MCP Server v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
		log.Printf("ocr_language=%s reading_order=%s dump_dir=%q cache_limit=%d",
			cfg.OCRLanguage, cfg.ReadingOrder, cfg.DumpDir, cfg.CacheLimit)
	}

	srv := server.New(cfg)
	if err := srv.Run(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
