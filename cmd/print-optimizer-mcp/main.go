package main

import (
	"fmt"
	"log"
	"os"

	"github.com/ironsheep/print-optimizer-mcp/internal/ocr"
	"github.com/ironsheep/print-optimizer-mcp/internal/server"
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
			fmt.Printf("print-optimizer-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			fmt.Printf("  Tesseract:  %s\n", ocr.Version())
			return
		case "--help", "-h", "help":
			fmt.Println("print-optimizer-mcp - MCP server for preparing scans for print")
			fmt.Println()
			fmt.Println("Usage: print-optimizer-mcp [options]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Environment variables:")
			fmt.Println("  PRINT_OPTIMIZER_LOG_LEVEL=debug       Enable debug logging")
			fmt.Println("  PRINT_OPTIMIZER_DEBOUNCE_MS=150       Adjustment debounce interval")
			fmt.Println("  PRINT_OPTIMIZER_SHARPEN_MODE=gaussian Sharpening: gaussian or unsharp")
			fmt.Println("  PRINT_OPTIMIZER_UNSHARP_AMOUNT=1.0    Unsharp mask strength")
			fmt.Println("  PRINT_OPTIMIZER_JPEG_QUALITY=95       JPEG export quality (1-100)")
			fmt.Println("  PRINT_OPTIMIZER_OCR_LANGUAGE=eng      Default OCR language")
			fmt.Println()
			fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
			fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
			return
		}
	}

	// Configure logging to stderr (stdout is for MCP protocol)
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	cfg, err := server.ConfigFromEnv()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if cfg.Debug {
		log.Printf("Print Optimizer MCP Server v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
		log.Printf("Config: debounce=%v sharpen=%s jpeg_quality=%d ocr=%s",
			cfg.DebounceInterval, cfg.SharpenMode, cfg.JPEGQuality, cfg.OCRLanguage)
	}

	server.Version = Version
	srv := server.New(cfg)
	defer srv.Close()
	if err := srv.Run(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
