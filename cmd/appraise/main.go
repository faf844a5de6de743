package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/raine/lootlook/internal/app"
	"github.com/raine/lootlook/internal/appraisal"
	"github.com/raine/lootlook/internal/config"
	"github.com/raine/lootlook/internal/server"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	timeout := flag.Duration("timeout", 60*time.Second, "Overall appraisal timeout")
	verbose := flag.Bool("v", false, "Log pipeline details to stderr")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <image-path>\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment variables:\n")
		fmt.Fprintf(os.Stderr, "  GEMINI_API_KEY - Gemini identification (mock when unset)\n")
		fmt.Fprintf(os.Stderr, "  SERPAPI_KEY    - SerpApi price lookup (mock when unset)\n")
		fmt.Fprintf(os.Stderr, "\nFlags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	imagePath := flag.Arg(0)

	config.LoadEnvFile()
	cfg, err := config.FromEnv()
	if err != nil {
		fatalf("Invalid configuration: %v", err)
	}
	cfg.LogFormat = config.LogFormatConsole
	cfg.LogLevel = "warn"
	if *verbose {
		cfg.LogLevel = "debug"
	}
	if _, err := app.NewLogger(cfg, os.Stderr); err != nil {
		fatalf("Failed to configure logging: %v", err)
	}

	if mimeType := mimeTypeFromPath(imagePath); !appraisal.IsAllowedImageType(mimeType) {
		fatalf("Unsupported file type: %s. Allowed types: %s", mimeType, strings.Join(appraisal.AllowedImageTypes, ", "))
	}

	imageData, err := os.ReadFile(imagePath)
	if err != nil {
		fatalf("Failed to read image: %v", err)
	}
	if len(imageData) == 0 {
		fatalf("Empty file: %s", imagePath)
	}
	if len(imageData) > server.MaxImageSize {
		fatalf("File too large. Maximum size is %d MB.", server.MaxImageSize/(1024*1024))
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	ctx = log.Logger.WithContext(ctx)

	pipeline, err := app.NewPipeline(ctx, cfg, nil)
	if err != nil {
		fatalf("Failed to build pipeline: %v", err)
	}
	defer pipeline.Close()

	zerolog.Ctx(ctx).Debug().
		Str("identifier", pipeline.IdentifierMode).
		Str("pricer", pipeline.PricerMode).
		Msg("appraising")

	report, err := pipeline.Appraiser.Analyze(ctx, imageData)
	if err != nil {
		fatalf("Appraisal failed: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		fatalf("Failed to write report: %v", err)
	}
}

func mimeTypeFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	case ".heic":
		return "image/heic"
	case ".gif":
		return "image/gif"
	default:
		return "application/octet-stream"
	}
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
