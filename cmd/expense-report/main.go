package main

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/zombor/expense-report/internal/expense"
	"github.com/zombor/expense-report/internal/scanning"
	"github.com/zombor/expense-report/internal/scanning/tesseract"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	fs := ff.NewFlagSet("expense-report")
	var (
		port           = fs.IntLong("port", 8080, "HTTP server port")
		recognizerType = fs.StringLong("recognizer", "tesseract", "Text recognizer: 'tesseract', 'gemini' or 'ollama'")
		tessdata       = fs.StringLong("tessdata", "", "Tesseract tessdata directory (optional)")
		ocrLang        = fs.StringLong("ocr-lang", "por", "Tesseract language")
		geminiKey      = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel    = fs.StringLong("gemini-model", "gemini-2.5-flash", "Google Gemini model name")
		ollamaURL      = fs.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel    = fs.StringLong("ollama-model", "llava", "Ollama model name (e.g., llava, qwen2-vl)")
		ocrMaxEdge     = fs.IntLong("ocr-max-edge", scanning.DefaultPreprocessing().MaxEdge, "Longest image side in pixels before recognition (0 keeps the original size)")
		ocrKeepColor   = fs.BoolLong("ocr-keep-color", "Skip grayscale conversion before recognition")
		labelPriority  = fs.StringLong("amount-label-priority", "text", "Which total wins when several labels appear: 'text' (first in text) or 'label' (most specific label)")
		projects       = fs.StringLong("projects", "", "Comma separated project list (defaults to the built-in list)")
		professionals  = fs.StringLong("professionals", "", "Comma separated professional list (defaults to the built-in list)")
		sessionTTL     = fs.StringLong("session-ttl", "12h", "Idle time after which a session is forgotten (0 keeps sessions forever)")
		secureCookies  = fs.BoolLong("secure-cookies", "Only send the session cookie over HTTPS")
		showVersion    = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("EXPENSE_REPORT"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Check version flag after parsing
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	priority, ok := scanning.ParseLabelPriority(*labelPriority)
	if !ok {
		slog.Error("Invalid amount label priority", "value", *labelPriority, "valid", "text or label")
		os.Exit(1)
	}

	ttl, err := time.ParseDuration(*sessionTTL)
	if err != nil {
		slog.Error("Invalid session TTL", "value", *sessionTTL, "error", err)
		os.Exit(1)
	}

	// Initialize recognizer based on type
	var recognizer scanning.Recognizer
	switch *recognizerType {
	case "tesseract":
		slog.Info("Initializing Tesseract recognizer...", "language", *ocrLang)
		recognizer = tesseract.New(*ocrLang, *tessdata)
	case "gemini":
		// Get Gemini API key from flag or environment
		apiKey := *geminiKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		if apiKey == "" {
			slog.Error("Gemini API key is required. Set --gemini-key flag or GEMINI_API_KEY environment variable")
			os.Exit(1)
		}
		slog.Info("Initializing Gemini recognizer...", "model", *geminiModel)
		recognizer, err = scanning.NewGemini(apiKey, *geminiModel)
		if err != nil {
			slog.Error("Failed to initialize Gemini", "error", err)
			os.Exit(1)
		}
	case "ollama":
		slog.Info("Initializing Ollama recognizer...", "url", *ollamaURL, "model", *ollamaModel)
		recognizer, err = scanning.NewOllama(*ollamaURL, *ollamaModel)
		if err != nil {
			slog.Error("Failed to initialize Ollama", "error", err)
			os.Exit(1)
		}
	default:
		slog.Error("Invalid recognizer type", "type", *recognizerType, "valid", "tesseract, gemini or ollama")
		os.Exit(1)
	}

	prep := scanning.Preprocessing{
		MaxEdge:   *ocrMaxEdge,
		Grayscale: !*ocrKeepColor,
	}
	scanner := scanning.NewScanner(recognizer, prep, priority)
	defer scanner.Close()

	options := expense.DefaultOptions()
	if list := splitList(*projects); len(list) > 0 {
		options.Projects = list
	}
	if list := splitList(*professionals); len(list) > 0 {
		options.Professionals = list
	}

	// Initialize service and server
	service := expense.NewService(scanner, options)
	sessions := expense.NewSessionStore(ttl, nil)
	server := expense.NewServer(service, sessions)
	server.SetSecureCookies(*secureCookies)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := fmt.Sprintf(":%d", *port)
	slog.Info("Server started",
		"address", fmt.Sprintf("http://localhost%s", addr),
		"recognizer", *recognizerType,
		"ocr_max_edge", prep.MaxEdge,
		"ocr_grayscale", prep.Grayscale,
		"session_ttl", ttl,
	)
	if err := server.Start(ctx, addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	slog.Info("Shutting down...")
}

// splitList parses a comma separated flag value, dropping empty items
func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
