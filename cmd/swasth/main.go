// Package main is the Swasth CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/swasth-ai/swasth/internal/cli"
	"github.com/swasth-ai/swasth/internal/config"
	"github.com/swasth-ai/swasth/internal/embedding"
	"github.com/swasth-ai/swasth/internal/engine"
	"github.com/swasth-ai/swasth/internal/importer"
	"github.com/swasth-ai/swasth/internal/keyword"
	"github.com/swasth-ai/swasth/internal/lang"
	"github.com/swasth-ai/swasth/internal/models"
	"github.com/swasth-ai/swasth/internal/server"
	"github.com/swasth-ai/swasth/internal/storage"
	"github.com/swasth-ai/swasth/internal/watcher"
	"github.com/swasth-ai/swasth/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/swasth/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development); if that exists it is used,
// so that "swasth server" from the project dir uses the project's config (including debug).
// Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "ask":
		runAsk()
	case "import":
		runImport()
	case "stats":
		runStats()
	case "version", "--version", "-v":
		fmt.Printf("swasth version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (corpus reloads, query scoring, etc.)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if cfg.Corpus.Watch && cfg.Corpus.Path != "" {
		imp := components.Importer
		watchOpts := []watcher.Option{}
		if debugMode {
			watchOpts = append(watchOpts, watcher.WithLogger(logger))
		}
		corpusWatcher, err := watcher.NewCorpusWatcher(cfg.Corpus.Path, func(path string) {
			if _, err := imp.ImportFile(context.Background(), path, true); err != nil {
				logger.Warn("corpus reimport failed", zap.String("path", path), zap.Error(err))
			}
		}, watchOpts...)
		if err != nil {
			logger.Fatal("Failed to create corpus watcher", zap.Error(err))
		}
		if err := corpusWatcher.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start corpus watcher", zap.Error(err))
		}
		defer corpusWatcher.Stop()
	}

	srv := server.NewServer(
		components.Engine,
		components.Importer,
		components.Storage,
		components.FAQIndex,
		cfg,
		logger,
	)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func printAskUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: swasth ask [flags] <question>\n\n")
	fmt.Fprintf(fs.Output(), "The question is all remaining arguments joined by spaces. Multi-word questions work with or without quotes.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Examples:
  swasth ask how do I treat a fever
  swasth ask "how do I treat a fever"       # same as above
  swasth ask --top-k 3 fever symptoms       # include close alternatives
  swasth ask --output json fever symptoms   # structured JSON for other apps
`)
}

// buildQuestion joins all positional args with spaces so multi-word questions
// work the same with or without shell quoting.
func buildQuestion(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// askArgsReorder moves any flags (and their values) that appear after the
// question to the front of the slice so that flag.Parse() sees them. Go's flag
// package stops at the first non-flag argument, so "swasth ask fever -top-k 3"
// would otherwise leave -top-k unparsed.
func askArgsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

func runAsk() {
	askArgs := askArgsReorder(os.Args[2:])

	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = use direct storage when server is not running)")
	topK := fs.Int("top-k", models.DefaultTopK, "number of matches to return")
	outputFormat := fs.String("output", "text", "output format: text (human-readable) or json (parseable)")
	fs.Usage = func() { printAskUsage(fs) }
	_ = fs.Parse(askArgs)

	if fs.NArg() < 1 {
		printAskUsage(fs)
		os.Exit(1)
	}
	question := buildQuestion(fs.Args())
	if question == "" {
		printAskUsage(fs)
		os.Exit(1)
	}

	format := cli.OutputText
	switch *outputFormat {
	case "json":
		format = cli.OutputJSON
	case "text":
		format = cli.OutputText
	default:
		fmt.Printf("Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}

	if *serverURL != "" {
		// Use the HTTP API when the server is running (avoids a second SQLite writer).
		response, err := askViaHTTP(*serverURL, question, *topK)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Query failed: %v\n", err)
			os.Exit(1)
		}
		if err := cli.WriteAnswer(os.Stdout, response, format); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Direct storage access (when the server is not running).
	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	ctx := context.Background()
	detected, err := components.Engine.DetectLanguage(question)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Query failed: %v\n", err)
		os.Exit(1)
	}
	matches, err := components.Engine.Search(ctx, question, *topK)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Query failed: %v\n", err)
		os.Exit(1)
	}
	response := answerFromMatches(matches, detected, cfg.Search.NoMatchMessage)
	if err := cli.WriteAnswer(os.Stdout, response, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

// answerFromMatches shapes engine matches the way the query endpoint does,
// so text and JSON output look the same from both paths.
func answerFromMatches(matches []engine.Match, detected, noMatchMessage string) *models.QueryResponse {
	response := &models.QueryResponse{
		Answer:           noMatchMessage,
		DetectedLanguage: detected,
	}
	if len(matches) == 0 {
		return response
	}
	best := matches[0]
	id := best.Entry.ID
	response.Answer = best.Entry.Answer
	response.Question = best.Entry.Question
	response.SourceID = &id
	response.Score = best.Score
	for _, m := range matches[1:] {
		response.Alternatives = append(response.Alternatives, models.Answer{
			SourceID: m.Entry.ID,
			Question: m.Entry.Question,
			Answer:   m.Entry.Answer,
			Score:    m.Score,
		})
	}
	return response
}

func askViaHTTP(serverURL, question string, topK int) (*models.QueryResponse, error) {
	body, err := json.Marshal(&models.QueryRequest{Text: question, TopK: topK})
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(serverURL+"/api/v1/query", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var response models.QueryResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &response, nil
}

func runImport() {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = use direct storage when server is not running)")
	clear := fs.Bool("clear", false, "delete existing FAQs before importing")
	_ = fs.Parse(os.Args[2:])

	filePath := fs.Arg(0)

	if *serverURL != "" {
		response, err := importViaHTTP(*serverURL, filePath, *clear)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Import failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%s (skipped %d, total %d)\n", response.Message, response.Skipped, response.Total)
		return
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if filePath == "" {
		filePath = cfg.Corpus.Path
	}
	if filePath == "" {
		fmt.Println("Usage: swasth import [flags] <file>")
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	record, err := components.Importer.ImportFile(context.Background(), filePath, *clear)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Import failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Imported %d FAQs from %s (skipped %d)\n", record.Imported, record.Source, record.Skipped)
}

func importViaHTTP(serverURL, filePath string, clear bool) (*models.ImportResponse, error) {
	body, err := json.Marshal(&models.ImportRequest{FilePath: filePath, ClearExisting: clear})
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(serverURL+"/api/v1/faqs/import", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var response models.ImportResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &response, nil
}

func runStats() {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = use direct storage)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format := cli.OutputText
	switch *outputFormat {
	case "json":
		format = cli.OutputJSON
	case "text":
		format = cli.OutputText
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}

	var stats *cli.Stats
	if *serverURL != "" {
		res, err := statsViaHTTP(*serverURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Stats failed: %v\n", err)
			os.Exit(1)
		}
		stats = res
	} else {
		cfg, _, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		logger, err := utils.NewLogger(cfg.Debug)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
			os.Exit(1)
		}
		defer logger.Sync()
		components, err := initializeComponents(cfg, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
			os.Exit(1)
		}
		defer components.Close()
		ctx := context.Background()
		totalFAQs, err := components.Storage.CountFAQs(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Count FAQs failed: %v\n", err)
			os.Exit(1)
		}
		totalQueries, err := components.Storage.CountQueryLogs(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Count queries failed: %v\n", err)
			os.Exit(1)
		}
		totalImports, err := components.Storage.CountImports(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Count imports failed: %v\n", err)
			os.Exit(1)
		}
		languages, err := components.Storage.LanguageCounts(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Language counts failed: %v\n", err)
			os.Exit(1)
		}
		stats = &cli.Stats{
			TotalFAQs:    totalFAQs,
			TotalQueries: totalQueries,
			TotalImports: totalImports,
			MatchingMode: string(components.Engine.CurrentMode()),
			IndexSize:    components.Engine.IndexSize(),
			Languages:    languages,
		}
	}

	if err := cli.WriteStats(os.Stdout, stats, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func statsViaHTTP(serverURL string) (*cli.Stats, error) {
	resp, err := http.Get(serverURL + "/api/v1/stats")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var stats cli.Stats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &stats, nil
}

// Components holds initialized services.
type Components struct {
	Storage  storage.Storage
	Engine   *engine.Engine
	FAQIndex *keyword.FAQIndex
	Importer *importer.Importer
}

func (c *Components) Close() {
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
	if c.Engine != nil {
		_ = c.Engine.Close()
	}
	if c.FAQIndex != nil {
		_ = c.FAQIndex.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	var factory engine.EmbedderFactory
	if cfg.Embedding.EnabledOrDefault() {
		embCfg := cfg.Embedding
		factory = func(context.Context) (embedding.Embedder, error) {
			return embedding.NewONNXEmbedder(
				embCfg.ModelPath,
				embCfg.Dimensions,
				embCfg.MaxTokens,
				embCfg.CacheSize,
			)
		}
	}

	ctx := context.Background()
	detector := lang.NewDetector(cfg.Corpus.DefaultLanguage)
	eng := engine.New(factory, detector, &cfg.Search, logger)
	mode := eng.Initialize(ctx)
	logger.Info("matching engine initialized", zap.String("mode", string(mode)))

	faqIndex, err := keyword.NewFAQIndex()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize faq index: %w", err)
	}

	imp := importer.NewImporter(store, eng, faqIndex, cfg.Corpus.DefaultLanguage, logger)
	if err := imp.Bootstrap(ctx, cfg.Corpus.Path, cfg.Corpus.AutoImportOrDefault()); err != nil {
		return nil, fmt.Errorf("failed to load corpus: %w", err)
	}

	return &Components{
		Storage:  store,
		Engine:   eng,
		FAQIndex: faqIndex,
		Importer: imp,
	}, nil
}

func printUsage() {
	fmt.Println(`swasth - Multilingual FAQ chatbot backend

Usage:
  swasth server [flags]           Start the HTTP server
  swasth ask [flags] <question>   Ask a question
  swasth import [flags] [file]    Import a FAQ corpus file (CSV or XLSX)
  swasth stats [flags]            Show corpus and query statistics
  swasth version                  Show version
  swasth help                     Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/swasth/config.yaml)
  --debug            Enable debug logging (corpus reloads, query scoring, etc.)

Ask Flags:
  --config string    Config file path (for direct storage mode)
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") to use direct storage when server is not running.
  --top-k int        Number of matches to return (default: 1)
  --output string    Output format: text or json (default: text)

Import Flags:
  --config string    Config file path (for direct storage mode)
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") for direct storage.
  --clear            Delete existing FAQs before importing

Stats Flags:
  --config string    Config file path (for direct storage mode)
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") for direct storage.
  --output string    Output format: text or json (default: text)

Examples:
  swasth server
  swasth ask how do I treat a fever
  swasth ask --top-k 3 "fever symptoms"
  swasth ask --output json fever symptoms   # structured JSON for other apps
  swasth import data/faqs.csv
  swasth import --clear data/faqs.xlsx
  swasth stats
  swasth stats --output json`)
}
