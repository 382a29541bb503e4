// Package main is the Sift CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/siftd/sift/internal/cache"
	"github.com/siftd/sift/internal/chunk"
	"github.com/siftd/sift/internal/config"
	"github.com/siftd/sift/internal/embedding"
	"github.com/siftd/sift/internal/indexer"
	"github.com/siftd/sift/internal/jobs"
	"github.com/siftd/sift/internal/lexical"
	"github.com/siftd/sift/internal/meta"
	"github.com/siftd/sift/internal/models"
	"github.com/siftd/sift/internal/search"
	"github.com/siftd/sift/internal/server"
	"github.com/siftd/sift/internal/storage"
	"github.com/siftd/sift/internal/vector"
	"github.com/siftd/sift/internal/watcher"
	"github.com/siftd/sift/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/sift/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used, so that "sift server" from the project dir uses the project's
// config. Returns the config and the path that was actually loaded.
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
	case "search":
		runSearch()
	case "index":
		runIndex()
	case "watch":
		runWatch()
	case "jobs":
		runJobs()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("sift version %s\n", version)
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
	debug := fs.Bool("debug", false, "enable debug logging (change batches, file indexing, etc.)")
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

	components, err := initializeComponents(cfg, logger, debugMode)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	queue := components.Queue
	var watchSvc *watcher.Watcher
	if len(cfg.Watch.Directories) > 0 {
		manifest, err := components.Storage.Manifest(context.Background())
		if err != nil {
			logger.Fatal("Failed to load file manifest", zap.Error(err))
		}
		admission := watcher.NewAdmission(cfg.Watch.AllowExtensions, cfg.Watch.MaxFileSizeBytes(), cfg.Watch.IgnoreGlobs)
		watchOpts := []watcher.Option{
			watcher.WithDebounce(time.Duration(cfg.Watch.DebounceSeconds) * time.Second),
			watcher.WithKnownHashes(manifest),
		}
		if debugMode {
			watchOpts = append(watchOpts, watcher.WithLogger(logger))
		}
		watchSvc = watcher.New(
			cfg.Watch.Directories,
			admission,
			func(events []models.ChangeEvent) {
				jobID := queue.Submit(context.Background(), events, models.JobIncremental)
				logger.Info("change batch submitted", zap.String("job_id", jobID), zap.Int("events", len(events)))
			},
			watchOpts...,
		)
		if err := watchSvc.Start(); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		defer watchSvc.Stop()

		// Catch up on anything that changed while the server was down.
		if pending := watchSvc.Scan(manifest); len(pending) > 0 {
			jobID := queue.Submit(context.Background(), pending, models.JobIncremental)
			logger.Info("startup scan submitted", zap.String("job_id", jobID), zap.Int("events", len(pending)))
		}
	}

	srv := server.NewServer(
		components.Engine,
		components.Optimizer,
		queue,
		components.Storage,
		components.Results,
		watchSvc,
		cfg,
		logger,
	)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	queue.Wait()
	if cfg.Storage.VectorIndexPath != "" && components.VectorIndex != nil {
		if err := components.VectorIndex.Save(cfg.Storage.VectorIndexPath); err != nil {
			logger.Warn("vector index save failed", zap.String("path", cfg.Storage.VectorIndexPath), zap.Error(err))
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// buildSearchQuery joins all positional args with spaces so multi-word
// queries work the same with or without shell quoting.
func buildSearchQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (direct storage mode)")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = use direct storage when server is not running)")
	kFinal := fs.Int("k", 0, "number of merged results (0 = configured default)")
	maxTokens := fs.Int("max-tokens", 0, "context token budget (0 = configured default)")
	preserveTop := fs.Int("preserve-top", 0, "results kept verbatim before truncation (0 = configured default)")
	noCache := fs.Bool("no-cache", false, "bypass the result cache")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: sift search [flags] <query>")
		os.Exit(1)
	}
	queryStr := buildSearchQuery(fs.Args())
	if queryStr == "" {
		fmt.Println("Usage: sift search [flags] <query>")
		os.Exit(1)
	}

	query := &models.SearchQuery{
		Query:        queryStr,
		KFinal:       *kFinal,
		MaxTokens:    *maxTokens,
		PreserveTopN: *preserveTop,
		NoCache:      *noCache,
	}

	var response *models.SearchResponse
	if *serverURL != "" {
		// Use the HTTP API when the server is running (avoids Bleve/SQLite
		// lock conflicts).
		resp, err := searchViaHTTP(*serverURL, query)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
			os.Exit(1)
		}
		response = resp
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
		components, err := initializeComponents(cfg, logger, cfg.Debug)
		if err != nil {
			logger.Fatal("Failed to initialize", zap.Error(err))
		}
		defer components.Close()
		resp, err := components.Engine.Search(context.Background(), query)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
			os.Exit(1)
		}
		resp.Hits = components.Optimizer.Optimize(resp.Hits, query.MaxTokens, query.PreserveTopN)
		resp.Total = len(resp.Hits)
		response = resp
	}

	switch *outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(response); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	case "text":
		printSearchResults(response)
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}
}

func printSearchResults(resp *models.SearchResponse) {
	cached := ""
	if resp.Cached {
		cached = " (cached)"
	}
	fmt.Printf("%d result(s), %d tokens, %dms%s\n\n", resp.Total, resp.Tokens, resp.QueryTime, cached)
	for i, hit := range resp.Hits {
		truncated := ""
		if hit.Chunk.Metadata.Truncated {
			truncated = " [truncated]"
		}
		fmt.Printf("%2d. %s#%s  score=%.3f  (vec=%.3f bm25=%.3f)%s\n",
			i+1, hit.Chunk.Path, hit.Chunk.Ordinal, hit.Score, hit.VectorScore, hit.LexicalScore, truncated)
		preview := utils.Truncate(hit.Chunk.Content, 200)
		for _, line := range strings.Split(preview, "\n") {
			fmt.Printf("    %s\n", line)
		}
		fmt.Println()
	}
}

func searchViaHTTP(serverURL string, query *models.SearchQuery) (*models.SearchResponse, error) {
	body, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(serverURL+"/api/v1/search", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var response models.SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &response, nil
}

func runIndex() {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: sift index [flags] <file-or-directory>")
		os.Exit(1)
	}
	path, err := filepath.Abs(fs.Arg(0))
	if err != nil {
		fmt.Printf("Invalid path: %v\n", err)
		os.Exit(1)
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger, cfg.Debug)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	events, err := collectEvents(path, cfg)
	if err != nil {
		fmt.Printf("Failed to collect files: %v\n", err)
		os.Exit(1)
	}
	if len(events) == 0 {
		fmt.Println("No admissible files found")
		return
	}

	result := components.Indexer.ProcessBatch(context.Background(), events)
	fmt.Printf("Files processed: %d\n", result.FilesProcessed)
	fmt.Printf("Chunks added:    %d\n", result.ChunksAdded)
	fmt.Printf("Chunks updated:  %d\n", result.ChunksUpdated)
	fmt.Printf("Chunks removed:  %d\n", result.ChunksRemoved)
	if len(result.Errors) > 0 {
		fmt.Printf("Errors:\n")
		for _, e := range result.Errors {
			fmt.Printf("  %s\n", e)
		}
	}
	if cfg.Storage.VectorIndexPath != "" {
		if err := components.VectorIndex.Save(cfg.Storage.VectorIndexPath); err != nil {
			fmt.Fprintf(os.Stderr, "Vector index save failed: %v\n", err)
		}
	}
	if !result.Success {
		os.Exit(1)
	}
}

// collectEvents walks path and returns a Created event per admissible file.
func collectEvents(path string, cfg *config.Config) ([]models.ChangeEvent, error) {
	admission := watcher.NewAdmission(cfg.Watch.AllowExtensions, cfg.Watch.MaxFileSizeBytes(), cfg.Watch.IgnoreGlobs)
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	if !info.IsDir() {
		// Explicit single files skip the extension filter.
		return []models.ChangeEvent{{Kind: models.ChangeCreated, Path: path, Timestamp: now}}, nil
	}
	var events []models.ChangeEvent
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if !admission.AdmitDir(p) {
				return filepath.SkipDir
			}
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return nil
		}
		if admission.Admit(p, fi.Size()) {
			events = append(events, models.ChangeEvent{Kind: models.ChangeCreated, Path: p, Timestamp: now})
		}
		return nil
	})
	return events, err
}

func runWatch() {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	_ = fs.Parse(os.Args[2:])

	resp, err := http.Get(*serverURL + "/api/v1/watch/directories")
	if err != nil {
		fmt.Printf("Request failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotImplemented {
		fmt.Println("Watching is not enabled on the server (no watch.directories configured)")
		return
	}
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		fmt.Printf("Watch failed (%d): %s\n", resp.StatusCode, string(b))
		os.Exit(1)
	}
	var out struct {
		Directories []string `json:"directories"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		fmt.Printf("Parse failed: %v\n", err)
		os.Exit(1)
	}
	if len(out.Directories) == 0 {
		fmt.Println("No directories are being watched")
		return
	}
	for _, dir := range out.Directories {
		fmt.Println(dir)
	}
}

func runJobs() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: sift jobs <list|get|cancel> [id]")
		os.Exit(1)
	}
	sub := os.Args[2]
	fs := flag.NewFlagSet("jobs", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	_ = fs.Parse(os.Args[3:])

	switch sub {
	case "list":
		resp, err := http.Get(*serverURL + "/api/v1/jobs")
		if err != nil {
			fmt.Printf("Request failed: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(resp.Body)
			fmt.Printf("List failed (%d): %s\n", resp.StatusCode, string(b))
			os.Exit(1)
		}
		var out struct {
			Jobs []*models.IndexJob `json:"jobs"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			fmt.Printf("Parse failed: %v\n", err)
			os.Exit(1)
		}
		for _, job := range out.Jobs {
			fmt.Printf("%s  %-10s  %s  %d/%d files\n",
				job.ID, job.Status, job.Type, job.Progress.FilesDone, job.Progress.FilesTotal)
		}
	case "get":
		if fs.NArg() < 1 {
			fmt.Println("Usage: sift jobs get <id>")
			os.Exit(1)
		}
		resp, err := http.Get(*serverURL + "/api/v1/jobs/" + fs.Arg(0))
		if err != nil {
			fmt.Printf("Request failed: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()
		b, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != http.StatusOK {
			fmt.Printf("Get failed (%d): %s\n", resp.StatusCode, string(b))
			os.Exit(1)
		}
		fmt.Println(string(b))
	case "cancel":
		if fs.NArg() < 1 {
			fmt.Println("Usage: sift jobs cancel <id>")
			os.Exit(1)
		}
		req, _ := http.NewRequest(http.MethodDelete, *serverURL+"/api/v1/jobs/"+fs.Arg(0), nil)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			fmt.Printf("Request failed: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(resp.Body)
			fmt.Printf("Cancel failed (%d): %s\n", resp.StatusCode, string(b))
			os.Exit(1)
		}
		fmt.Printf("Cancelled: %s\n", fs.Arg(0))
	default:
		fmt.Printf("Unknown jobs subcommand: %s\n", sub)
		os.Exit(1)
	}
}

// statusResponse is the shape of the GET /api/v1/status response.
type statusResponse struct {
	Files           int64                  `json:"files"`
	Chunks          int64                  `json:"chunks"`
	VectorIndexSize int                    `json:"vector_index_size"`
	DiskUsageBytes  *int64                 `json:"disk_usage_bytes,omitempty"`
	Config          map[string]interface{} `json:"config,omitempty"`
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (direct storage mode)")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = use direct storage)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	var status statusResponse
	if *serverURL != "" {
		res, err := statusViaHTTP(*serverURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
		status = *res
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
		components, err := initializeComponents(cfg, logger, cfg.Debug)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
			os.Exit(1)
		}
		defer components.Close()
		ctx := context.Background()
		fileCount, err := components.Storage.CountFiles(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Count files failed: %v\n", err)
			os.Exit(1)
		}
		chunkCount, err := components.Storage.CountChunks(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Count chunks failed: %v\n", err)
			os.Exit(1)
		}
		status = statusResponse{
			Files:           fileCount,
			Chunks:          chunkCount,
			VectorIndexSize: components.Engine.VectorIndexSize(),
		}
		diskBytes, err := storage.DiskUsageBytes(cfg.Storage.DatabasePath, cfg.Storage.BleveIndexPath, cfg.Storage.VectorIndexPath)
		if err == nil {
			status.DiskUsageBytes = &diskBytes
		}
	}

	switch *outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(status); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	case "text":
		fmt.Printf("files:              %d   # count of indexed files\n", status.Files)
		fmt.Printf("chunks:             %d   # count of stored chunks\n", status.Chunks)
		fmt.Printf("vector_index_size:  %d   # count of vectors in semantic index\n", status.VectorIndexSize)
		if status.DiskUsageBytes != nil {
			fmt.Printf("disk_usage_bytes:   %d   # storage + indices on disk\n", *status.DiskUsageBytes)
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}
}

func statusViaHTTP(serverURL string) (*statusResponse, error) {
	resp, err := http.Get(serverURL + "/api/v1/status")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var s statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &s, nil
}

// Components holds initialized services.
type Components struct {
	Storage      storage.Storage
	Embedder     embedding.Embedder
	VectorIndex  vector.Index
	LexicalIndex lexical.Index
	Engine       *search.Engine
	Optimizer    *search.Optimizer
	Indexer      *indexer.Indexer
	Queue        *jobs.Queue
	Results      *cache.ResultCache
}

func (c *Components) Close() {
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
	if c.VectorIndex != nil {
		_ = c.VectorIndex.Close()
	}
	if c.LexicalIndex != nil {
		_ = c.LexicalIndex.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger, debug bool) (*Components, error) {
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	embedder := embedding.NewCachedEmbedder(
		embedding.NewHashEmbedder(cfg.Embedding.Dimensions),
		cfg.Embedding.CacheSize,
	)

	vectorIndex, err := vector.NewMemoryIndex(cfg.Embedding.Dimensions)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize vector index: %w", err)
	}
	if cfg.Storage.VectorIndexPath != "" {
		if loadErr := vectorIndex.Load(cfg.Storage.VectorIndexPath); loadErr != nil {
			logger.Warn("vector index load skipped (use full reindex)", zap.String("path", cfg.Storage.VectorIndexPath), zap.Error(loadErr))
		}
	}

	lexicalIndex, err := lexical.NewBleveIndex(cfg.Storage.BleveIndexPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize lexical index: %w", err)
	}

	ctx := context.Background()
	if err := rebuildLexicalIfEmpty(ctx, store, lexicalIndex, logger); err != nil {
		return nil, err
	}

	var engineOpts []search.EngineOption
	if debug {
		engineOpts = append(engineOpts, search.WithLogger(logger))
	}
	engine := search.NewEngine(store, embedder, vectorIndex, lexicalIndex, &cfg.Hybrid, engineOpts...)
	optimizer := search.NewOptimizer(&cfg.Optimizer)

	chunker := chunk.NewChunker(cfg.Chunk.CodeTokens, cfg.Chunk.TextTokens, cfg.Chunk.OverlapTokens)
	enhancer := meta.NewEnhancer()

	idxOpts := []indexer.Option{
		indexer.WithMaxFileSize(cfg.Watch.MaxFileSizeBytes()),
		indexer.WithEmbedBatchSize(cfg.Embedding.BatchSize),
	}
	if debug {
		idxOpts = append(idxOpts, indexer.WithLogger(logger))
	}
	idx := indexer.New(store, embedder, vectorIndex, lexicalIndex, chunker, enhancer, idxOpts...)

	var executor jobs.Executor
	if cfg.Jobs.Executor == "remote" {
		executor = jobs.NewRemoteExecutor(cfg.Jobs.RemoteURL, idx, logger)
	} else {
		executor = jobs.NewInlineExecutor(idx)
	}
	queue := jobs.NewQueue(executor, jobs.WithLogger(logger), jobs.WithHistory(cfg.Jobs.History))

	var backend cache.Backend
	if cfg.Cache.Backend == "remote" {
		backend = cache.NewRemoteBackend(cfg.Cache.RemoteURL)
	} else {
		backend = cache.NewMemoryBackend()
	}
	results := cache.New(backend, time.Duration(cfg.Cache.TTLSeconds)*time.Second, logger)

	return &Components{
		Storage:      store,
		Embedder:     embedder,
		VectorIndex:  vectorIndex,
		LexicalIndex: lexicalIndex,
		Engine:       engine,
		Optimizer:    optimizer,
		Indexer:      idx,
		Queue:        queue,
		Results:      results,
	}, nil
}

// rebuildLexicalIfEmpty repopulates the Bleve index from storage when it is
// empty but chunks exist, e.g. after the index directory was deleted.
func rebuildLexicalIfEmpty(ctx context.Context, store storage.Storage, idx lexical.Index, logger *zap.Logger) error {
	docs, err := idx.DocCount()
	if err != nil || docs > 0 {
		return nil
	}
	chunkCount, err := store.CountChunks(ctx)
	if err != nil || chunkCount == 0 {
		return nil
	}
	chunks, err := store.ListChunks(ctx, 0)
	if err != nil {
		return fmt.Errorf("failed to list chunks for lexical rebuild: %w", err)
	}
	logger.Info("rebuilding lexical index from storage", zap.Int("chunks", len(chunks)))
	if err := lexical.Rebuild(ctx, idx, chunks); err != nil {
		return fmt.Errorf("lexical rebuild failed: %w", err)
	}
	return nil
}

func printUsage() {
	fmt.Println(`sift - Hybrid code and document retrieval under a token budget

Usage:
  sift server [flags]            Start the HTTP server
  sift search [flags] <query>    Run a hybrid search
  sift index [flags] <path>      Index a file or directory
  sift watch [flags]             List directories watched by the server
  sift jobs <list|get|cancel>    Inspect or cancel indexing jobs
  sift status [flags]            Show storage and index status
  sift version                   Show version
  sift help                      Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/sift/config.yaml)
  --debug            Enable debug logging (change batches, file indexing, etc.)

Search Flags:
  --config string       Config file path (for direct storage mode)
  --server string       Server URL (default: http://localhost:8080). Use empty (--server "") for direct storage.
  --k int               Number of merged results (0 = configured default)
  --max-tokens int      Context token budget (0 = configured default)
  --preserve-top int    Results kept verbatim before truncation
  --no-cache            Bypass the result cache
  --output string       Output format: text or json (default: text)

Examples:
  sift server
  sift index ./src
  sift search "connection pool retry"
  sift search --max-tokens 2000 --output json "debounce timer"
  sift jobs list
  sift status`)
}
